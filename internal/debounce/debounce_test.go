package debounce_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowdaycalc/snowday/internal/debounce"
)

const delay = 800 * time.Millisecond

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("debounced action did not run")
		return ""
	}
}

func assertQuiet(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected action %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func blockUntilTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, n))
}

func TestDebouncer_FiresAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := debounce.New(clock, delay)
	ran := make(chan string, 1)

	d.Trigger(func() { ran <- "Buffalo" })
	blockUntilTimers(t, clock, 1)
	assert.True(t, d.Pending())

	clock.Advance(delay - time.Millisecond)
	assertQuiet(t, ran)

	clock.Advance(time.Millisecond)
	assert.Equal(t, "Buffalo", waitFor(t, ran))
	assert.Eventually(t, func() bool { return !d.Pending() }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_LastTriggerWins(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := debounce.New(clock, delay)
	ran := make(chan string, 3)

	for _, q := range []string{"Buf", "Buff", "Buffalo"} {
		d.Trigger(func() { ran <- q })
		blockUntilTimers(t, clock, 1)
		clock.Advance(delay / 2)
	}
	assertQuiet(t, ran)

	clock.Advance(delay)
	assert.Equal(t, "Buffalo", waitFor(t, ran))
	assertQuiet(t, ran)
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := debounce.New(clock, delay)
	var calls atomic.Int32

	assert.False(t, d.Cancel(), "nothing pending yet")

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Cancel())
	assert.False(t, d.Pending())

	clock.Advance(2 * delay)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_StopRejectsTriggers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := debounce.New(clock, delay)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	assert.False(t, d.Pending())

	clock.Advance(2 * delay)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_RealClock(t *testing.T) {
	d := debounce.New(nil, 10*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, d.Delay())

	ran := make(chan string, 1)
	d.Trigger(func() { ran <- "Duluth" })
	assert.Equal(t, "Duluth", waitFor(t, ran))
}
