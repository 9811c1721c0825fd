package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/snowdaycalc/snowday/internal/debounce"
	"github.com/snowdaycalc/snowday/internal/estimator"
	"github.com/snowdaycalc/snowday/internal/forecast"
)

// Autofill defaults.
const (
	DefaultDebounce       = 800 * time.Millisecond
	DefaultMinQueryLength = 3
)

// Config holds the dependencies of a session.
type Config struct {
	Resolver forecast.Resolver
	Logger   zerolog.Logger
	Clock    clockwork.Clock

	// Debounce is the quiet period after the last location edit.
	Debounce time.Duration

	// MinQueryLength is the shortest trimmed location that triggers a lookup.
	MinQueryLength int
}

func (c *Config) applyDefaults() {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinQueryLength <= 0 {
		c.MinQueryLength = DefaultMinQueryLength
	}
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID        string    `json:"id"`
	Form      Form      `json:"form"`
	Loading   bool      `json:"loading"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is one form plus its autofill machinery.
//
// Every location edit bumps a generation counter. A lookup only writes back if
// its generation is still current when it completes; older lookups are also
// cancelled through their context.
type Session struct {
	id       string
	resolver forecast.Resolver
	logger   zerolog.Logger
	clock    clockwork.Clock
	minQuery int
	debounce *debounce.Debouncer

	ctx  context.Context
	stop context.CancelFunc

	mu         sync.Mutex
	form       Form
	generation uint64
	cancel     context.CancelFunc
	inFlight   bool
	lastSeen   time.Time
	closed     bool
}

// New creates a session with the default form. parent bounds every lookup the
// session makes.
func New(parent context.Context, id string, cfg Config) *Session {
	cfg.applyDefaults()
	ctx, stop := context.WithCancel(parent)

	return &Session{
		id:       id,
		resolver: cfg.Resolver,
		logger:   cfg.Logger.With().Str("session_id", id).Logger(),
		clock:    cfg.Clock,
		minQuery: cfg.MinQueryLength,
		debounce: debounce.New(cfg.Clock, cfg.Debounce),
		ctx:      ctx,
		stop:     stop,
		form:     DefaultForm(),
		lastSeen: cfg.Clock.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        s.id,
		Form:      s.form,
		Loading:   s.inFlight || s.debounce.Pending(),
		UpdatedAt: s.lastSeen,
	}
}

// SetLocation records new location text and schedules a forecast lookup for
// it once typing pauses. Short queries clear the status without a lookup.
func (s *Session) SetLocation(text string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	s.touchLocked()

	s.form.Location = text
	s.form.Status.IsError = false

	s.debounce.Cancel()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inFlight = false
	s.generation++

	query, ok := LookupQuery(text, s.minQuery)
	if !ok {
		s.form.Status.Message = ""
		return s.snapshotLocked(), nil
	}

	gen := s.generation
	s.debounce.Trigger(func() { s.lookup(gen, query) })

	return s.snapshotLocked(), nil
}

// lookup resolves query and applies the result if gen is still current.
func (s *Session) lookup(gen uint64, query string) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.inFlight = true
	s.form.Status = Status{Message: StatusLoading}
	s.mu.Unlock()

	defer cancel()

	s.logger.Debug().Str("query", query).Uint64("generation", gen).Msg("resolving forecast for location")

	sample, err := s.resolver.Resolve(ctx, query)

	var derived forecast.Derived
	if err == nil {
		derived = forecast.DeriveInputs(sample)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.logger.Debug().Str("query", query).Uint64("generation", gen).Msg("discarding superseded forecast")
		return
	}
	s.cancel = nil
	s.inFlight = false

	if err != nil {
		if !errors.Is(err, forecast.ErrNotFound) {
			s.logger.Warn().Err(err).Str("query", query).Msg("forecast lookup failed")
		}
		s.form.Status = Status{Message: StatusFailed, IsError: true}
		return
	}

	s.form.ApplyForecast(sample.Place, derived)
	s.logger.Info().
		Str("place", sample.Place.Label()).
		Float64("snow_inches", derived.SnowInches).
		Int("low_temp_f", derived.LowTempF).
		Str("ice_risk", string(derived.IceRisk)).
		Str("timing", string(derived.Timing)).
		Msg("applied forecast to form")
}

// UpdateFields applies a manual edit.
func (s *Session) UpdateFields(u FieldUpdate) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	s.touchLocked()

	if err := u.Apply(&s.form); err != nil {
		return Snapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// SetPreferences changes the display unit and/or theme. Nil leaves a
// preference unchanged.
func (s *Session) SetPreferences(unit *estimator.TempUnit, theme *Theme) (Snapshot, error) {
	if unit != nil && !unit.Valid() {
		return Snapshot{}, estimator.ErrInvalidTempUnit
	}
	if theme != nil && !theme.Valid() {
		return Snapshot{}, ErrInvalidTheme
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	s.touchLocked()

	if unit != nil {
		s.form.SetUnit(*unit)
	}
	if theme != nil {
		s.form.Theme = *theme
	}
	return s.snapshotLocked(), nil
}

// Submit scores the form as it is now. It never waits on a pending lookup.
func (s *Session) Submit() (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Submission{}, ErrClosed
	}
	s.touchLocked()

	return s.form.Submit(), nil
}

// Close stops autofill and cancels any lookup in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.debounce.Stop()
	s.stop()
}

// IdleSince returns when the session was last used.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

func (s *Session) touchLocked() {
	s.lastSeen = s.clock.Now()
}

// LookupQuery trims text and reports whether it is long enough, in
// characters, to send to the geocoder.
func LookupQuery(text string, minLength int) (string, bool) {
	query := strings.TrimSpace(text)
	return query, utf8.RuneCountInString(query) >= minLength
}
