package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	// Session is applied to every session the store creates.
	Session Config

	// TTL is the idle time after which a session is swept.
	TTL time.Duration

	// Logger for store operations.
	Logger zerolog.Logger
}

// Store keeps sessions in memory. Nothing is persisted; a restart forgets
// every session.
type Store struct {
	cfg    Config
	ttl    time.Duration
	clock  clockwork.Clock
	logger zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) *Store {
	cfg.Session.applyDefaults()
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	ctx, stop := context.WithCancel(context.Background())

	return &Store{
		cfg:      cfg.Session,
		ttl:      cfg.TTL,
		clock:    cfg.Session.Clock,
		logger:   cfg.Logger,
		ctx:      ctx,
		stop:     stop,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with the default form.
func (st *Store) Create() *Session {
	id := "ses_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	s := New(st.ctx, id, st.cfg)

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	st.logger.Debug().Str("session_id", id).Msg("session created")
	return s
}

// Get returns the session with id and marks it as used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// Delete closes and removes the session with id.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	cutoff := st.clock.Now().Add(-st.ttl)

	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.IdleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		st.logger.Debug().Int("expired", len(expired)).Int("remaining", st.Len()).Msg("swept idle sessions")
	}
	return len(expired)
}

// Run sweeps on an interval of half the TTL until ctx is done.
func (st *Store) Run(ctx context.Context) {
	ticker := st.clock.NewTicker(st.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			st.Sweep()
		}
	}
}

// Close closes every session and cancels their lookups.
func (st *Store) Close() {
	st.stop()

	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Closed reports whether Close has been called.
func (st *Store) Closed() bool {
	return st.ctx.Err() != nil
}
