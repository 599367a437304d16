// Package session owns the live dashboard sessions: one dashboard.State per session id,
// serialized behind a per-session mutex and optionally persisted through a StateStore.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	// Store persists state after every mutation. nil keeps state in memory only.
	Store StateStore
	// TTL is how long an idle session stays in memory.
	TTL time.Duration
	// SeedDemoData adds the example payments to brand new sessions.
	SeedDemoData bool
	// StateOptions are applied to every new dashboard.State.
	StateOptions []dashboard.Option
	// Now defaults to time.Now.
	Now func() time.Time
	// SaveTimeout bounds each persistence write.
	SaveTimeout time.Duration
}

// Manager maps session ids to live sessions.
type Manager struct {
	mu       sync.RWMutex // Protects sessions
	sessions map[uuid.UUID]*Session

	store        StateStore
	ttl          time.Duration
	seed         bool
	stateOptions []dashboard.Option
	now          func() time.Time
	saveTimeout  time.Duration
	logger       *zap.Logger
}

// Session is one user's dashboard. All access goes through Do or View.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu           sync.Mutex // Serializes actions on state
	state        *dashboard.State
	lastActivity time.Time
	manager      *Manager
}

// NewManager creates a session manager. logger may be nil.
func NewManager(opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	return &Manager{
		sessions:     make(map[uuid.UUID]*Session),
		store:        opts.Store,
		ttl:          opts.TTL,
		seed:         opts.SeedDemoData,
		stateOptions: opts.StateOptions,
		now:          opts.Now,
		saveTimeout:  opts.SaveTimeout,
		logger:       logger,
	}
}

// GetOrCreate returns the live session for id, restoring it from the store or creating a
// freshly seeded one when it is not in memory.
func (m *Manager) GetOrCreate(ctx context.Context, id uuid.UUID) (*Session, error) {
	if id == uuid.Nil {
		return nil, errors.New("session id must not be nil")
	}

	// Fast path under read lock
	m.mu.RLock()
	if s, ok := m.sessions[id]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	// Build outside the write lock so a slow store does not block other sessions
	fresh, err := m.build(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock (another request may have created it)
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	m.sessions[id] = fresh
	return fresh, nil
}

// Get returns the live session for id without creating it.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Sessions returns a snapshot of the live sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete drops a session from memory and from the store.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// Sweep evicts sessions idle for longer than the TTL. Sessions still holding undelivered
// reminders stay live so the dispatcher can fire them. Persisted state is kept, so an
// evicted session is restored on its next request.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.evictable(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunJanitor sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("sessions_evicted",
					zap.Int("count", n),
					zap.Int("remaining", m.Len()),
				)
			}
		}
	}
}

func (m *Manager) build(ctx context.Context, id uuid.UUID) (*Session, error) {
	now := m.now()
	state := dashboard.New(m.stateOptions...)

	if m.store != nil {
		doc, err := m.store.Load(ctx, id)
		switch {
		case err == nil:
			if err := state.Restore(*doc); err != nil {
				return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
			}
			m.logger.Debug("session_restored", zap.String("session_id", id.String()))
			return m.wrap(id, state, now), nil
		case errors.Is(err, ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
	}

	if m.seed {
		if err := state.SeedDemoPayments(); err != nil {
			return nil, fmt.Errorf("failed to seed session: %w", err)
		}
	}
	m.logger.Debug("session_created", zap.String("session_id", id.String()))
	return m.wrap(id, state, now), nil
}

func (m *Manager) wrap(id uuid.UUID, state *dashboard.State, now time.Time) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now,
		state:        state,
		lastActivity: now,
		manager:      m,
	}
}

// Do runs a mutating action with exclusive access to the session's state. When fn succeeds
// and a store is configured the new state is persisted before Do returns.
func (s *Session) Do(ctx context.Context, fn func(*dashboard.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.manager.now()

	if err := fn(s.state); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// View runs a read-only function with exclusive access to the session's state.
func (s *Session) View(fn func(*dashboard.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.manager.now()
	fn(s.state)
}

// Background is Do for actions the user did not initiate, such as reminder delivery.
// It does not count as activity for idle eviction.
func (s *Session) Background(ctx context.Context, fn func(*dashboard.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.state); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// Peek is View without counting as activity.
func (s *Session) Peek(fn func(*dashboard.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// persist writes the state through the store. Failures are logged; the in-memory state
// stays authoritative.
func (s *Session) persist(ctx context.Context) {
	m := s.manager
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.saveTimeout)
	defer cancel()
	if err := m.store.Save(ctx, s.ID, s.state.Export()); err != nil {
		m.logger.Error("session_persist_failed",
			zap.String("session_id", s.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Session) evictable(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity.Before(cutoff) && len(s.state.UpcomingReminders()) == 0
}
