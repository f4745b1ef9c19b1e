package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrManagerClosed = errors.New("storefront: manager closed")
	ErrEmptySession  = errors.New("storefront: empty session id")
)

const releaseTimeout = 5 * time.Second

type session struct {
	scope    *Storefront
	lastSeen time.Time
}

// Manager keeps one Storefront per session id. With Options.IdleTTL set, a
// background sweep releases scopes that were not requested for that long.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	opts   Options
	now    func() time.Time
	logger *zap.Logger

	stop chan struct{}
	done chan struct{}
}

func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		sessions: make(map[string]*session),
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
	if opts.IdleTTL > 0 {
		m.stop = make(chan struct{})
		m.done = make(chan struct{})
		go m.sweep(max(opts.IdleTTL/2, time.Millisecond))
	}
	return m
}

// Get returns the scope for sessionID, creating and hydrating it on first
// use. Hydration runs outside the manager lock.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Storefront, error) {
	if sessionID == "" {
		return nil, ErrEmptySession
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if sess, ok := m.sessions[sessionID]; ok {
		sess.lastSeen = m.now()
		m.mu.Unlock()
		return sess.scope, nil
	}
	m.mu.Unlock()

	created := New(ctx, sessionID, m.opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		created.Close()
		return nil, ErrManagerClosed
	}
	if sess, ok := m.sessions[sessionID]; ok {
		created.Close()
		sess.lastSeen = m.now()
		return sess.scope, nil
	}
	m.sessions[sessionID] = &session{scope: created, lastSeen: m.now()}
	m.logger.Info("Storefront session opened", zap.String("session_id", sessionID))
	return created, nil
}

// Evict closes and forgets sessionID. Non-empty snapshots remain, so a later
// Get hydrates the same state again.
func (m *Manager) Evict(ctx context.Context, sessionID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		m.release(ctx, sess.scope)
	}
}

// EvictIdle evicts every session not requested within IdleTTL and returns
// how many it evicted. Sessions with live subscribers are kept.
func (m *Manager) EvictIdle(ctx context.Context) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*Storefront
	for id, sess := range m.sessions {
		if sess.lastSeen.After(cutoff) || sess.scope.Watched() {
			continue
		}
		delete(m.sessions, id)
		idle = append(idle, sess.scope)
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.release(ctx, s)
	}
	if len(idle) > 0 {
		m.logger.Info("Evicted idle storefront sessions", zap.Int("sessions", len(idle)))
	}
	return len(idle)
}

func (m *Manager) release(ctx context.Context, s *Storefront) {
	s.Close()
	s.Prune(ctx)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			m.EvictIdle(ctx)
			cancel()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the idle sweep and closes every scope. Get fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.closed = true
	m.mu.Unlock()

	if m.stop != nil {
		close(m.stop)
		<-m.done
	}

	for _, sess := range sessions {
		sess.scope.Close()
	}
	m.logger.Info("Storefront manager closed", zap.Int("sessions", len(sessions)))
}
