package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/onbscore/pkg/metrics"
)

const memoryBackend = "memory"

// MemoryStore keeps sessions in process memory. Expired sessions are
// dropped lazily on access; there is no background sweeper.
type MemoryStore struct {
	opts options

	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{opts: o, sessions: make(map[string]*Session)}
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	defer observe(memoryBackend, "put", time.Now())
	if err := sess.validate(); err != nil {
		return err
	}
	now := s.opts.now()
	cp := *sess
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.ExpiresAt.IsZero() {
		cp.ExpiresAt = now.Add(s.opts.ttl)
	}

	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[cp.ID] = &cp
	n := len(s.sessions)
	s.mu.Unlock()

	*sess = cp
	metrics.UpdateActiveSessions(n)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	defer observe(memoryBackend, "get", time.Now())
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(s.opts.now()) {
		s.mu.Lock()
		if cur, still := s.sessions[id]; still && cur == sess {
			delete(s.sessions, id)
			metrics.RecordSessionExpired(1)
		}
		n := len(s.sessions)
		s.mu.Unlock()
		metrics.UpdateActiveSessions(n)
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	defer observe(memoryBackend, "delete", time.Now())
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	if !ok || sess.Expired(s.opts.now()) {
		return ErrNotFound
	}
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	s.sweepLocked(s.opts.now())
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.UpdateActiveSessions(n)
	return n
}

// Close drops every session.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	metrics.UpdateActiveSessions(0)
	return nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	expired := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			expired++
		}
	}
	metrics.RecordSessionExpired(expired)
}
