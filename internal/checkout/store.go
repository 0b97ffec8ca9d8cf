package checkout

import (
	"context"
	"sync"
	"time"

	"bookpay-be/internal/booking"
	"bookpay-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

type entry struct {
	orch     *Orchestrator
	lastSeen time.Time
}

// Store keeps live sessions in memory. A session untouched for longer than
// the TTL is evicted by Sweep.
type Store struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewStore(deps Deps, ttl time.Duration) *Store {
	return &Store{
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a session for b owned by clientID.
func (s *Store) Create(clientID string, b booking.Booking) *Orchestrator {
	orch := NewOrchestrator(uuid.NewString(), clientID, b, s.deps)

	s.mu.Lock()
	s.sessions[orch.ID()] = &entry{orch: orch, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.setActive(n)
	return orch
}

func (s *Store) Get(id string) (*Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.orch, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	s.setActive(n)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if s.now().Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.setActive(n)
	return removed
}

// Run sweeps periodically until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.L().Info("Evicted expired checkout sessions", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) setActive(n int) {
	if m := s.deps.Metrics; m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}
