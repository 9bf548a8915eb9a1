package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the process-wide mapping from user id to conversation state.
// Nothing is persisted; sessions live until deleted or swept.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	locks    map[string]*userLock
	now      func() time.Time
	logger   *zap.Logger
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*State),
		locks:    make(map[string]*userLock),
		now:      time.Now,
		logger:   logger,
	}
}

// GetOrCreate returns the state for userID, creating an INIT record on first access
func (s *Store) GetOrCreate(userID string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[userID]
	if !ok {
		st = New(userID, s.now())
		s.sessions[userID] = st
	}
	return st
}

// Get returns the state for userID without creating one
func (s *Store) Get(userID string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[userID]
	return st, ok
}

// Delete removes the state for userID. Deleting a missing user is a no-op.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

// Touch records activity on a session for the idle sweeper
func (s *Store) Touch(st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.UpdatedAt = s.now()
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Lock serializes turns for a single user. The returned func releases the lock.
func (s *Store) Lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

// Sweep deletes sessions that have been idle for longer than idle and returns how many were removed
func (s *Store) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for id, st := range s.sessions {
		if _, busy := s.locks[id]; busy {
			continue
		}
		if st.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions every interval until ctx is cancelled
func (s *Store) StartJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(idle); n > 0 {
					s.logger.Info("swept idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
}
