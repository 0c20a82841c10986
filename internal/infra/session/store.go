// Package session keeps each user session's result set in memory. A session
// owns exactly one result set, which is replaced wholesale by every full
// batch run.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("session has a batch in flight")
)

type state struct {
	createdAt time.Time
	results   []analysis.Result
	busy      bool
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// Create registers a new session and returns its id.
func (s *Store) Create() string {
	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = &state{createdAt: time.Now()}
	s.mu.Unlock()
	return id
}

// Results returns a copy of the session's current result set.
func (s *Store) Results(id string) ([]analysis.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]analysis.Result, len(st.results))
	copy(out, st.results)
	return out, nil
}

// Replace swaps the session's result set. Earlier results are discarded, not
// merged.
func (s *Store) Replace(id string, results []analysis.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	st.results = results
	return nil
}

// Begin marks the session as having a batch in flight. Overlapping batch
// submissions for one session are rejected rather than raced.
func (s *Store) Begin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if st.busy {
		return ErrBusy
	}
	st.busy = true
	return nil
}

// End clears the in-flight mark.
func (s *Store) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok {
		st.busy = false
	}
}
