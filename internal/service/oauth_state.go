package service

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// GenerateState returns a secure random hex string of length 2*n (n bytes).
func GenerateState(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// StateStore holds one-time OAuth CSRF states with a TTL.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]time.Time), now: time.Now}
}

// Create registers a state that stays valid for ttl.
func (s *StateStore) Create(state string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// prune expired entries while we hold the lock
	for k, exp := range s.states {
		if exp.Before(now) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(ttl)
}

// Consume removes the state and reports whether it was present and
// unexpired. States are one-time use.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return exp.After(s.now())
}
