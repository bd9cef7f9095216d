package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no token pair is stored for a portal.
var ErrNotFound = errors.New("store: token pair not found")

// TokenPair is the persisted OAuth credential for one portal.
type TokenPair struct {
	PortalID     string    `json:"portal_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
}

// TokenStore persists token pairs keyed by portal id. Implementations
// must be safe for concurrent use.
type TokenStore interface {
	// Upsert stores or replaces the pair for pair.PortalID.
	Upsert(ctx context.Context, pair TokenPair) error
	// Get returns the pair for a portal, or ErrNotFound.
	Get(ctx context.Context, portalID string) (*TokenPair, error)
	// Delete removes the pair for a portal. Deleting an absent pair is
	// not an error.
	Delete(ctx context.Context, portalID string) error
}

// MemoryStore is the in-process TokenStore. Pairs live only as long as
// the process; suitable for single-worker deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[string]TokenPair
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[string]TokenPair)}
}

func (s *MemoryStore) Upsert(_ context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[pair.PortalID] = pair
	return nil
}

func (s *MemoryStore) Get(_ context.Context, portalID string) (*TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pair, ok := s.pairs[portalID]
	if !ok {
		return nil, ErrNotFound
	}
	return &pair, nil
}

func (s *MemoryStore) Delete(_ context.Context, portalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pairs, portalID)
	return nil
}
