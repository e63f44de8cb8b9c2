package account

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*Account
	byUsername map[string]string // username -> id
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*Account),
		byUsername: make(map[string]string),
	}
}

// Create inserts a, enforcing username uniqueness under the write lock.
func (s *MemoryStore) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[a.Username]; taken {
		return ErrDuplicateUsername
	}
	cp := *a
	s.byID[a.ID] = &cp
	s.byUsername[a.Username] = a.ID
	return nil
}

// GetByUsername looks up an account by exact username.
func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// GetByID looks up an account by ID.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// List returns summaries ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*Account, 0, len(s.byID))
	for _, a := range s.byID {
		accounts = append(accounts, a)
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].Username < accounts[j].Username
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	result := make([]Summary, len(accounts))
	for i, a := range accounts {
		result[i] = a.Summary()
	}
	return result, nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
