package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"banjocap/internal/domain"
	"banjocap/internal/storage"
)

// TokenRecordStore is an in-memory implementation of storage.TokenRecordStore.
type TokenRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenRecord // keyed by lowercase address
}

// NewTokenRecordStore creates a new in-memory token record store.
func NewTokenRecordStore() *TokenRecordStore {
	return &TokenRecordStore{
		data: make(map[string]*domain.TokenRecord),
	}
}

// Put stores r, replacing any earlier record for the same address.
func (s *TokenRecordStore) Put(_ context.Context, r *domain.TokenRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	s.data[key(r.Address)] = r.Clone()
	return nil
}

// Get retrieves the record for address. Returns ErrNotFound if not exists.
func (s *TokenRecordStore) Get(_ context.Context, address string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[key(address)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// List returns all records, most recently fetched first.
func (s *TokenRecordStore) List(_ context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].FetchedAt.Equal(result[j].FetchedAt) {
			return result[i].FetchedAt.After(result[j].FetchedAt)
		}
		return result[i].Address < result[j].Address
	})

	return result, nil
}

func key(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

var _ storage.TokenRecordStore = (*TokenRecordStore)(nil)
