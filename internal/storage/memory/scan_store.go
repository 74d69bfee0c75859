package memory

import (
	"context"
	"sort"
	"sync"

	"banjocap/internal/domain"
	"banjocap/internal/storage"
)

// ScanStore is an in-memory implementation of storage.ScanStore.
type ScanStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScanState // keyed by scan_id
}

// NewScanStore creates a new in-memory scan store.
func NewScanStore() *ScanStore {
	return &ScanStore{
		data: make(map[string]*domain.ScanState),
	}
}

// Insert adds a terminated scan. Returns ErrDuplicateKey if the scan id exists.
func (s *ScanStore) Insert(_ context.Context, st *domain.ScanState) error {
	if st == nil || st.ScanID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.ScanID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[st.ScanID] = st.Snapshot()
	return nil
}

// GetByID retrieves a scan. Returns ErrNotFound if not exists.
func (s *ScanStore) GetByID(_ context.Context, scanID string) (*domain.ScanState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[scanID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return st.Snapshot(), nil
}

// Latest returns the most recently started scan. Returns ErrNotFound if none.
func (s *ScanStore) Latest(ctx context.Context) (*domain.ScanState, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[0], nil
}

// List returns all scans, most recently started first.
func (s *ScanStore) List(ctx context.Context) ([]*domain.ScanState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScanState, 0, len(s.data))
	for _, st := range s.data {
		result = append(result, st.Snapshot())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].ScanID < result[j].ScanID
	})

	return result, nil
}

var _ storage.ScanStore = (*ScanStore)(nil)
