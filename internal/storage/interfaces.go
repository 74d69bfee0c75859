package storage

import (
	"context"

	"banjocap/internal/domain"
)

// TokenRecordStore keeps the latest analysis result per token address.
type TokenRecordStore interface {
	// Put stores r, replacing any earlier record for the same address
	// (case-insensitive). Returns ErrInvalidInput for a nil record or empty address.
	Put(ctx context.Context, r *domain.TokenRecord) error

	// Get retrieves the record for address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.TokenRecord, error)

	// List returns all records, most recently fetched first.
	List(ctx context.Context) ([]*domain.TokenRecord, error)
}

// ScanStore keeps terminated scans by scan id.
type ScanStore interface {
	// Insert adds a terminated scan. Returns ErrDuplicateKey if the scan id exists.
	Insert(ctx context.Context, s *domain.ScanState) error

	// GetByID retrieves a scan. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, scanID string) (*domain.ScanState, error)

	// Latest returns the most recently started scan. Returns ErrNotFound if none.
	Latest(ctx context.Context) (*domain.ScanState, error)

	// List returns all scans, most recently started first.
	List(ctx context.Context) ([]*domain.ScanState, error)
}
