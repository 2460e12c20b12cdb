// Package storage defines the persistence interface for records.
package storage

import (
	"context"

	"github.com/hyperjump/hydra/internal/models"
)

// Fetcher batch-fetches records by id. It is the only store capability hydration needs.
type Fetcher interface {
	// FetchByIDs returns the records of collection whose ids are in ids, keyed by id.
	// Ids with no record are absent from the map. Implementations must use a single round trip.
	FetchByIDs(ctx context.Context, collection string, ids []string, opts *models.FetchOptions) (map[string]*models.Record, error)
}

// Storage defines record persistence operations.
type Storage interface {
	Fetcher

	CreateRecord(ctx context.Context, rec *models.Record) error
	UpsertRecord(ctx context.Context, rec *models.Record) error
	GetRecord(ctx context.Context, collection, id string) (*models.Record, error)
	DeleteRecord(ctx context.Context, collection, id string) error
	ListRecords(ctx context.Context, collection string, offset, limit int) ([]*models.Record, error)

	// Import bookkeeping
	ListRecordsBySource(ctx context.Context, source string) ([]*models.Record, error)
	DeleteRecordsBySource(ctx context.Context, source string) (int64, error)

	// Stats
	CountRecords(ctx context.Context, collection string) (int64, error)

	Close() error
}
