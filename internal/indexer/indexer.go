// Package indexer keeps the record store and the search indices in sync: saving and
// removing records, rebuilding a collection's index, and importing record files.
package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/extract"
	"github.com/hyperjump/hydra/internal/keyword"
	"github.com/hyperjump/hydra/internal/models"
	"github.com/hyperjump/hydra/internal/storage"
)

const defaultReindexPageSize = 500

// Indexer writes records to storage and to their collection's search index.
type Indexer struct {
	storage   storage.Storage
	indices   *keyword.Registry
	extractor *extract.Extractor
	logger    *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (record saved, file imported, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil, in which case a default one is used for file imports.
func NewIndexer(storage storage.Storage, indices *keyword.Registry, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		storage:   storage,
		indices:   indices,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// SaveRecord creates or replaces a record in the store and indexes it. A missing id is
// generated. The search index only sees the record once the store write succeeded.
func (idx *Indexer) SaveRecord(ctx context.Context, collection string, input *models.RecordInput) (*models.Record, error) {
	c, err := idx.indices.Collection(collection)
	if err != nil {
		return nil, err
	}
	if input.Fields == nil {
		return nil, fmt.Errorf("%w: fields are required", models.ErrInvalidRecord)
	}
	fields, err := NormalizeFields(c, input.Fields)
	if err != nil {
		return nil, err
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	rec := &models.Record{
		ID:         input.ID,
		Collection: collection,
		Fields:     fields,
		Source:     input.Source,
	}
	if err := idx.storage.UpsertRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store record: %w", &models.StoreError{Op: "upsert", Err: err})
	}
	if err := idx.indices.Update(collection, func(index keyword.KeywordIndex) error {
		return index.Index(ctx, rec)
	}); err != nil {
		return nil, fmt.Errorf("failed to index record: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer record saved", zap.String("collection", collection), zap.String("id", rec.ID))
	}
	return rec, nil
}

// DeleteRecord removes a record from the index and the store.
// Returns models.ErrNotFound (wrapped) when the record does not exist.
func (idx *Indexer) DeleteRecord(ctx context.Context, collection, id string) error {
	if _, err := idx.indices.Collection(collection); err != nil {
		return err
	}
	if _, err := idx.storage.GetRecord(ctx, collection, id); err != nil {
		return err
	}
	if err := idx.indices.Update(collection, func(index keyword.KeywordIndex) error {
		return index.Delete(ctx, id)
	}); err != nil {
		return fmt.Errorf("failed to delete from index: %w", err)
	}
	if err := idx.storage.DeleteRecord(ctx, collection, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", &models.StoreError{Op: "delete", Err: err})
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer record deleted", zap.String("collection", collection), zap.String("id", id))
	}
	return nil
}

// Reindex rebuilds the collection's index from the store, pageSize records per engine
// batch. The new index is filled beside the live one, which keeps serving searches until
// the rebuilt index replaces it. Saves and deletes of the collection wait for the swap.
// On failure the live index is kept. Returns the number of records indexed.
func (idx *Indexer) Reindex(ctx context.Context, collection string, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = defaultReindexPageSize
	}
	rb, err := idx.indices.BeginRebuild(collection)
	if err != nil {
		return 0, err
	}
	n, err := idx.fill(ctx, collection, rb.Index(), pageSize)
	if err != nil {
		_ = rb.Abort()
		return 0, err
	}
	if err := rb.Commit(); err != nil {
		return 0, &models.EngineError{Op: "reindex", Err: err}
	}
	if idx.logger != nil {
		idx.logger.Info("indexer collection reindexed", zap.String("collection", collection), zap.Int("records", n))
	}
	return n, nil
}

func (idx *Indexer) fill(ctx context.Context, collection string, index keyword.KeywordIndex, pageSize int) (int, error) {
	n := 0
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		recs, err := idx.storage.ListRecords(ctx, collection, offset, pageSize)
		if err != nil {
			return n, fmt.Errorf("failed to list records: %w", &models.StoreError{Op: "list", Err: err})
		}
		if err := index.IndexBatch(ctx, recs); err != nil {
			return n, fmt.Errorf("failed to index records: %w", err)
		}
		n += len(recs)
		if len(recs) < pageSize {
			return n, nil
		}
	}
}
