// Package keyword provides the full-text search engine: one bleve index per collection,
// returning ranked hit envelopes.
package keyword

import (
	"context"

	"github.com/hyperjump/hydra/internal/models"
)

// KeywordIndex defines search engine operations for one collection.
type KeywordIndex interface {
	Index(ctx context.Context, rec *models.Record) error
	// IndexBatch indexes many records in one engine batch.
	IndexBatch(ctx context.Context, recs []*models.Record) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	// Name is the index name reported in hit envelopes.
	Name() string
	// Type is the document type reported in hit envelopes.
	Type() string
	Close() error
}

// SearchRequest is one page of a search.
type SearchRequest struct {
	Query     models.Query
	From      int
	Size      int
	Highlight *models.HighlightOptions
}

// SearchResult is the engine's answer: the total match count and the page of envelopes
// in relevance order.
type SearchResult struct {
	Total     int
	MaxScore  float64
	Envelopes []*models.Envelope
}
