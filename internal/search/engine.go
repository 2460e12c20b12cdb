// Package search runs searches against the engine and assembles responses, hydrating
// hits from the record store when asked to.
package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/config"
	"github.com/hyperjump/hydra/internal/hydrate"
	"github.com/hyperjump/hydra/internal/keyword"
	"github.com/hyperjump/hydra/internal/mapping"
	"github.com/hyperjump/hydra/internal/metrics"
	"github.com/hyperjump/hydra/internal/models"
)

// Engine runs a search and optionally hydrates the hits.
type Engine struct {
	indices  *keyword.Registry
	hydrator *hydrate.Hydrator
	config   *config.SearchConfig
	logger   *zap.Logger // optional
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(indices *keyword.Registry, hydrator *hydrate.Hydrator, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		indices:  indices,
		hydrator: hydrator,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search queries the collection's index and builds the response. When query.Hydrate is
// set, hits are resolved to live records with a single store fetch; otherwise the store
// is not touched.
func (e *Engine) Search(ctx context.Context, collection string, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}
	var result *keyword.SearchResult
	err := e.indices.View(collection, func(index keyword.KeywordIndex, _ *mapping.Collection) error {
		var searchErr error
		result, searchErr = index.Search(ctx, &keyword.SearchRequest{
			Query:     query.Query,
			From:      query.Offset,
			Size:      query.Limit,
			Highlight: query.Highlight,
		})
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	if e.logger != nil {
		e.logger.Debug("search",
			zap.String("collection", collection),
			zap.Stringer("query", query.Query),
			zap.Int("total", result.Total),
			zap.Int("page", len(result.Envelopes)),
			zap.Bool("hydrate", query.Hydrate))
	}

	var resp *models.SearchResponse
	if !query.Hydrate {
		resp, err = BuildResponse(result.Total, result.Envelopes, nil)
	} else {
		var hydrated *hydrate.Result
		hydrated, err = e.hydrator.Hydrate(ctx, collection, result.Envelopes, hydrate.Options{
			Enrich: query.HydrateWithESResults,
			Fetch:  query.HydrateOptions,
		})
		if err != nil {
			return nil, err
		}
		resp, err = BuildResponse(result.Total, hydrated.Envelopes, hydrated.Records)
		if resp != nil {
			resp.Missing = hydrated.Missing
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build response: %w", err)
	}

	elapsed := time.Since(startTime)
	metrics.SearchDuration.WithLabelValues(collection, strconv.FormatBool(query.Hydrate)).Observe(elapsed.Seconds())
	resp.QueryTime = elapsed.Milliseconds()
	resp.Query = query.Query.String()
	return resp, nil
}
