package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/config"
	"github.com/hyperjump/hydra/internal/hydrate"
	"github.com/hyperjump/hydra/internal/indexer"
	"github.com/hyperjump/hydra/internal/keyword"
	"github.com/hyperjump/hydra/internal/mapping"
	"github.com/hyperjump/hydra/internal/models"
	"github.com/hyperjump/hydra/internal/storage"
)

// Client bundles the record store, the collection indices and the services built on
// them. Callers create one per process (or per test) and pass it where it is needed.
type Client struct {
	Config   *config.Config
	Store    storage.Storage
	Indices  *keyword.Registry
	Hydrator *hydrate.Hydrator
	Engine   *Engine
	Indexer  *indexer.Indexer
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger handed to every component of the client.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient opens the record database and one index per declared collection, as
// configured in cfg.Storage.
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	indices, err := keyword.OpenRegistry(cfg.Storage.IndexDir, cfg.Collections)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open indices: %w", err)
	}
	c, err := NewClientWith(cfg, store, indices, opts...)
	if err != nil {
		_ = indices.Close()
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWith builds a client around an already opened store and registry.
func NewClientWith(cfg *config.Config, store storage.Storage, indices *keyword.Registry, opts ...ClientOption) (*Client, error) {
	c := &Client{Config: cfg, Store: store, Indices: indices}
	for _, opt := range opts {
		opt(c)
	}
	policy, err := hydrate.ParsePolicy(cfg.Search.MissingPolicy)
	if err != nil {
		return nil, err
	}

	hydrateOpts := []hydrate.Option{hydrate.WithPolicy(policy)}
	engineOpts := []EngineOption{}
	indexerOpts := []indexer.IndexerOption{}
	if c.logger != nil {
		hydrateOpts = append(hydrateOpts, hydrate.WithLogger(c.logger))
		engineOpts = append(engineOpts, WithLogger(c.logger))
		indexerOpts = append(indexerOpts, indexer.WithLogger(c.logger))
	}
	c.Hydrator = hydrate.New(store, hydrateOpts...)
	c.Engine = NewEngine(indices, c.Hydrator, &cfg.Search, engineOpts...)
	c.Indexer = indexer.NewIndexer(store, indices, nil, indexerOpts...)
	return c, nil
}

// Search runs query against its collection.
func (c *Client) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	if query.Collection == "" {
		return nil, fmt.Errorf("%w: collection is required", models.ErrInvalidQuery)
	}
	return c.Engine.Search(ctx, query.Collection, query)
}

// CollectionStatus describes one collection's store and index sizes.
type CollectionStatus struct {
	Name      string `json:"name"`
	Index     string `json:"index"`
	Type      string `json:"type"`
	Records   int64  `json:"records"`
	Documents uint64 `json:"documents"`
	// IndexBytes is the size of the index directory; zero for in-memory indices.
	IndexBytes int64 `json:"index_bytes,omitempty"`
}

// Status summarizes the client's collections and disk usage.
type Status struct {
	Records        int64              `json:"records"`
	Collections    []CollectionStatus `json:"collections"`
	DiskUsageBytes int64              `json:"disk_usage_bytes,omitempty"`
	DatabasePath   string             `json:"database_path"`
	IndexDir       string             `json:"index_dir"`
	MissingPolicy  string             `json:"missing_policy"`
}

// Status counts records and index documents per collection. Records and Documents
// differ when the index has drifted from the store; a reindex brings them back in line.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	total, err := c.Store.CountRecords(ctx, "")
	if err != nil {
		return nil, &models.StoreError{Op: "count", Err: err}
	}
	st := &Status{
		Records:       total,
		DatabasePath:  c.Config.Storage.DatabasePath,
		IndexDir:      c.Config.Storage.IndexDir,
		MissingPolicy: c.Config.Search.MissingPolicy,
	}
	for _, name := range c.Indices.Collections() {
		n, err := c.Store.CountRecords(ctx, name)
		if err != nil {
			return nil, &models.StoreError{Op: "count", Err: err}
		}
		cs := CollectionStatus{Name: name, Records: n}
		err = c.Indices.View(name, func(index keyword.KeywordIndex, _ *mapping.Collection) error {
			docs, err := index.DocCount()
			if err != nil {
				return &models.EngineError{Op: "count", Err: err}
			}
			cs.Index, cs.Type, cs.Documents = index.Name(), index.Type(), docs
			return nil
		})
		if err != nil {
			return nil, err
		}
		st.Collections = append(st.Collections, cs)
	}
	usage, err := storage.MeasureUsage(c.Config.Storage.DatabasePath, c.Config.Storage.IndexDir)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("disk usage unavailable", zap.Error(err))
		}
		return st, nil
	}
	st.DiskUsageBytes = usage.Total()
	for i := range st.Collections {
		st.Collections[i].IndexBytes = usage.Indices[st.Collections[i].Index]
	}
	return st, nil
}

// Close closes the indices and the store.
func (c *Client) Close() error {
	var firstErr error
	if c.Indices != nil {
		if err := c.Indices.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
