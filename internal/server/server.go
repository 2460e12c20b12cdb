// Package server provides the HTTP API for hydra.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/config"
	"github.com/hyperjump/hydra/internal/metrics"
	"github.com/hyperjump/hydra/internal/search"
	"github.com/hyperjump/hydra/pkg/utils"
)

// WatchService manages the watched import directories. Implemented by *watcher.Watcher.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the hydra API.
type Server struct {
	client     *search.Client
	config     *config.Config
	logger     *zap.Logger
	watch      WatchService // nil when no watcher runs
	configPath string       // where import directory changes are persisted; empty to skip
	configMu   sync.Mutex
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	client *search.Client,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
) *Server {
	return &Server{
		client:     client,
		config:     cfg,
		logger:     utils.NewNopIfNil(logger),
		watch:      watch,
		configPath: configPath,
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/collections/{collection}", func(r chi.Router) {
			r.Post("/search", s.handleSearch)
			r.Post("/records", s.handleSaveRecord)
			r.Get("/records/{id}", s.handleGetRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)
			r.Post("/reindex", s.handleReindex)
		})
		r.Get("/status", s.handleStatus)
		r.Get("/import/directories", s.handleImportDirectoriesList)
		r.Post("/import/directories", s.handleImportDirectoriesAdd)
		r.Delete("/import/directories", s.handleImportDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
