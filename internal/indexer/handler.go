package indexer

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/hydra/pkg/utils"
)

// FileHandler adapts the Indexer to watcher callbacks: changed files are re-imported,
// removed files lose their records. Errors are logged, not returned.
type FileHandler struct {
	indexer    *Indexer
	fallback   string
	extensions []string
	logger     *zap.Logger
}

// NewFileHandler returns a handler importing into the collection ResolveCollection picks,
// with fallback as the default collection.
func (idx *Indexer) NewFileHandler(fallback string, extensions []string, logger *zap.Logger) *FileHandler {
	return &FileHandler{indexer: idx, fallback: fallback, extensions: extensions, logger: utils.NewNopIfNil(logger)}
}

// ImportFile imports path.
func (h *FileHandler) ImportFile(path string) {
	ctx := context.Background()
	collection, err := h.indexer.ResolveCollection(path, h.fallback)
	if err != nil {
		h.logger.Warn("import skipped", zap.String("path", path), zap.Error(err))
		return
	}
	n, err := h.indexer.ImportFile(ctx, path, collection, h.extensions)
	if err != nil {
		h.logger.Error("import failed", zap.String("path", path), zap.Error(err))
		return
	}
	h.logger.Info("file imported", zap.String("path", path), zap.String("collection", collection), zap.Int("records", n))
}

// RemoveFile removes the records imported from path.
func (h *FileHandler) RemoveFile(path string) {
	n, err := h.indexer.RemoveFile(context.Background(), path)
	if err != nil {
		h.logger.Error("remove failed", zap.String("path", path), zap.Error(err))
		return
	}
	if n > 0 {
		h.logger.Info("file records removed", zap.String("path", path), zap.Int("records", n))
	}
}
