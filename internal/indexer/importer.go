package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/extract"
	"github.com/hyperjump/hydra/internal/fileid"
	"github.com/hyperjump/hydra/internal/keyword"
	"github.com/hyperjump/hydra/internal/models"
)

// idField is the row field that, when present, becomes the record id.
const idField = "id"

// ResolveCollection returns the collection an import file belongs to: its parent directory
// name when that names a declared collection, otherwise fallback.
func (idx *Indexer) ResolveCollection(path, fallback string) (string, error) {
	parent := filepath.Base(filepath.Dir(path))
	if _, err := idx.indices.Collection(parent); err == nil {
		return parent, nil
	}
	if fallback == "" {
		return "", fmt.Errorf("%w: no collection for %s", models.ErrUnknownCollection, path)
	}
	if _, err := idx.indices.Collection(fallback); err != nil {
		return "", err
	}
	return fallback, nil
}

// ImportFile reads the records of an import file and saves them into collection. Records
// previously imported from the same file are removed first, so re-importing a file
// replaces its records. Rows with an "id" field keep that id; others get a stable id
// derived from the path and row number. If allowedExts is non-empty, the file's extension
// must be in the list (case-insensitive). Returns the number of records imported.
//
// Every row is checked against the collection's mapping before anything is removed, so a
// file with an invalid row leaves the previous import in place. A store or index failure
// while saving can still leave the file partially imported; importing it again repairs it.
func (idx *Indexer) ImportFile(ctx context.Context, path, collection string, allowedExts []string) (int, error) {
	if idx.logger != nil {
		idx.logger.Debug("indexer importing file", zap.String("path", path), zap.String("collection", collection))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	c, err := idx.indices.Collection(collection)
	if err != nil {
		return 0, err
	}
	rows, err := idx.extractor.Extract(absPath)
	if err != nil {
		return 0, fmt.Errorf("extract records: %w", err)
	}
	inputs := make([]*models.RecordInput, len(rows))
	for i, row := range rows {
		input := &models.RecordInput{
			ID:     fileid.RowID(absPath, i),
			Fields: make(map[string]interface{}, len(row)),
			Source: absPath,
		}
		for k, v := range row {
			if k == idField {
				if id := fmt.Sprint(v); id != "" {
					input.ID = id
				}
				continue
			}
			input.Fields[k] = v
		}
		if input.Fields, err = NormalizeFields(c, input.Fields); err != nil {
			return 0, fmt.Errorf("row %d of %s: %w", i+1, absPath, err)
		}
		inputs[i] = input
	}
	if _, err := idx.RemoveFile(ctx, absPath); err != nil {
		return 0, err
	}

	n := 0
	for i, input := range inputs {
		if _, err := idx.SaveRecord(ctx, collection, input); err != nil {
			return n, fmt.Errorf("row %d of %s: %w", i+1, absPath, err)
		}
		n++
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file imported", zap.String("path", absPath), zap.Int("records", n))
	}
	return n, nil
}

// ImportDirectory walks dir recursively and imports each regular file whose extension is
// in allowedExts (if non-empty; otherwise every supported format). Each file goes to the
// collection ResolveCollection picks. Returns the number of records imported and the
// first error encountered, if any.
func (idx *Indexer) ImportDirectory(ctx context.Context, dir, fallback string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !extract.Supported(ext) || (len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts)) {
			return nil
		}
		// Resolve symlinks so we only import regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		collection, resolveErr := idx.ResolveCollection(path, fallback)
		if resolveErr != nil {
			return resolveErr
		}
		count, importErr := idx.ImportFile(ctx, path, collection, allowedExts)
		n += count
		return importErr
	})
	return n, err
}

// RemoveFile deletes every record imported from path, from the indices and the store.
// Returns the number of records removed.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	recs, err := idx.storage.ListRecordsBySource(ctx, absPath)
	if err != nil {
		return 0, fmt.Errorf("failed to list records: %w", &models.StoreError{Op: "list", Err: err})
	}
	if len(recs) == 0 {
		return 0, nil
	}
	for _, rec := range recs {
		id := rec.ID
		err := idx.indices.Update(rec.Collection, func(index keyword.KeywordIndex) error {
			return index.Delete(ctx, id)
		})
		if errors.Is(err, models.ErrUnknownCollection) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to delete from index: %w", err)
		}
	}
	removed, err := idx.storage.DeleteRecordsBySource(ctx, absPath)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", &models.StoreError{Op: "delete", Err: err})
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file records removed", zap.String("path", absPath), zap.Int64("records", removed))
	}
	return int(removed), nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
