// Package extract decodes record import files into rows of field values.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Row is one record's fields as read from an import file.
type Row map[string]interface{}

// Extractor decodes import files into rows.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) is an import format.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".json", ".yaml", ".yml", ".xlsx":
		return true
	}
	return false
}

// Extract reads the file at path and returns its rows in file order.
func (e *Extractor) Extract(path string) ([]Row, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes decodes content based on the given extension.
// ext should include the leading dot (e.g. ".json").
//   - .json: an array of objects, or an object with a "records" array
//   - .yaml, .yml: a list of maps, or a map with a "records" list
//   - .xlsx: the first sheet; the first row names the fields
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]Row, error) {
	var (
		rows []Row
		err  error
	)
	switch strings.ToLower(ext) {
	case ".json":
		rows, err = extractJSON(content)
	case ".yaml", ".yml":
		rows, err = extractYAML(content)
	case ".xlsx":
		rows, err = extractExcel(content)
	default:
		return nil, fmt.Errorf("unsupported import format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		rows[i] = cleanRow(row)
	}
	return rows, nil
}
