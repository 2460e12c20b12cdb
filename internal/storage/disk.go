package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to the database in WAL mode.
var sqliteSidecars = []string{"", "-wal", "-shm", "-journal"}

// Usage is the on-disk footprint of the record database and the search indices.
type Usage struct {
	Database int64
	// Indices maps index directory name to its size.
	Indices map[string]int64
}

// Total returns the combined size of the database and every index.
func (u *Usage) Total() int64 {
	total := u.Database
	for _, n := range u.Indices {
		total += n
	}
	return total
}

// MeasureUsage sizes the database at databasePath (with its SQLite sidecar files) and
// each index directory directly under indexDir. In-memory databases and missing paths
// count as zero.
func MeasureUsage(databasePath, indexDir string) (*Usage, error) {
	u := &Usage{Indices: map[string]int64{}}
	if databasePath != "" && databasePath != ":memory:" {
		for _, suffix := range sqliteSidecars {
			n, err := pathSize(databasePath + suffix)
			if err != nil {
				return nil, err
			}
			u.Database += n
		}
	}
	if indexDir == "" {
		return u, nil
	}
	entries, err := os.ReadDir(indexDir)
	if errors.Is(err, fs.ErrNotExist) {
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := pathSize(filepath.Join(indexDir, e.Name()))
		if err != nil {
			return nil, err
		}
		u.Indices[e.Name()] = n
	}
	return u, nil
}

// pathSize returns the size of a file, or the summed size of the files under a directory.
func pathSize(p string) (int64, error) {
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
