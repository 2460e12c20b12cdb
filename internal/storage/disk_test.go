package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSized(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMeasureUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "records.db")
	writeSized(t, db, 5)
	writeSized(t, db+"-wal", 3)

	indexDir := filepath.Join(dir, "indices")
	writeSized(t, filepath.Join(indexDir, "quotes", "store", "a.zap"), 2)
	writeSized(t, filepath.Join(indexDir, "quotes", "index_meta.json"), 1)
	writeSized(t, filepath.Join(indexDir, "books", "index_meta.json"), 4)
	// Stray files next to the indices are not an index.
	writeSized(t, filepath.Join(indexDir, "README"), 100)

	u, err := MeasureUsage(db, indexDir)
	if err != nil {
		t.Fatal(err)
	}
	if u.Database != 8 {
		t.Errorf("Database = %d, want 8 (db + wal)", u.Database)
	}
	if u.Indices["quotes"] != 3 || u.Indices["books"] != 4 {
		t.Errorf("Indices = %v", u.Indices)
	}
	if len(u.Indices) != 2 {
		t.Errorf("expected 2 indices, got %v", u.Indices)
	}
	if u.Total() != 15 {
		t.Errorf("Total = %d, want 15", u.Total())
	}
}

func TestMeasureUsage_MissingAndInMemory(t *testing.T) {
	dir := t.TempDir()
	u, err := MeasureUsage(":memory:", filepath.Join(dir, "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if u.Total() != 0 {
		t.Errorf("Total = %d, want 0", u.Total())
	}

	u, err = MeasureUsage(filepath.Join(dir, "missing.db"), "")
	if err != nil {
		t.Fatal(err)
	}
	if u.Database != 0 || len(u.Indices) != 0 {
		t.Errorf("missing paths should count as zero: %+v", u)
	}
}
