package fileid

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestFileID(t *testing.T) {
	id1 := FileID("/foo/records.json")
	id2 := FileID("/foo/records.json")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, prefix) {
		t.Errorf("ID should have prefix %q: got %q", prefix, id1)
	}
	if len(id1) != len(prefix)+16 {
		t.Errorf("unexpected ID length: %q", id1)
	}
}

func TestFileID_differentPaths(t *testing.T) {
	if FileID("/foo/a.json") == FileID("/foo/b.json") {
		t.Error("different paths should give different IDs")
	}
}

func TestFileID_normalized(t *testing.T) {
	id1 := FileID("/foo/bar")
	id2 := FileID("/foo/bar/")
	id3 := FileID("/foo/./bar")
	if id1 != id2 {
		t.Errorf("paths differing only by trailing slash should match: %q vs %q", id1, id2)
	}
	if id1 != id3 {
		t.Errorf("paths with . should normalize: %q vs %q", id1, id3)
	}
}

func TestRowID(t *testing.T) {
	abs, _ := filepath.Abs("records.xlsx")
	r0 := RowID(abs, 0)
	r1 := RowID(abs, 1)
	if r0 == r1 {
		t.Error("rows of one file need distinct IDs")
	}
	if r0 != FileID(abs)+"-0" {
		t.Errorf("RowID = %q", r0)
	}
	if RowID(abs, 1) != r1 {
		t.Error("RowID should be deterministic")
	}
}
