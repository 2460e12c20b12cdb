package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/hydra/internal/models"
)

func TestSQLiteStorage_CRUD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	rec := &models.Record{
		ID:         "r1",
		Collection: "quotes",
		Fields:     map[string]interface{}{"title": "Mort", "year": 1987},
	}
	if err := store.CreateRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if err := store.CreateRecord(ctx, rec); err == nil {
		t.Error("expected error creating a duplicate record")
	}

	got, err := store.GetRecord(ctx, "quotes", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields["title"] != "Mort" {
		t.Errorf("got %+v", got)
	}
	if got.Fields["year"] != float64(1987) {
		t.Errorf("numbers round-trip as float64, got %T %v", got.Fields["year"], got.Fields["year"])
	}

	rec.Fields["title"] = "Mort (1987)"
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRecord(ctx, "quotes", "r1")
	if got.Fields["title"] != "Mort (1987)" {
		t.Errorf("expected updated title, got %v", got.Fields["title"])
	}

	list, err := store.ListRecords(ctx, "quotes", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 record, got %d", len(list))
	}

	if err := store.DeleteRecord(ctx, "quotes", "r1"); err != nil {
		t.Fatal(err)
	}
	_, err = store.GetRecord(ctx, "quotes", "r1")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_UpsertInsertsNew(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	rec := &models.Record{ID: "n1", Collection: "c", Fields: map[string]interface{}{"a": "b"}}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be returned by upsert")
	}
	n, _ := store.CountRecords(ctx, "c")
	if n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestSQLiteStorage_FetchByIDs(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.CreateRecord(ctx, &models.Record{
			ID: id, Collection: "quotes",
			Fields: map[string]interface{}{"title": "T-" + id, "quote": "Q-" + id},
		}); err != nil {
			t.Fatal(err)
		}
	}
	// Same id in another collection must not leak into the result.
	_ = store.CreateRecord(ctx, &models.Record{ID: "a", Collection: "other", Fields: map[string]interface{}{"x": 1}})

	got, err := store.FetchByIDs(ctx, "quotes", []string{"c", "a", "missing"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got["a"].Fields["title"] != "T-a" || got["c"].Fields["title"] != "T-c" {
		t.Errorf("unexpected records: %+v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing id should be absent")
	}

	projected, err := store.FetchByIDs(ctx, "quotes", []string{"b"}, &models.FetchOptions{Select: []string{"title"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(projected["b"].Fields) != 1 || projected["b"].Fields["title"] != "T-b" {
		t.Errorf("projection not applied: %+v", projected["b"].Fields)
	}

	empty, err := store.FetchByIDs(ctx, "quotes", nil, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty ids: %v, %v", empty, err)
	}
}

func TestSQLiteStorage_FetchByIDsCancelledContext(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.FetchByIDs(ctx, "quotes", []string{"a"}, nil); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestSQLiteStorage_Sources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	_ = store.CreateRecord(ctx, &models.Record{ID: "1", Collection: "c", Source: "/data/a.json", Fields: map[string]interface{}{}})
	_ = store.CreateRecord(ctx, &models.Record{ID: "2", Collection: "c", Source: "/data/a.json", Fields: map[string]interface{}{}})
	_ = store.CreateRecord(ctx, &models.Record{ID: "3", Collection: "c", Source: "/data/b.json", Fields: map[string]interface{}{}})

	list, err := store.ListRecordsBySource(ctx, "/data/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Source != "/data/a.json" {
		t.Errorf("ListRecordsBySource: %+v", list)
	}
	n, err := store.DeleteRecordsBySource(ctx, "/data/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if _, err := store.DeleteRecordsBySource(ctx, ""); err == nil {
		t.Error("empty source should be rejected")
	}
	total, _ := store.CountRecords(ctx, "")
	if total != 1 {
		t.Errorf("expected 1 record left, got %d", total)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	n, err := store.CountRecords(ctx, "quotes")
	if err != nil || n != 0 {
		t.Errorf("CountRecords: %v, %d", err, n)
	}
	_ = store.CreateRecord(ctx, &models.Record{ID: "x", Collection: "quotes", Fields: nil})
	_ = store.CreateRecord(ctx, &models.Record{ID: "y", Collection: "books", Fields: nil})
	n, _ = store.CountRecords(ctx, "quotes")
	if n != 1 {
		t.Errorf("expected 1 quote, got %d", n)
	}
	n, _ = store.CountRecords(ctx, "")
	if n != 2 {
		t.Errorf("expected 2 records overall, got %d", n)
	}
}
