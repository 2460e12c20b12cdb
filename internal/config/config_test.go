package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/hydra/internal/mapping"
)

const quotesCollection = `
collections:
  - name: esResultText
    fields:
      - name: title
        type: text
      - name: quote
        type: text
        analyzer: standard
      - name: year
        type: number
        store: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
search:
  missing_policy: fail
`+quotesCollection)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Search.MissingPolicy != "fail" {
		t.Errorf("missing_policy = %q", cfg.Search.MissingPolicy)
	}
	c, ok := cfg.Collection("esResultText")
	if !ok {
		t.Fatal("collection should be declared")
	}
	if len(c.Fields) != 3 || c.Fields[2].StoreOrDefault() {
		t.Errorf("fields not parsed: %+v", c.Fields)
	}
	if cfg.Import.DefaultCollection != "esResultText" {
		t.Errorf("single collection should be the default import collection, got %q", cfg.Import.DefaultCollection)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/records.db"
  index_dir: "./data/indices"
import:
  directories: ["./dev/sample"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "records.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if cfg.Storage.IndexDir != filepath.Join(dir, "data", "indices") {
		t.Errorf("index_dir = %s", cfg.Storage.IndexDir)
	}
	if len(cfg.Import.Directories) != 1 {
		t.Fatalf("import directories: got %d", len(cfg.Import.Directories))
	}
	wantImport := filepath.Join(dir, "dev", "sample")
	if cfg.Import.Directories[0] != wantImport {
		t.Errorf("import directory = %s, want %s", cfg.Import.Directories[0], wantImport)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [\n"},
		{"bad policy", "search:\n  missing_policy: ignore\n"},
		{"bad highlight style", "search:\n  highlight_style: bold\n"},
		{"field without type", "collections:\n  - name: c\n    fields:\n      - name: a\n"},
		{"unknown default collection", quotesCollection + "import:\n  default_collection: nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate_duplicateCollection(t *testing.T) {
	c := mapping.Collection{Name: "c", Fields: []mapping.Field{{Name: "a", Type: mapping.FieldText}}}
	cfg := &Config{Collections: []mapping.Collection{c, c}}
	if err := cfg.Validate(); err == nil {
		t.Error("duplicate collections should be rejected")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("default limits: got %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Search.MissingPolicy != "omit" {
		t.Errorf("default missing_policy: got %q, want omit", cfg.Search.MissingPolicy)
	}
	if cfg.Search.HighlightStyle != "html" {
		t.Errorf("default highlight_style: got %q", cfg.Search.HighlightStyle)
	}
	if len(cfg.Import.Extensions) != 4 || cfg.Import.Extensions[0] != ".json" || cfg.Import.Extensions[3] != ".xlsx" {
		t.Errorf("import extensions: got %v", cfg.Import.Extensions)
	}
	if cfg.Import.Recursive != nil {
		t.Error("recursive stays unset without directories")
	}
}

func TestApplyDefaults_ImportRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Import: ImportConfig{Directories: []string{"/tmp/records"}}}
	ApplyDefaults(cfg)
	if cfg.Import.Recursive == nil || !*cfg.Import.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestImportConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &ImportConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &ImportConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db", IndexDir: "/tmp/idx"},
		Collections: []mapping.Collection{
			{Name: "books", Fields: []mapping.Field{{Name: "title", Type: mapping.FieldText}}},
		},
		Import: ImportConfig{Directories: []string{"/tmp/records"}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if _, ok := loaded.Collection("books"); !ok {
		t.Error("collections should survive a save")
	}
	if len(loaded.Import.Directories) != 1 || loaded.Import.Directories[0] != "/tmp/records" {
		t.Errorf("import directories: got %v", loaded.Import.Directories)
	}
}
