package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/hydra/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		fields TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(collection, created_at);
	CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);
	`
	_, err := db.Exec(schema)
	return err
}

const recordColumns = `collection, id, fields, source, created_at, updated_at`

// CreateRecord inserts a record. It fails if the record already exists.
func (s *SQLiteStorage) CreateRecord(ctx context.Context, rec *models.Record) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Collection, rec.ID, string(fieldsJSON), rec.Source, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// UpsertRecord inserts a record or replaces the fields of an existing one, keeping its creation time.
func (s *SQLiteStorage) UpsertRecord(ctx context.Context, rec *models.Record) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	now := time.Now()
	rec.UpdatedAt = now

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET
			fields = excluded.fields,
			source = excluded.source,
			updated_at = excluded.updated_at
		 RETURNING created_at`,
		rec.Collection, rec.ID, string(fieldsJSON), rec.Source, now, now,
	).Scan(&rec.CreatedAt)
	return err
}

// GetRecord returns a record by collection and id.
func (s *SQLiteStorage) GetRecord(ctx context.Context, collection, id string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection = ? AND id = ?`, collection, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s/%s: %w", collection, id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FetchByIDs returns the records of collection with the given ids in one query.
// Missing ids are simply absent from the result. opts.Select projects the record fields.
func (s *SQLiteStorage) FetchByIDs(ctx context.Context, collection string, ids []string, opts *models.FetchOptions) (map[string]*models.Record, error) {
	out := make(map[string]*models.Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if opts != nil && len(opts.Select) > 0 {
			rec.Fields = project(rec.Fields, opts.Select)
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	return out, nil
}

// DeleteRecord removes a record. Deleting a missing record is not an error.
func (s *SQLiteStorage) DeleteRecord(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	return err
}

// ListRecords returns records of a collection in creation order with offset and limit.
func (s *SQLiteStorage) ListRecords(ctx context.Context, collection string, offset, limit int) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE collection = ?
		 ORDER BY created_at, id LIMIT ? OFFSET ?`,
		collection, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListRecordsBySource returns all records imported from source.
func (s *SQLiteStorage) ListRecordsBySource(ctx context.Context, source string) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE source = ? ORDER BY collection, id`, source,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// DeleteRecordsBySource removes all records imported from source and returns how many were removed.
func (s *SQLiteStorage) DeleteRecordsBySource(ctx context.Context, source string) (int64, error) {
	if source == "" {
		return 0, fmt.Errorf("source cannot be empty")
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountRecords returns the number of records in collection, or in all collections when it is empty.
func (s *SQLiteStorage) CountRecords(ctx context.Context, collection string) (int64, error) {
	var count int64
	if collection == "" {
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
		return count, err
	}
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, collection).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var rec models.Record
	var fieldsJSON string
	if err := row.Scan(&rec.Collection, &rec.ID, &fieldsJSON, &rec.Source, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*models.Record, error) {
	var recs []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func project(fields map[string]interface{}, keep []string) map[string]interface{} {
	out := make(map[string]interface{}, len(keep))
	for _, k := range keep {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}
