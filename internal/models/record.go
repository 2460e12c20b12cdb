// Package models defines core data structures for records, search envelopes, and responses.
package models

import "time"

// Record is a persisted record belonging to a collection.
// Fields holds the record's own data; nothing transient is ever stored in it.
type Record struct {
	ID         string                 `json:"id" db:"id"`
	Collection string                 `json:"collection" db:"collection"`
	Fields     map[string]interface{} `json:"fields" db:"fields"`
	// Source is the import file the record came from, empty for records created through the API.
	Source    string    `json:"-" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecordInput is the input for creating or updating a record.
type RecordInput struct {
	ID     string                 `json:"id,omitempty"`
	Fields map[string]interface{} `json:"fields"`
	Source string                 `json:"-"`
}

// FetchOptions are forwarded untouched from the search caller to the record store.
type FetchOptions struct {
	// Select limits the returned fields to the named ones. Empty means all fields.
	Select []string `json:"select,omitempty"`
}
