package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrUnknownCollection signals a collection with no declared mapping.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidRecord signals record fields that do not fit the collection's mapping.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrNotFoundDivergence signals search hits whose records are missing from the store.
	ErrNotFoundDivergence = errors.New("search hits reference missing records")
)

// StoreError wraps a record store failure (connectivity, timeout, malformed query).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// EngineError wraps a search engine failure.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
