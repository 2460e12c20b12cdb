package models

import (
	"fmt"
	"sort"
	"strings"
)

// QueryKind selects how the query text is matched.
type QueryKind string

const (
	QueryMatch       QueryKind = "match"
	QueryMatchPhrase QueryKind = "match_phrase"
	QueryString      QueryKind = "query_string"
	QueryFuzzy       QueryKind = "fuzzy"
	QueryMatchAll    QueryKind = "match_all"
)

// Query describes what to search for. It is deliberately small: the engine owns the query language.
type Query struct {
	Kind QueryKind `json:"kind,omitempty"`
	// Field restricts the query to one field; empty searches all indexed fields.
	Field string `json:"field,omitempty"`
	Text  string `json:"text,omitempty"`
	// Fuzziness is the max edit distance for fuzzy queries (1 or 2, default 1).
	Fuzziness int `json:"fuzziness,omitempty"`
}

// String renders the query as kind field:"text" for logs and responses.
func (q Query) String() string {
	if q.Kind == QueryMatchAll {
		return string(QueryMatchAll)
	}
	if q.Field == "" {
		return fmt.Sprintf("%s %q", q.Kind, q.Text)
	}
	return fmt.Sprintf("%s %s:%q", q.Kind, q.Field, q.Text)
}

// HighlightField is the per-field highlight configuration. Empty means engine defaults.
type HighlightField struct{}

// HighlightOptions requests highlight fragments for the listed fields.
type HighlightOptions struct {
	Fields map[string]HighlightField `json:"fields"`
	// Style is the fragment formatter ("html" or "ansi"). Empty uses the configured default.
	Style string `json:"style,omitempty"`
}

// FieldNames returns the highlighted field names in sorted order.
func (h *HighlightOptions) FieldNames() []string {
	if h == nil {
		return nil
	}
	names := make([]string, 0, len(h.Fields))
	for name := range h.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchQuery represents a search request with hydration options.
type SearchQuery struct {
	Collection string `json:"collection,omitempty"`
	Query      Query  `json:"query"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
	// Hydrate resolves hits to live records from the store.
	Hydrate bool `json:"hydrate,omitempty"`
	// HydrateWithESResults attaches each hit's envelope to its record. Requires Hydrate.
	HydrateWithESResults bool              `json:"hydrate_with_es_results,omitempty"`
	HydrateOptions       *FetchOptions     `json:"hydrate_options,omitempty"`
	Highlight            *HighlightOptions `json:"highlight,omitempty"`
}

// Validate ensures the search query is well formed and applies limit defaults.
// defaultLimit is used when Limit is unset; maxLimit caps it.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query.Kind == "" {
		q.Query.Kind = QueryMatch
	}
	switch q.Query.Kind {
	case QueryMatch, QueryMatchPhrase, QueryString, QueryFuzzy:
		if strings.TrimSpace(q.Query.Text) == "" {
			return fmt.Errorf("%w: query text cannot be empty", ErrInvalidQuery)
		}
	case QueryMatchAll:
	default:
		return fmt.Errorf("%w: unknown query kind %q", ErrInvalidQuery, q.Query.Kind)
	}
	if q.HydrateWithESResults && !q.Hydrate {
		return fmt.Errorf("%w: hydrate_with_es_results requires hydrate", ErrInvalidQuery)
	}
	if q.Offset < 0 {
		return fmt.Errorf("%w: offset cannot be negative", ErrInvalidQuery)
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
