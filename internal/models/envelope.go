package models

// Envelope is a single search hit as returned by the search engine, before it is
// resolved against the record store.
type Envelope struct {
	ID     string                 `json:"_id"`
	Index  string                 `json:"_index"`
	Type   string                 `json:"_type"`
	Score  float64                `json:"_score"`
	Source map[string]interface{} `json:"_source"`
	// Highlight maps field name to emphasized fragments. Nil when highlighting was not requested.
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// HydratedRecord wraps a record resolved from a search hit.
// ESResult is transient: it is set only when enrichment was requested and is never persisted.
type HydratedRecord struct {
	Record   *Record   `json:"record"`
	ESResult *Envelope `json:"_esResult,omitempty"`
}

// Hit is one entry of a search response. Exactly one of Source (raw mode) or
// Record (hydrated mode) is set.
type Hit struct {
	ID     string                 `json:"_id"`
	Score  float64                `json:"_score"`
	Source map[string]interface{} `json:"_source,omitempty"`
	Record *HydratedRecord        `json:"record,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	TotalHits int     `json:"total_hits"`
	MaxScore  float64 `json:"max_score"`
	Hits      []*Hit  `json:"hits"`
	// Missing lists ids the engine returned but the store no longer holds.
	Missing   []string `json:"missing,omitempty"`
	QueryTime int64    `json:"query_time_ms"`
	Query     string   `json:"query"`
}
