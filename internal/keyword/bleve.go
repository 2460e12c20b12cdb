package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/ansi"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/hydra/internal/mapping"
	"github.com/hyperjump/hydra/internal/models"
)

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	index      bleve.Index
	collection *mapping.Collection
}

// NewBleveIndex creates or opens the Bleve index of a collection at path.
// If the path already exists, the existing index is opened and reused. If the collection's
// field declaration changes, reindex the collection to rebuild it with the new mapping.
func NewBleveIndex(path string, c *mapping.Collection) (*BleveIndex, error) {
	im, err := c.BuildIndexMapping()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index, collection: c}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, collection: c}, nil
}

// NewMemBleveIndex creates an in-memory index for the collection.
func NewMemBleveIndex(c *mapping.Collection) (*BleveIndex, error) {
	im, err := c.BuildIndexMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, collection: c}, nil
}

// Name returns the collection's index name.
func (b *BleveIndex) Name() string { return b.collection.IndexName() }

// Type returns the collection's document type.
func (b *BleveIndex) Type() string { return b.collection.TypeName() }

// Index indexes the record's fields under its id.
func (b *BleveIndex) Index(ctx context.Context, rec *models.Record) error {
	if err := b.index.Index(rec.ID, document(rec)); err != nil {
		return &models.EngineError{Op: "index", Err: err}
	}
	return nil
}

// IndexBatch indexes recs in a single Bleve batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, recs []*models.Record) error {
	if len(recs) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, rec := range recs {
		if err := batch.Index(rec.ID, document(rec)); err != nil {
			return &models.EngineError{Op: "index", Err: err}
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return &models.EngineError{Op: "index", Err: err}
	}
	return nil
}

// Delete removes a document by id.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	if err := b.index.Delete(id); err != nil {
		return &models.EngineError{Op: "delete", Err: err}
	}
	return nil
}

// Search runs req and returns one envelope per hit, in engine order. Stored fields become
// the envelope source; highlight fragments are attached when req.Highlight is set.
func (b *BleveIndex) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	q, err := b.buildQuery(req.Query)
	if err != nil {
		return nil, err
	}
	search := bleve.NewSearchRequestOptions(q, req.Size, req.From, false)
	search.Fields = []string{"*"}
	if req.Highlight != nil {
		search.Highlight = bleve.NewHighlightWithStyle(highlightStyle(req.Highlight.Style))
		for _, f := range req.Highlight.FieldNames() {
			search.Highlight.AddField(f)
		}
	}

	results, err := b.index.SearchInContext(ctx, search)
	if err != nil {
		return nil, &models.EngineError{Op: "search", Err: err}
	}

	out := &SearchResult{
		Total:     int(results.Total),
		MaxScore:  results.MaxScore,
		Envelopes: make([]*models.Envelope, len(results.Hits)),
	}
	for i, hit := range results.Hits {
		source := hit.Fields
		if source == nil {
			source = map[string]interface{}{}
		}
		env := &models.Envelope{
			ID:     hit.ID,
			Index:  b.Name(),
			Type:   b.Type(),
			Score:  hit.Score,
			Source: source,
		}
		if req.Highlight != nil && len(hit.Fragments) > 0 {
			env.Highlight = hit.Fragments
		}
		out.Envelopes[i] = env
	}
	return out, nil
}

func (b *BleveIndex) buildQuery(q models.Query) (blevequery.Query, error) {
	if q.Field != "" && !b.collection.HasField(q.Field) {
		return nil, fmt.Errorf("%w: field %q is not declared in collection %q", models.ErrInvalidQuery, q.Field, b.collection.Name)
	}
	switch q.Kind {
	case models.QueryMatch, "":
		mq := bleve.NewMatchQuery(q.Text)
		if q.Field != "" {
			mq.SetField(q.Field)
		}
		return mq, nil
	case models.QueryMatchPhrase:
		pq := bleve.NewMatchPhraseQuery(q.Text)
		if q.Field != "" {
			pq.SetField(q.Field)
		}
		return pq, nil
	case models.QueryString:
		// Fields are addressed inside the query string itself (title:mort).
		return bleve.NewQueryStringQuery(q.Text), nil
	case models.QueryFuzzy:
		fuzziness := q.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
		return buildFuzzyQuery(q.Text, fuzziness, q.Field), nil
	case models.QueryMatchAll:
		return bleve.NewMatchAllQuery(), nil
	default:
		return nil, fmt.Errorf("%w: unknown query kind %q", models.ErrInvalidQuery, q.Kind)
	}
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query.
// If field is empty, searches all fields; otherwise restricts to the specified field.
func buildFuzzyQuery(text string, fuzziness int, field string) blevequery.Query {
	terms := strings.Fields(strings.ToLower(text))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func highlightStyle(style string) string {
	if strings.EqualFold(style, ansi.Name) {
		return ansi.Name
	}
	return html.Name
}

// document is what gets indexed for a record: its fields, nothing else.
func document(rec *models.Record) map[string]interface{} {
	if rec.Fields == nil {
		return map[string]interface{}{}
	}
	return rec.Fields
}

// DocCount returns the number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
