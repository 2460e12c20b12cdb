package hydrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/hydra/internal/metrics"
	"github.com/hyperjump/hydra/internal/models"
)

// countingStore is an in-memory Fetcher that records every call.
type countingStore struct {
	records map[string]*models.Record
	calls   [][]string
	opts    []*models.FetchOptions
	err     error
}

func (s *countingStore) FetchByIDs(ctx context.Context, collection string, ids []string, opts *models.FetchOptions) (map[string]*models.Record, error) {
	s.calls = append(s.calls, append([]string(nil), ids...))
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]*models.Record)
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func newStore(ids ...string) *countingStore {
	s := &countingStore{records: map[string]*models.Record{}}
	for _, id := range ids {
		s.records[id] = &models.Record{ID: id, Collection: "quotes", Fields: map[string]interface{}{"title": "T" + id}}
	}
	return s
}

func envelopes(ids ...string) []*models.Envelope {
	out := make([]*models.Envelope, len(ids))
	for i, id := range ids {
		out[i] = &models.Envelope{
			ID:     id,
			Index:  "quotes",
			Type:   "quote",
			Score:  float64(len(ids) - i),
			Source: map[string]interface{}{"title": "stale " + id},
		}
	}
	return out
}

func recordIDs(res *Result) []string {
	ids := make([]string, len(res.Records))
	for i, r := range res.Records {
		ids[i] = r.Record.ID
	}
	return ids
}

func TestHydrate_OneFetchPreservesOrder(t *testing.T) {
	store := newStore("a", "b", "c")
	h := New(store)

	res, err := h.Hydrate(context.Background(), "quotes", envelopes("c", "a", "b"), Options{})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, []string{"c", "a", "b"}, store.calls[0])
	assert.Equal(t, []string{"c", "a", "b"}, recordIDs(res))
	assert.Empty(t, res.Missing)
	for i, hr := range res.Records {
		assert.Nil(t, hr.ESResult, "record %d should not be enriched", i)
		assert.Equal(t, res.Envelopes[i].ID, hr.Record.ID)
	}
}

func TestHydrate_EnrichAttachesEnvelope(t *testing.T) {
	store := newStore("a", "b")
	h := New(store)
	envs := envelopes("b", "a")

	res, err := h.Hydrate(context.Background(), "quotes", envs, Options{Enrich: true})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	for i, hr := range res.Records {
		require.NotNil(t, hr.ESResult)
		assert.Same(t, envs[i], hr.ESResult)
		assert.Equal(t, hr.Record.ID, hr.ESResult.ID)
	}
	// The live record is not replaced by the stale source snapshot.
	assert.Equal(t, "Tb", res.Records[0].Record.Fields["title"])
	assert.Equal(t, "stale b", res.Records[0].ESResult.Source["title"])
	assert.NotContains(t, res.Records[0].Record.Fields, "_esResult")
}

func TestHydrate_DuplicateIDs(t *testing.T) {
	store := newStore("a", "b")
	h := New(store)

	res, err := h.Hydrate(context.Background(), "quotes", envelopes("a", "b", "a"), Options{Enrich: true})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, []string{"a", "b"}, store.calls[0])
	assert.Equal(t, []string{"a", "b", "a"}, recordIDs(res))
	assert.NotSame(t, res.Records[0], res.Records[2], "each envelope gets its own wrapper")
	assert.NotSame(t, res.Records[0].ESResult, res.Records[2].ESResult)
}

func TestHydrate_EmptyInputSkipsStore(t *testing.T) {
	store := newStore()
	h := New(store)

	res, err := h.Hydrate(context.Background(), "quotes", nil, Options{Enrich: true})
	require.NoError(t, err)
	assert.Empty(t, store.calls)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
}

func TestHydrate_StoreFailure(t *testing.T) {
	cause := errors.New("connection refused")
	store := newStore("a")
	store.err = cause
	h := New(store)

	res, err := h.Hydrate(context.Background(), "quotes", envelopes("a"), Options{})
	require.Error(t, err)
	assert.Nil(t, res)

	var storeErr *models.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "fetch", storeErr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestHydrate_StoreFailureObservesFetchSize(t *testing.T) {
	store := newStore("a", "b")
	store.err = errors.New("disk I/O error")
	h := New(store)

	_, err := h.Hydrate(context.Background(), "fetch-size-on-error", envelopes("a", "b", "a"), Options{})
	require.Error(t, err)

	hist, ok := metrics.HydrateFetchSize.WithLabelValues("fetch-size-on-error").(prometheus.Histogram)
	require.True(t, ok)
	want := `
# HELP hydra_hydrate_fetch_ids Unique record ids per batch fetch
# TYPE hydra_hydrate_fetch_ids histogram
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="1"} 0
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="5"} 1
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="10"} 1
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="25"} 1
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="50"} 1
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="100"} 1
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="250"} 1
hydra_hydrate_fetch_ids_bucket{collection="fetch-size-on-error",le="+Inf"} 1
hydra_hydrate_fetch_ids_sum{collection="fetch-size-on-error"} 2
hydra_hydrate_fetch_ids_count{collection="fetch-size-on-error"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(hist, strings.NewReader(want)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HydrateFetchesTotal.WithLabelValues("fetch-size-on-error", "error")))
}

func TestHydrate_MissingOmitted(t *testing.T) {
	store := newStore("a", "c")
	h := New(store)

	res, err := h.Hydrate(context.Background(), "quotes", envelopes("a", "b", "c"), Options{Enrich: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, recordIDs(res))
	assert.Equal(t, []string{"b"}, res.Missing)
	require.Len(t, res.Envelopes, 2)
	assert.Equal(t, "a", res.Envelopes[0].ID)
	assert.Equal(t, "c", res.Envelopes[1].ID)
}

func TestHydrate_MissingFails(t *testing.T) {
	store := newStore("a")
	h := New(store, WithPolicy(PolicyFail))

	res, err := h.Hydrate(context.Background(), "quotes", envelopes("a", "gone"), Options{})
	assert.Nil(t, res)
	require.ErrorIs(t, err, models.ErrNotFoundDivergence)
	assert.Contains(t, err.Error(), "gone")

	// Per-call policy overrides the default.
	res, err = h.Hydrate(context.Background(), "quotes", envelopes("a", "gone"), Options{Policy: PolicyOmit})
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, res.Missing)
}

func TestHydrate_FetchOptionsPassedThrough(t *testing.T) {
	store := newStore("a")
	h := New(store)
	fetch := &models.FetchOptions{Select: []string{"title"}}

	_, err := h.Hydrate(context.Background(), "quotes", envelopes("a"), Options{Fetch: fetch})
	require.NoError(t, err)
	require.Len(t, store.opts, 1)
	assert.Same(t, fetch, store.opts[0])
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    MissingPolicy
		wantErr bool
	}{
		{"", PolicyOmit, false},
		{"omit", PolicyOmit, false},
		{"FAIL", PolicyFail, false},
		{"ignore", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
