// Package hydrate resolves search hit envelopes to the persisted records they refer to.
package hydrate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/hydra/internal/metrics"
	"github.com/hyperjump/hydra/internal/models"
	"github.com/hyperjump/hydra/internal/storage"
)

// MissingPolicy decides what happens to a hit whose record is gone from the store.
type MissingPolicy string

const (
	// PolicyOmit drops the hit and reports its id in Result.Missing.
	PolicyOmit MissingPolicy = "omit"
	// PolicyFail fails the whole call with models.ErrNotFoundDivergence.
	PolicyFail MissingPolicy = "fail"
)

// ParsePolicy parses a configured policy name. Empty means PolicyOmit.
func ParsePolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(s)) {
	case "", PolicyOmit:
		return PolicyOmit, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", fmt.Errorf("unknown missing policy %q (want omit or fail)", s)
	}
}

// Options control one hydration call.
type Options struct {
	// Enrich attaches each hit's envelope to its hydrated record.
	Enrich bool
	// Fetch is passed through to the store untouched.
	Fetch *models.FetchOptions
	// Policy defaults to the Hydrator's policy when empty.
	Policy MissingPolicy
}

// Result is the outcome of a hydration call. Envelopes[i] is the envelope Records[i]
// was resolved from, so the two can be zipped into a response.
type Result struct {
	Envelopes []*models.Envelope
	Records   []*models.HydratedRecord
	Missing   []string
}

// Hydrator turns envelopes into hydrated records with one store round trip per call.
type Hydrator struct {
	store  storage.Fetcher
	policy MissingPolicy
	logger *zap.Logger // optional
}

// Option configures a Hydrator.
type Option func(*Hydrator)

// WithLogger sets a logger for debug and divergence output.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hydrator) { h.logger = l }
}

// WithPolicy sets the default missing policy.
func WithPolicy(p MissingPolicy) Option {
	return func(h *Hydrator) {
		if p != "" {
			h.policy = p
		}
	}
}

// New creates a Hydrator reading from store.
func New(store storage.Fetcher, opts ...Option) *Hydrator {
	h := &Hydrator{store: store, policy: PolicyOmit}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hydrate resolves envelopes to records of collection, preserving envelope order.
// Duplicate ids are fetched once but each envelope still yields its own entry.
// A store failure fails the call with a *models.StoreError and no partial result.
func (h *Hydrator) Hydrate(ctx context.Context, collection string, envelopes []*models.Envelope, opts Options) (*Result, error) {
	if len(envelopes) == 0 {
		return &Result{
			Envelopes: []*models.Envelope{},
			Records:   []*models.HydratedRecord{},
		}, nil
	}

	ids := uniqueIDs(envelopes)
	byID, err := h.store.FetchByIDs(ctx, collection, ids, opts.Fetch)
	metrics.HydrateFetchSize.WithLabelValues(collection).Observe(float64(len(ids)))
	if err != nil {
		metrics.HydrateFetchesTotal.WithLabelValues(collection, "error").Inc()
		return nil, &models.StoreError{Op: "fetch", Err: err}
	}
	metrics.HydrateFetchesTotal.WithLabelValues(collection, "ok").Inc()
	if h.logger != nil {
		h.logger.Debug("hydrate fetch",
			zap.String("collection", collection),
			zap.Int("envelopes", len(envelopes)),
			zap.Int("unique_ids", len(ids)),
			zap.Int("found", len(byID)))
	}

	policy := opts.Policy
	if policy == "" {
		policy = h.policy
	}

	res := &Result{
		Envelopes: make([]*models.Envelope, 0, len(envelopes)),
		Records:   make([]*models.HydratedRecord, 0, len(envelopes)),
	}
	for _, env := range envelopes {
		rec, ok := byID[env.ID]
		if !ok {
			res.Missing = append(res.Missing, env.ID)
			continue
		}
		hr := &models.HydratedRecord{Record: rec}
		if opts.Enrich {
			hr.ESResult = env
		}
		res.Envelopes = append(res.Envelopes, env)
		res.Records = append(res.Records, hr)
	}

	metrics.HydrateHitsTotal.WithLabelValues(collection, metrics.OutcomeHydrated).Add(float64(len(res.Records)))
	if len(res.Missing) == 0 {
		return res, nil
	}
	metrics.HydrateHitsTotal.WithLabelValues(collection, metrics.OutcomeMissing).Add(float64(len(res.Missing)))
	if policy == PolicyFail {
		return nil, fmt.Errorf("%w: collection %q: %s", models.ErrNotFoundDivergence, collection, strings.Join(res.Missing, ", "))
	}
	if h.logger != nil {
		h.logger.Warn("search hits reference missing records; omitted",
			zap.String("collection", collection),
			zap.Strings("ids", res.Missing))
	}
	return res, nil
}

// uniqueIDs returns the envelope ids in first-seen order without duplicates.
func uniqueIDs(envelopes []*models.Envelope) []string {
	seen := make(map[string]struct{}, len(envelopes))
	ids := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		if _, ok := seen[env.ID]; ok {
			continue
		}
		seen[env.ID] = struct{}{}
		ids = append(ids, env.ID)
	}
	return ids
}
