package search

import (
	"fmt"

	"github.com/hyperjump/hydra/internal/models"
)

// BuildResponse zips envelopes with their hydrated records into a response.
// A nil hydrated slice means raw mode: each hit carries the envelope's source.
// Otherwise hydrated[i] belongs to envelopes[i] and both must have the same length.
// totalHits is copied as is; hits are neither reordered nor filtered.
func BuildResponse(totalHits int, envelopes []*models.Envelope, hydrated []*models.HydratedRecord) (*models.SearchResponse, error) {
	if hydrated != nil && len(hydrated) != len(envelopes) {
		return nil, fmt.Errorf("cannot build response: %d envelopes but %d hydrated records", len(envelopes), len(hydrated))
	}
	resp := &models.SearchResponse{
		TotalHits: totalHits,
		Hits:      make([]*models.Hit, len(envelopes)),
	}
	for i, env := range envelopes {
		if i == 0 || env.Score > resp.MaxScore {
			resp.MaxScore = env.Score
		}
		hit := &models.Hit{ID: env.ID, Score: env.Score}
		if hydrated == nil {
			hit.Source = env.Source
		} else {
			hit.Record = hydrated[i]
		}
		resp.Hits[i] = hit
	}
	return resp, nil
}
