package search

import (
	"github.com/hyperjump/hydra/internal/config"
	"github.com/hyperjump/hydra/internal/models"
)

// ProcessQuery validates the search query and applies configured defaults.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	if err := query.Validate(cfg.DefaultLimit, cfg.MaxLimit); err != nil {
		return err
	}
	if query.Highlight != nil && query.Highlight.Style == "" {
		query.Highlight.Style = cfg.HighlightStyle
	}
	return nil
}
