package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/mehmetcc/agora/internal/config"
	"go.uber.org/zap"
)

// Search talks to the full-text search backend that indexes course documents.
type Search interface {
	Search(ctx context.Context, query, category, available string) (json.RawMessage, error)
}

type searchClient struct {
	baseClient
}

func NewSearchClient(cfg *config.UpstreamConfig, httpClient *http.Client, logger *zap.Logger) Search {
	return &searchClient{baseClient{
		http:   httpClient,
		base:   cfg.SearchURL,
		logger: logger,
	}}
}

// Search returns the raw result list for the given query. Empty parameters
// are still sent so the backend applies its own defaults.
func (s *searchClient) Search(ctx context.Context, query, category, available string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("category", category)
	params.Set("available", available)

	var payload struct {
		Results json.RawMessage `json:"results"`
	}
	if err := s.doJSON(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}
