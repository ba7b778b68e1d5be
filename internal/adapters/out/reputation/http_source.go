// Package reputation reads carrier reputation scores from the carrier
// directory, optionally through a Redis cache.
package reputation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"freightdispatch/internal/adapters/out/httpclient"
	"freightdispatch/internal/pkg/errs"
)

type scoreResponse struct {
	CarrierID string   `json:"carrierId"`
	Score     *float64 `json:"score"`
}

// HTTPSource implements ports.ReputationSource against
// GET /carriers/{id}/reputation. A 404 or a null score means the carrier
// has no score yet.
type HTTPSource struct {
	client *httpclient.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewHTTPSource(cfg Config) *HTTPSource {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &HTTPSource{client: httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: headers,
	})}
}

func (s *HTTPSource) GetReputationScore(ctx context.Context, carrierID string) (float64, bool, error) {
	var resp scoreResponse
	err := s.client.DoJSON(ctx, http.MethodGet, "/carriers/"+url.PathEscape(carrierID)+"/reputation", nil, &resp)
	if httpclient.IsStatus(err, http.StatusNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get reputation of %s: %w", carrierID, err)
	}
	if resp.Score == nil {
		return 0, false, nil
	}
	if *resp.Score < 0 || *resp.Score > 100 {
		return 0, false, errs.NewValueIsOutOfRangeError("reputationScore", *resp.Score, 0, 100)
	}
	return *resp.Score, true, nil
}
