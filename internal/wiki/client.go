// Package wiki looks up place images on Wikipedia and official websites on
// Wikidata.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/metrics"
)

const maxResponseBytes = 4 << 20

var errNotFound = errors.New("not found")

// Client talks to the Wikipedia and Wikidata APIs.
type Client struct {
	wikipediaURL string
	wikidataURL  string
	userAgent    string
	tourismGuess bool
	guessURLs    func(name string) []string
	client       *http.Client
	logger       *zap.Logger
}

// NewClient creates a wiki client
func NewClient(cfg config.EnrichConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		wikipediaURL: strings.TrimRight(cfg.WikipediaURL, "/"),
		wikidataURL:  strings.TrimRight(cfg.WikidataURL, "/"),
		userAgent:    cfg.UserAgent,
		tourismGuess: cfg.TourismGuess,
		guessURLs:    guessCandidates,
		client:       &http.Client{},
		logger:       logger.Named("wiki"),
	}
}

func (c *Client) getJSON(ctx context.Context, service, endpoint string, params url.Values, dst any) error {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.UpstreamRequests.WithLabelValues(service, "not_found").Inc()
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return fmt.Errorf("%s returned %d", service, resp.StatusCode)
	}
	metrics.UpstreamRequests.WithLabelValues(service, "ok").Inc()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", service, err)
	}
	return nil
}
