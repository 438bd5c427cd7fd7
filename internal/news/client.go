// Package news finds a travel article about a place in a search RSS feed.
package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/feed"
	"github.com/alexivanou/placematch-api/internal/metrics"
	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/sanitize"
)

const (
	maxItems     = 12
	maxFeedBytes = 2 << 20
	snippetRunes = 240
)

// Client queries a news search feed and selects the best article.
type Client struct {
	feedURL   string
	userAgent string
	timeout   time.Duration
	negative  []string
	scorer    *Scorer
	client    *http.Client
	logger    *zap.Logger
}

// NewClient creates a news client
func NewClient(cfg config.EnrichConfig, policy config.Policy, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		feedURL:   cfg.NewsFeedURL,
		userAgent: cfg.UserAgent,
		timeout:   cfg.NewsTimeout,
		negative:  policy.NegativeKeywords,
		scorer:    NewScorer(policy.NegativeKeywords, policy.TravelDomainPattern),
		client:    &http.Client{},
		logger:    logger.Named("news"),
	}
}

// FindArticle runs the hotel pass and, only when it finds nothing, the
// broad pass. A nil item with a nil error means no qualifying article.
func (c *Client) FindArticle(ctx context.Context, place string) (*model.NewsItem, error) {
	var lastErr error
	for _, pass := range []Pass{HotelPass, BroadPass} {
		item, err := c.search(ctx, place, pass)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if item != nil {
			return item, nil
		}
	}
	return nil, lastErr
}

func (c *Client) search(ctx context.Context, place string, pass Pass) (*model.NewsItem, error) {
	doc, err := c.fetch(ctx, BuildQuery(place, pass, c.negative))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("news", "error").Inc()
		return nil, err
	}
	metrics.UpstreamRequests.WithLabelValues("news", "ok").Inc()

	items, err := feed.ParseItems(doc, maxItems)
	if err != nil {
		c.logger.Debug("Unreadable news feed", zap.String("place", place), zap.Error(err))
		return nil, nil
	}

	picked := c.scorer.Pick(items)
	if picked == nil {
		c.logger.Debug("No qualifying article",
			zap.String("place", place),
			zap.String("pass", pass.String()),
			zap.Int("items", len(items)),
		)
		return nil, nil
	}
	return &model.NewsItem{
		Title:   picked.Title,
		URL:     picked.Link,
		Image:   picked.ImageURL,
		Snippet: sanitize.Truncate(picked.Description, snippetRunes),
	}, nil
}

func (c *Client) fetch(ctx context.Context, query string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("news feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("news feed returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read news feed: %w", err)
	}
	return string(body), nil
}
