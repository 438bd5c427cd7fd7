package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexivanou/placematch-api/internal/metrics"
	"github.com/alexivanou/placematch-api/internal/model"
)

// ImageFinder finds an illustrative image, trying queries in order.
type ImageFinder interface {
	FindImage(ctx context.Context, queries ...string) (*model.ImageRef, error)
}

// NewsFinder finds a travel article about a place.
type NewsFinder interface {
	FindArticle(ctx context.Context, place string) (*model.NewsItem, error)
}

// MapFinder geocodes a place and builds its map info.
type MapFinder interface {
	Lookup(ctx context.Context, query string) (*model.MapInfo, error)
}

// WebsiteFinder resolves the official website of a place.
type WebsiteFinder interface {
	FindOfficialWebsite(ctx context.Context, name string) (string, error)
}

// Sources are the lookups run for every result. A nil source leaves its
// field null.
type Sources struct {
	Images   ImageFinder
	News     NewsFinder
	Maps     MapFinder
	Websites WebsiteFinder
}

// Enricher fans out lookups for every result and waits for all of them.
type Enricher struct {
	sources Sources
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an enricher. timeout bounds each individual lookup.
func New(sources Sources, timeout time.Duration, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		sources: sources,
		timeout: timeout,
		logger:  logger.Named("enrich"),
	}
}

// Enrich returns one enriched result per input, in input order. Lookups run
// concurrently and a failed lookup only nulls its own field.
func (e *Enricher) Enrich(ctx context.Context, results []model.NormalizedResult) []model.EnrichedResult {
	out := make([]model.EnrichedResult, len(results))
	g, gctx := errgroup.WithContext(ctx)

	for i := range results {
		out[i].NormalizedResult = results[i]
		item := &out[i]
		query := joinNonEmpty(results[i].Match, results[i].City, results[i].Region)
		broad := joinNonEmpty(results[i].City, results[i].Region)
		name := joinNonEmpty(results[i].Match, results[i].City)

		if src := e.sources.Images; src != nil {
			g.Go(func() error {
				item.Image = lookup(gctx, e, "image", query, func(ctx context.Context) (*model.ImageRef, error) {
					return src.FindImage(ctx, query, broad)
				})
				return nil
			})
		}
		if src := e.sources.News; src != nil {
			g.Go(func() error {
				item.News = lookup(gctx, e, "news", query, func(ctx context.Context) (*model.NewsItem, error) {
					return src.FindArticle(ctx, query)
				})
				return nil
			})
		}
		if src := e.sources.Maps; src != nil {
			g.Go(func() error {
				item.Map = lookup(gctx, e, "map", query, func(ctx context.Context) (*model.MapInfo, error) {
					return src.Lookup(ctx, query)
				})
				return nil
			})
		}
		if src := e.sources.Websites; src != nil {
			g.Go(func() error {
				item.TourismURL = lookup(gctx, e, "website", name, func(ctx context.Context) (*string, error) {
					site, err := src.FindOfficialWebsite(ctx, name)
					if err != nil || site == "" {
						return nil, err
					}
					return &site, nil
				})
				return nil
			})
		}
	}

	_ = g.Wait()
	return out
}

func lookup[T any](ctx context.Context, e *Enricher, kind, query string, fn func(context.Context) (*T, error)) *T {
	v, err := BestEffort(ctx, e.timeout, fn)
	switch {
	case err != nil:
		metrics.EnrichmentResults.WithLabelValues(kind, "error").Inc()
		e.logger.Debug("Enrichment failed",
			zap.String("kind", kind),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	case v == nil:
		metrics.EnrichmentResults.WithLabelValues(kind, "empty").Inc()
	default:
		metrics.EnrichmentResults.WithLabelValues(kind, "ok").Inc()
	}
	return v
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
