// Package geo resolves free-text places to coordinates and builds map links.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/metrics"
	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/repository"
)

const maxResponseBytes = 1 << 20

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocoder resolves places through Nominatim and falls back to the local
// gazetteer when the open geocoder fails or finds nothing.
type Geocoder struct {
	baseURL      string
	userAgent    string
	staticMapURL string
	limiter      *rate.Limiter
	gazetteer    *repository.Container
	client       *http.Client
	logger       *zap.Logger
}

// NewGeocoder creates a geocoder. gazetteer may be nil.
func NewGeocoder(cfg config.EnrichConfig, gazetteer *repository.Container, logger *zap.Logger) *Geocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.NominatimRPS
	if rps <= 0 {
		rps = 1
	}
	return &Geocoder{
		baseURL:      strings.TrimRight(cfg.NominatimURL, "/"),
		userAgent:    cfg.UserAgent,
		staticMapURL: cfg.StaticMapURL,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		gazetteer:    gazetteer,
		client:       &http.Client{},
		logger:       logger.Named("geo"),
	}
}

// Geocode returns the coordinates of query, or nil when neither Nominatim
// nor the gazetteer knows the place. The Nominatim error is returned only
// when the gazetteer cannot stand in for it.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*model.Coordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	coord, err := g.nominatim(ctx, query)
	if coord != nil {
		return coord, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		g.logger.Debug("Nominatim lookup failed", zap.String("query", query), zap.Error(err))
	}

	fallback, gerr := g.gazetteerLookup(ctx, query)
	if gerr != nil {
		g.logger.Warn("Gazetteer lookup failed", zap.String("query", query), zap.Error(gerr))
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, err
}

// Lookup geocodes query and builds its map info. A failed geocode still
// yields a query-based map link; only an abandoned context is an error.
func (g *Geocoder) Lookup(ctx context.Context, query string) (*model.MapInfo, error) {
	coord, err := g.Geocode(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		g.logger.Debug("Geocoding failed, using query link", zap.String("query", query), zap.Error(err))
		coord = nil
	}
	return BuildMapInfo(query, coord, g.staticMapURL), nil
}

func (g *Geocoder) nominatim(ctx context.Context, query string) (*model.Coordinate, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("nominatim", "error").Inc()
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("nominatim", "error").Inc()
		return nil, fmt.Errorf("nominatim returned %d", resp.StatusCode)
	}
	metrics.UpstreamRequests.WithLabelValues("nominatim", "ok").Inc()

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}
	return &model.Coordinate{Lat: lat, Lon: lon}, nil
}
