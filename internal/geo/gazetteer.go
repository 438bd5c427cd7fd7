package geo

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/model"
)

// countryAliases maps common informal country names to ISO codes.
var countryAliases = map[string]string{
	"uk":            "GB",
	"england":       "GB",
	"scotland":      "GB",
	"wales":         "GB",
	"great britain": "GB",
	"usa":           "US",
	"u.s.":          "US",
	"u.s.a.":        "US",
	"america":       "US",
}

// gazetteerLookup tries each comma-separated segment of query as a city
// name. A later segment naming a country restricts the search to it.
func (g *Geocoder) gazetteerLookup(ctx context.Context, query string) (*model.Coordinate, error) {
	if g.gazetteer == nil {
		return nil, nil
	}

	segments := splitSegments(query)
	for i, segment := range segments {
		hint, err := g.countryHint(ctx, segments[i+1:])
		if err != nil {
			return nil, err
		}

		cities, err := g.gazetteer.City.SearchCities(ctx, segment, hint, 1)
		if err != nil {
			return nil, err
		}
		if len(cities) > 0 {
			city := cities[0]
			g.logger.Debug("Gazetteer match",
				zap.String("query", query),
				zap.String("city", city.Name),
				zap.String("country", city.CountryCode),
			)
			return &model.Coordinate{Lat: city.Lat, Lon: city.Lon}, nil
		}
	}
	return nil, nil
}

func (g *Geocoder) countryHint(ctx context.Context, segments []string) (string, error) {
	for _, s := range segments {
		if code, ok := countryAliases[strings.ToLower(s)]; ok {
			return code, nil
		}
		country, err := g.gazetteer.Country.FindCountry(ctx, s)
		if err != nil {
			return "", err
		}
		if country != nil {
			return country.Code, nil
		}
	}
	return "", nil
}

func splitSegments(query string) []string {
	var segments []string
	for _, part := range strings.Split(query, ",") {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
