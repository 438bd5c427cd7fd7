package geo

import (
	"fmt"
	"net/url"

	"github.com/alexivanou/placematch-api/internal/model"
)

const gmapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// BuildMapInfo assembles the static map image and the interactive map link.
// Without coordinates the image is nil and the link searches for query.
func BuildMapInfo(query string, coord *model.Coordinate, staticMapURL string) *model.MapInfo {
	info := &model.MapInfo{}
	if coord == nil {
		info.GMaps = gmapsSearchURL + url.QueryEscape(query)
		return info
	}

	lat, lon := coord.Lat, coord.Lon
	info.Lat, info.Lon = &lat, &lon
	point := fmt.Sprintf("%.6f,%.6f", lat, lon)
	info.GMaps = gmapsSearchURL + url.QueryEscape(point)

	if staticMapURL != "" {
		params := url.Values{}
		params.Set("center", point)
		params.Set("zoom", "13")
		params.Set("size", "600x300")
		params.Set("markers", point+",red-pushpin")
		image := staticMapURL + "?" + params.Encode()
		info.Image = &image
	}
	return info
}
