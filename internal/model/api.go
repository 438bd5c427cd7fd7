package model

// MatchRequest is the validated input of the match endpoint.
type MatchRequest struct {
	Place  string `json:"place" validate:"required,max=200"`
	Region string `json:"region" validate:"required,max=200"`
}

// Landmark is a notable spot inside a matched neighborhood.
type Landmark struct {
	Name string `json:"name"`
	Why  string `json:"why"`
}

// NormalizedResult is a model candidate coerced into a fixed shape.
type NormalizedResult struct {
	Rank               int        `json:"rank"`
	Match              string     `json:"match"`
	City               string     `json:"city"`
	Region             string     `json:"region"`
	Blurb              string     `json:"blurb"`
	WhatMakesItSpecial []string   `json:"whatMakesItSpecial"`
	Landmarks          []Landmark `json:"landmarks"`
	Tags               []string   `json:"tags"`
	Score              float64    `json:"score"`
	Source             string     `json:"source"`
}

// NewsItem is a travel article attached to a result.
type NewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Image   string `json:"image,omitempty"`
	Snippet string `json:"snippet"`
}

// ImageRef is an illustrative picture of a place.
type ImageRef struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// Coordinate represents geographic coordinates
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapInfo carries a static map image and an interactive map link.
// Lat and Lon are nil when the place could not be geocoded.
type MapInfo struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Image *string  `json:"image"`
	GMaps string   `json:"gmaps"`
}

// EnrichedResult is a normalized result plus best-effort enrichment.
type EnrichedResult struct {
	NormalizedResult
	Image      *ImageRef `json:"image"`
	News       *NewsItem `json:"news"`
	Map        *MapInfo  `json:"map"`
	TourismURL *string   `json:"tourismUrl"`
}

// MatchResponse is the body of a successful match request.
type MatchResponse struct {
	OK      bool             `json:"ok"`
	Place   string           `json:"place"`
	Region  string           `json:"region"`
	Results []EnrichedResult `json:"results"`
	Version string           `json:"version"`
	Note    string           `json:"note,omitempty"`
}

// HealthResponse is returned by a bare GET on the match endpoint.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
