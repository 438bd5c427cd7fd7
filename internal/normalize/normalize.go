// Package normalize coerces loosely typed model candidates into results
// with a fixed shape.
package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/sanitize"
)

const (
	MaxResults      = 3
	maxBullets      = 5
	maxTags         = 6
	maxLandmarks    = 3
	maxLandmarkName = 80
	maxLandmarkWhy  = 160
	DefaultScore    = 0.75
	unknownMatch    = "Unknown"
)

// Source labels every result, whichever provider produced it.
const Source = "openai"

// Results normalizes candidates in order and returns at most MaxResults
// results ranked 1..n.
func Results(candidates []model.Candidate) []model.NormalizedResult {
	results := make([]model.NormalizedResult, 0, MaxResults)
	for _, c := range candidates {
		if len(results) == MaxResults {
			break
		}
		r := Result(c)
		r.Rank = len(results) + 1
		results = append(results, r)
	}
	return results
}

// Result normalizes a single candidate. Every field gets a default; a
// missing match becomes "Unknown".
func Result(c model.Candidate) model.NormalizedResult {
	r := model.NormalizedResult{
		Rank:               intValue(c.Rank),
		Match:              stringValue(c.Match),
		City:               stringValue(c.City),
		Region:             stringValue(c.Region),
		Blurb:              stringValue(c.Blurb),
		WhatMakesItSpecial: stringList(c.WhatMakesItSpecial, maxBullets),
		Landmarks:          landmarks(c.Landmarks),
		Tags:               stringList(c.Tags, maxTags),
		Score:              score(c.Score),
		Source:             Source,
	}
	if r.Match == "" {
		r.Match = unknownMatch
	}
	return r
}

// Key identifies a result for de-duplication: lower-cased "match, city".
func Key(r model.NormalizedResult) string {
	return strings.ToLower(strings.TrimSpace(r.Match) + ", " + strings.TrimSpace(r.City))
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func stringValue(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(sanitize.Text(s))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func intValue(raw json.RawMessage) int {
	if isNull(raw) {
		return 0
	}
	if f, ok := floatValue(raw); ok {
		return int(f)
	}
	return 0
}

func floatValue(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func score(raw json.RawMessage) float64 {
	if isNull(raw) {
		return DefaultScore
	}
	f, ok := floatValue(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultScore
	}
	return math.Max(0, math.Min(1, f))
}

// stringList accepts an array of scalars or a single string. The result
// is never nil.
func stringList(raw json.RawMessage, max int) []string {
	out := []string{}
	if isNull(raw) {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := stringValue(raw); s != "" {
			out = append(out, s)
		}
		return out
	}
	for _, item := range items {
		if len(out) == max {
			break
		}
		if s := stringValue(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type rawLandmark struct {
	Name json.RawMessage `json:"name"`
	Why  json.RawMessage `json:"why"`
}

// landmarks accepts objects with name/why or bare names. The result is
// never nil.
func landmarks(raw json.RawMessage) []model.Landmark {
	out := []model.Landmark{}
	if isNull(raw) {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if len(out) == maxLandmarks {
			break
		}
		var lm model.Landmark
		var obj rawLandmark
		if err := json.Unmarshal(item, &obj); err == nil {
			lm = model.Landmark{Name: stringValue(obj.Name), Why: stringValue(obj.Why)}
		} else {
			lm = model.Landmark{Name: stringValue(item)}
		}
		if lm.Name == "" {
			continue
		}
		lm.Name = sanitize.Clip(lm.Name, maxLandmarkName)
		lm.Why = sanitize.Clip(lm.Why, maxLandmarkWhy)
		out = append(out, lm)
	}
	return out
}
