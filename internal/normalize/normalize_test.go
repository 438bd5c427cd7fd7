package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexivanou/placematch-api/internal/model"
)

func candidates(t *testing.T, doc string) []model.Candidate {
	t.Helper()
	var out []model.Candidate
	require.NoError(t, json.Unmarshal([]byte(doc), &out))
	return out
}

func TestResults_DefaultsApplied(t *testing.T) {
	results := Results(candidates(t, `[{"match":"Shoreditch","city":"London","region":"UK"}]`))

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, 1, r.Rank)
	assert.Equal(t, "Shoreditch", r.Match)
	assert.Equal(t, "London", r.City)
	assert.Equal(t, "UK", r.Region)
	assert.Equal(t, 0.75, r.Score)
	assert.Equal(t, "openai", r.Source)
	assert.Equal(t, []string{}, r.Tags)
	assert.Equal(t, []string{}, r.WhatMakesItSpecial)
	assert.Equal(t, []model.Landmark{}, r.Landmarks)

	encoded, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"tags":[]`)
}

func TestResults_CapsAndRanks(t *testing.T) {
	doc := `[
		{"rank": 3, "match": "A", "city": "X"},
		{"rank": 3, "match": "B", "city": "X"},
		null,
		{"rank": "1", "match": "C", "city": "X"},
		{"match": "D", "city": "X"}
	]`
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))

	var cands []model.Candidate
	for _, item := range raw {
		var c model.Candidate
		if string(item) == "null" {
			continue
		}
		require.NoError(t, json.Unmarshal(item, &c))
		cands = append(cands, c)
	}

	results := Results(cands)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		assert.NotEmpty(t, r.Match)
	}
	assert.Equal(t, []string{"A", "B", "C"}, []string{results[0].Match, results[1].Match, results[2].Match})
}

func TestResult_FieldCoercion(t *testing.T) {
	long := strings.Repeat("x", 200)
	doc := `{
		"match": "  Le Marais ",
		"city": "Paris",
		"blurb": "Historic &amp; trendy",
		"whatMakesItSpecial": ["one", "", 2, "three", "four", "five", "six"],
		"landmarks": [
			{"name": "Place des Vosges", "why": "` + long + `"},
			"Musée Picasso",
			{"why": "no name"},
			{"name": "` + long + `"},
			{"name": "Fourth"}
		],
		"tags": "single",
		"score": "1.7"
	}`
	var c model.Candidate
	require.NoError(t, json.Unmarshal([]byte(doc), &c))

	r := Result(c)
	assert.Equal(t, "Le Marais", r.Match)
	assert.Equal(t, "Historic & trendy", r.Blurb)
	assert.Equal(t, []string{"one", "2", "three", "four", "five"}, r.WhatMakesItSpecial)
	require.Len(t, r.Landmarks, 3)
	assert.Equal(t, "Place des Vosges", r.Landmarks[0].Name)
	assert.LessOrEqual(t, len([]rune(r.Landmarks[0].Why)), 160)
	assert.Equal(t, "Musée Picasso", r.Landmarks[1].Name)
	assert.Empty(t, r.Landmarks[1].Why)
	assert.LessOrEqual(t, len([]rune(r.Landmarks[2].Name)), 80)
	assert.Equal(t, []string{"single"}, r.Tags)
	assert.Equal(t, 1.0, r.Score)
}

func TestResult_MatchFallback(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantMatch string
		wantCity  string
	}{
		{"bare string", `"Williamsburg"`, "Williamsburg", ""},
		{"city only", `{"city": "Berlin"}`, "Unknown", "Berlin"},
		{"non-string match", `{"match": {"x": 1}, "city": "Berlin"}`, "Unknown", "Berlin"},
		{"empty object", `{}`, "Unknown", ""},
		{"whitespace names", `{"match": "  ", "city": ""}`, "Unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c model.Candidate
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &c))
			r := Result(c)
			assert.Equal(t, tt.wantMatch, r.Match)
			assert.Equal(t, tt.wantCity, r.City)
			assert.Equal(t, 0.75, r.Score)
		})
	}
}

func TestResults_KeepsNamelessCandidates(t *testing.T) {
	results := Results(candidates(t, `[{"region":"UK","blurb":"x"}]`))

	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "Unknown", results[0].Match)
	assert.Equal(t, "UK", results[0].Region)
	assert.Equal(t, "x", results[0].Blurb)
	assert.Equal(t, "openai", results[0].Source)
}

func TestScore(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{``, 0.75},
		{`null`, 0.75},
		{`0.42`, 0.42},
		{`-3`, 0},
		{`"0.9"`, 0.9},
		{`"high"`, 0.75},
		{`true`, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, score(json.RawMessage(tt.raw)))
		})
	}
}

func TestKey(t *testing.T) {
	a := model.NormalizedResult{Match: "Shoreditch", City: "London"}
	b := model.NormalizedResult{Match: " SHOREDITCH", City: "london "}
	assert.Equal(t, Key(a), Key(b))
	assert.Equal(t, "shoreditch, london", Key(a))
}
