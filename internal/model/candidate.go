package model

import "encoding/json"

// Candidate is a place suggestion exactly as the language model produced it.
// Every field is untrusted: values may be missing, mistyped or nested oddly,
// so they are kept as raw JSON until normalization.
type Candidate struct {
	Rank               json.RawMessage `json:"rank,omitempty"`
	Match              json.RawMessage `json:"match,omitempty"`
	City               json.RawMessage `json:"city,omitempty"`
	Region             json.RawMessage `json:"region,omitempty"`
	Blurb              json.RawMessage `json:"blurb,omitempty"`
	WhatMakesItSpecial json.RawMessage `json:"whatMakesItSpecial,omitempty"`
	Landmarks          json.RawMessage `json:"landmarks,omitempty"`
	Tags               json.RawMessage `json:"tags,omitempty"`
	Score              json.RawMessage `json:"score,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare string naming the place.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Candidate{Match: append(json.RawMessage(nil), data...)}
		return nil
	}

	type plain Candidate
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Candidate(p)
	return nil
}
