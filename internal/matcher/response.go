package matcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/alexivanou/placematch-api/internal/model"
)

// ModelResponse is the outcome of parsing a completion: either Parsed or
// ParseFailure.
type ModelResponse interface {
	modelResponse()
}

// Parsed holds the candidates read from a syntactically valid completion.
// Candidates may be empty.
type Parsed struct {
	Candidates []model.Candidate
}

// ParseFailure means the completion could not be read as a result list.
type ParseFailure struct {
	Reason string
}

func (Parsed) modelResponse()       {}
func (ParseFailure) modelResponse() {}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// ParseResponse reads a completion as either {"results": [...]} or a bare
// array. Code fences and prose around the JSON are tolerated. Elements that
// are null or not decodable as candidates are skipped.
func ParseResponse(text string) ModelResponse {
	body := stripFences(text)
	if body == "" {
		return ParseFailure{Reason: "empty completion"}
	}

	items, err := resultItems([]byte(body))
	if err != nil {
		extracted, xerr := extractJSON(body)
		if xerr != nil {
			return ParseFailure{Reason: err.Error()}
		}
		if items, err = resultItems([]byte(extracted)); err != nil {
			return ParseFailure{Reason: err.Error()}
		}
	}

	candidates := make([]model.Candidate, 0, len(items))
	for _, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			continue
		}
		var c model.Candidate
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		candidates = append(candidates, c)
	}
	return Parsed{Candidates: candidates}
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

func resultItems(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"results", "matches", "candidates"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.New(key + " is not an array")
		}
		return items, nil
	}
	return nil, errors.New("no results array")
}

// extractJSON returns the first balanced JSON object or array in s.
func extractJSON(s string) (string, error) {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return "", errors.New("no JSON value found")
	}
	openCh, closeCh := s[start], byte('}')
	if openCh == '[' {
		closeCh = ']'
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == openCh:
			depth++
		case ch == closeCh:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("no balanced JSON value found")
}
