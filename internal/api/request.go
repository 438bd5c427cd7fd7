package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/service"
)

const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

type matchBody struct {
	Place      any `json:"place"`
	Region     any `json:"region"`
	ThisPlace  any `json:"thisPlace"`
	ThatRegion any `json:"thatRegion"`
}

func (b matchBody) request() model.MatchRequest {
	return model.MatchRequest{
		Place:  firstString(b.Place, b.ThisPlace),
		Region: firstString(b.Region, b.ThatRegion),
	}
}

// decodeMatchBody reads a JSON object, also when it arrives encoded as a
// JSON string. An empty body yields an empty request.
func decodeMatchBody(r *http.Request) (model.MatchRequest, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return model.MatchRequest{}, fmt.Errorf("%w: failed to read body", service.ErrInvalidRequest)
	}
	if len(data) > maxBodyBytes {
		return model.MatchRequest{}, errBodyTooLarge
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return model.MatchRequest{}, nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return model.MatchRequest{}, fmt.Errorf("%w: invalid JSON body", service.ErrInvalidRequest)
		}
		data = bytes.TrimSpace([]byte(inner))
		if len(data) == 0 {
			return model.MatchRequest{}, nil
		}
	}

	var body matchBody
	if err := json.Unmarshal(data, &body); err != nil {
		return model.MatchRequest{}, fmt.Errorf("%w: invalid JSON body", service.ErrInvalidRequest)
	}
	return body.request(), nil
}

func queryMatchRequest(q url.Values) model.MatchRequest {
	return model.MatchRequest{
		Place:  firstNonEmpty(q.Get("place"), q.Get("thisPlace")),
		Region: firstNonEmpty(q.Get("region"), q.Get("thatRegion")),
	}
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
