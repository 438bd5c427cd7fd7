// Package matcher asks a completion provider for places similar to a
// source place and turns the reply into normalized results.
package matcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/llm"
	"github.com/alexivanou/placematch-api/internal/metrics"
	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/normalize"
)

// State is a step of the attempt machine.
type State int

const (
	FirstAttempt State = iota
	Retry
	TopUp
	Done
)

// MaxCalls bounds the completion calls made for one request.
const MaxCalls = 2

func (s State) String() string {
	switch s {
	case FirstAttempt:
		return "first_attempt"
	case Retry:
		return "retry"
	case TopUp:
		return "top_up"
	default:
		return "done"
	}
}

// next returns the state following s once count results are held.
// Only the first attempt can lead to another call.
func next(s State, count int) State {
	if s != FirstAttempt {
		return Done
	}
	switch {
	case count == 0:
		return Retry
	case count < normalize.MaxResults:
		return TopUp
	default:
		return Done
	}
}

// Matcher runs the attempt machine against a completer.
type Matcher struct {
	completer llm.Completer
	maxTokens int
	logger    *zap.Logger
}

// New creates a matcher
func New(completer llm.Completer, maxTokens int, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		completer: completer,
		maxTokens: maxTokens,
		logger:    logger.Named("matcher"),
	}
}

// Match returns up to three de-duplicated results ranked 1..n. An empty
// slice with a nil error means the provider produced nothing usable. A
// failed completion call is returned as an error, except on the top-up
// pass where the results already held are kept.
func (m *Matcher) Match(ctx context.Context, place, region string) ([]model.NormalizedResult, error) {
	results := []model.NormalizedResult{}
	state := FirstAttempt

	for calls := 0; state != Done && calls < MaxCalls; calls++ {
		text, err := m.completer.Complete(ctx, m.request(state, place, region, results))
		if err != nil {
			metrics.MatchAttempts.WithLabelValues(state.String(), "error").Inc()
			if state == TopUp && ctx.Err() == nil {
				m.logger.Warn("Top-up completion failed, keeping partial results",
					zap.Int("results", len(results)),
					zap.Error(err),
				)
				break
			}
			return nil, fmt.Errorf("completion failed on %s: %w", state, err)
		}

		var got []model.NormalizedResult
		switch resp := ParseResponse(text).(type) {
		case Parsed:
			got = normalize.Results(resp.Candidates)
			metrics.MatchAttempts.WithLabelValues(state.String(), "ok").Inc()
		case ParseFailure:
			metrics.MatchAttempts.WithLabelValues(state.String(), "parse_failure").Inc()
			m.logger.Info("Unparseable completion",
				zap.String("state", state.String()),
				zap.String("reason", resp.Reason),
			)
		}

		results = merge(results, got)
		following := next(state, len(results))
		m.logger.Info("Match attempt",
			zap.String("state", state.String()),
			zap.String("next", following.String()),
			zap.Int("received", len(got)),
			zap.Int("results", len(results)),
		)
		state = following
	}
	return results, nil
}

func (m *Matcher) request(state State, place, region string, have []model.NormalizedResult) llm.Request {
	req := llm.Request{System: systemPrompt, MaxTokens: m.maxTokens, JSONMode: true}
	switch state {
	case Retry:
		req.User = retryPrompt(place, region)
	case TopUp:
		names := make([]string, len(have))
		for i, r := range have {
			names[i] = r.Match + ", " + r.City
		}
		req.User = topUpPrompt(place, region, names, normalize.MaxResults-len(have))
	default:
		req.User = firstPrompt(place, region)
	}
	return req
}

// merge appends the results of got that are not yet held, keyed
// case-insensitively on "match, city", keeps at most three and re-ranks.
func merge(have, got []model.NormalizedResult) []model.NormalizedResult {
	seen := make(map[string]bool, len(have)+len(got))
	out := make([]model.NormalizedResult, 0, normalize.MaxResults)
	for _, r := range append(append([]model.NormalizedResult{}, have...), got...) {
		if len(out) == normalize.MaxResults {
			break
		}
		key := normalize.Key(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		r.Rank = len(out) + 1
		out = append(out, r)
	}
	return out
}
