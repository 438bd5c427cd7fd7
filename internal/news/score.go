package news

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/alexivanou/placematch-api/internal/feed"
)

var (
	hotelTitleRe = regexp.MustCompile(`(?i)\b(hotels?|where to stay|stays?|accommodations?|lodging|inns?|resorts?|boutique)\b`)
	foodRe       = regexp.MustCompile(`(?i)\b(best restaurants|where to eat|food guide|foodie|restaurants|best bars)\b`)
	premiumRe    = regexp.MustCompile(`(?i)(cntraveler|travelandleisure|lonelyplanet|afar\.com|fodors|condé nast traveler|conde nast traveler|travel \+ leisure|lonely planet)`)
)

// Scorer filters and ranks feed items.
type Scorer struct {
	negative *regexp.Regexp
	travel   *regexp.Regexp
}

// NewScorer builds a scorer from the negative keyword list and the
// travel-publisher pattern. Either may be empty or nil.
func NewScorer(negative []string, travel *regexp.Regexp) *Scorer {
	return &Scorer{negative: negativePattern(negative), travel: travel}
}

func negativePattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// IsNegative reports whether the item's title or description contains a
// negative keyword.
func (s *Scorer) IsNegative(item feed.Item) bool {
	return s.negative != nil && s.negative.MatchString(item.Text())
}

// Score rates an item: +6 for hotel phrasing in the title, +1..3 for the
// publisher and +1 for food roundup phrasing.
func (s *Scorer) Score(item feed.Item) int {
	score := 0
	if hotelTitleRe.MatchString(item.Title) {
		score += 6
	}
	score += s.domainBonus(item)
	if foodRe.MatchString(item.Text()) {
		score++
	}
	return score
}

func (s *Scorer) domainBonus(item feed.Item) int {
	origin := strings.ToLower(strings.Join([]string{host(item.SourceURL), host(item.Link), item.Source}, " "))
	switch {
	case premiumRe.MatchString(origin):
		return 3
	case s.travel != nil && s.travel.MatchString(origin):
		return 2
	case strings.Contains(origin, "travel"):
		return 1
	}
	return 0
}

// Pick returns the highest scoring negative-free item. When nothing scores
// it falls back to the first negative-free item, and to nil when every
// item is excluded.
func (s *Scorer) Pick(items []feed.Item) *feed.Item {
	var fallback, best *feed.Item
	bestScore := 0
	for i := range items {
		item := &items[i]
		if s.IsNegative(*item) {
			continue
		}
		if fallback == nil {
			fallback = item
		}
		if sc := s.Score(*item); sc > bestScore {
			best, bestScore = item, sc
		}
	}
	if best != nil {
		return best
	}
	return fallback
}

func host(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
