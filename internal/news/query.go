package news

import (
	"strings"
)

// Pass selects the phrasing of a news query.
type Pass int

const (
	// HotelPass favors "where to stay" roundups on travel publishers.
	HotelPass Pass = iota
	// BroadPass widens the search to food and general travel coverage.
	BroadPass
)

func (p Pass) String() string {
	if p == HotelPass {
		return "hotel"
	}
	return "broad"
}

var hotelPhrases = []string{`"where to stay"`, `"best hotels"`, `"boutique hotel"`, "hotel", "hotels"}

var broadPhrases = []string{"food", "restaurants", `"where to eat"`, "travel", `"things to do"`}

// travelSites are the publishers the hotel pass restricts itself to.
var travelSites = []string{
	"cntraveler.com",
	"travelandleisure.com",
	"lonelyplanet.com",
	"timeout.com",
	"afar.com",
	"fodors.com",
	"nytimes.com",
	"theguardian.com",
	"telegraph.co.uk",
	"eater.com",
}

// BuildQuery composes the provider query for place in the given pass,
// excluding every negative keyword.
func BuildQuery(place string, pass Pass, negative []string) string {
	place = strings.Join(strings.Fields(strings.ReplaceAll(place, `"`, "")), " ")
	parts := []string{`"` + place + `"`}

	switch pass {
	case HotelPass:
		parts = append(parts, group(hotelPhrases, ""))
		parts = append(parts, group(travelSites, "site:"))
	default:
		parts = append(parts, group(broadPhrases, ""))
	}

	for _, kw := range negative {
		kw = strings.TrimSpace(strings.ReplaceAll(kw, `"`, ""))
		if kw == "" {
			continue
		}
		if strings.Contains(kw, " ") {
			parts = append(parts, `-"`+kw+`"`)
		} else {
			parts = append(parts, "-"+kw)
		}
	}
	return strings.Join(parts, " ")
}

func group(terms []string, prefix string) string {
	prefixed := make([]string, len(terms))
	for i, t := range terms {
		prefixed[i] = prefix + t
	}
	return "(" + strings.Join(prefixed, " OR ") + ")"
}
