package matcher

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a well-travelled local guide. You match neighborhoods and small towns across the world by their feel: architecture, street life, food, nightlife, pace and the people who live there. You answer with strict JSON only, never markdown.`

const fullSchema = `{
  "results": [
    {
      "rank": 1,
      "match": "neighborhood or town name",
      "city": "city it belongs to",
      "region": "state, province or country",
      "blurb": "two or three sentences on why it feels similar",
      "whatMakesItSpecial": ["3 to 5 short bullets"],
      "landmarks": [{"name": "landmark", "why": "one short sentence"}],
      "tags": ["3 to 6 short tags"],
      "score": 0.0
    }
  ]
}`

func firstPrompt(place, region string) string {
	return fmt.Sprintf(`Find exactly 3 neighborhoods or small towns in %s that feel most like %s.

Return JSON matching this schema:
%s

Rules:
- exactly 3 results, ranked 1 to 3, best match first
- whatMakesItSpecial has 3 to 5 items
- landmarks has exactly 3 items
- tags has 3 to 6 items
- score is a number between 0 and 1
- every place must really exist in %s`, region, place, fullSchema, region)
}

func retryPrompt(place, region string) string {
	return fmt.Sprintf(`List 3 real neighborhoods or towns in %s similar in feel to %s.
Reply with JSON only: {"results":[{"match":"","city":"","region":"","blurb":""}]}`, region, place)
}

func topUpPrompt(place, region string, have []string, want int) string {
	return fmt.Sprintf(`Find %d more neighborhoods or small towns in %s that feel like %s.
Do not repeat any of these: %s.

Return JSON matching this schema:
%s

Every place must really exist in %s.`, want, region, place, strings.Join(have, "; "), fullSchema, region)
}
