package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// officialWebsiteProperty is the Wikidata "official website" property.
const officialWebsiteProperty = "P856"

type entitySearchResponse struct {
	Search []entityHit `json:"search"`
}

type entityHit struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type entityDataResponse struct {
	Entities map[string]struct {
		Claims map[string][]struct {
			Mainsnak struct {
				Datavalue struct {
					Value json.RawMessage `json:"value"`
				} `json:"datavalue"`
			} `json:"mainsnak"`
		} `json:"claims"`
	} `json:"entities"`
}

var descriptionWeights = []struct {
	terms  []string
	weight int
}{
	{[]string{"city"}, 3},
	{[]string{"town"}, 3},
	{[]string{"village"}, 3},
	{[]string{"borough"}, 2},
	{[]string{"neighborhood", "neighbourhood"}, 3},
	{[]string{"hamlet"}, 2},
	{[]string{"county"}, 1},
	{[]string{"municipality"}, 2},
	{[]string{"district"}, 1},
	{[]string{"tourism"}, 1},
}

// FindOfficialWebsite resolves the official website of a place. An empty
// string with a nil error means the place has none on record.
func (c *Client) FindOfficialWebsite(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	site, err := c.wikidataWebsite(ctx, name)
	if site != "" || ctx.Err() != nil {
		return site, err
	}
	if c.tourismGuess {
		if guess := c.checkGuesses(ctx, name); guess != "" {
			return guess, nil
		}
	}
	return "", err
}

func (c *Client) wikidataWebsite(ctx context.Context, name string) (string, error) {
	id, err := c.searchEntity(ctx, name)
	if err != nil || id == "" {
		return "", err
	}
	return c.entityWebsite(ctx, id)
}

func (c *Client) searchEntity(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("language", "en")
	params.Set("format", "json")
	params.Set("search", name)
	params.Set("type", "item")
	params.Set("limit", "5")

	var resp entitySearchResponse
	if err := c.getJSON(ctx, "wikidata", c.wikidataURL+"/w/api.php", params, &resp); err != nil {
		return "", ignoreNotFound(err)
	}
	return bestEntity(resp.Search, name), nil
}

// bestEntity ranks search hits by how place-like their description is.
func bestEntity(hits []entityHit, name string) string {
	type scored struct {
		id    string
		score int
	}
	ranked := make([]scored, 0, len(hits))
	for _, h := range hits {
		if h.ID == "" {
			continue
		}
		ranked = append(ranked, scored{id: h.ID, score: scoreDescription(h.Description, name)})
	}
	if len(ranked) == 0 {
		return ""
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return ranked[0].id
}

func scoreDescription(desc, name string) int {
	d := strings.ToLower(desc)
	score := 0
	for _, w := range descriptionWeights {
		for _, term := range w.terms {
			if strings.Contains(d, term) {
				score += w.weight
				break
			}
		}
	}
	first := strings.TrimSpace(strings.SplitN(strings.ToLower(name), ",", 2)[0])
	if first != "" && strings.Contains(d, first) {
		score++
	}
	return score
}

func (c *Client) entityWebsite(ctx context.Context, id string) (string, error) {
	endpoint := c.wikidataURL + "/wiki/Special:EntityData/" + url.PathEscape(id) + ".json"

	var resp entityDataResponse
	if err := c.getJSON(ctx, "wikidata", endpoint, nil, &resp); err != nil {
		return "", ignoreNotFound(err)
	}
	entity, ok := resp.Entities[id]
	if !ok {
		return "", nil
	}
	claims := entity.Claims[officialWebsiteProperty]
	if len(claims) == 0 {
		return "", nil
	}
	var site string
	if err := json.Unmarshal(claims[0].Mainsnak.Datavalue.Value, &site); err != nil {
		return "", nil
	}
	return site, nil
}

// guessCandidates builds the conventional municipal and tourism-board
// hostnames for the first comma segment of name.
func guessCandidates(name string) []string {
	token := strings.ToLower(strings.SplitN(name, ",", 2)[0])
	token = strings.Join(strings.Fields(token), "")
	if len([]rune(token)) < 3 {
		return nil
	}
	return []string{
		"https://www." + token + ".gov",
		"https://www." + token + ".org",
		"https://visit" + token + ".com",
		"https://www." + token + "tourism.com",
	}
}

func (c *Client) checkGuesses(ctx context.Context, name string) string {
	for _, candidate := range c.guessURLs(name) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, candidate, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", c.userAgent)
		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ""
			}
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			c.logger.Debug("Guessed tourism site", zap.String("name", name), zap.String("url", candidate))
			return candidate
		}
	}
	return ""
}
