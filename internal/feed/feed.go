// Package feed extracts article fields from RSS documents.
package feed

import (
	"fmt"
	"strings"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"

	"github.com/alexivanou/placematch-api/internal/sanitize"
)

// Item is the subset of an RSS <item> used for article selection.
type Item struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Source      string
	SourceURL   string
}

// Text returns the title and description joined for keyword matching.
func (i Item) Text() string {
	return i.Title + " " + i.Description
}

// ParseItems parses an RSS document and returns at most limit items with
// sanitized title and description. A limit <= 0 returns every item.
func ParseItems(doc string, limit int) ([]Item, error) {
	parser := &rss.Parser{}
	f, err := parser.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rss: %w", err)
	}

	items := make([]Item, 0, len(f.Items))
	for _, raw := range f.Items {
		if raw == nil {
			continue
		}
		if limit > 0 && len(items) >= limit {
			break
		}
		item := Item{
			Title:       sanitize.Text(raw.Title),
			Link:        strings.TrimSpace(raw.Link),
			Description: sanitize.Text(raw.Description),
			ImageURL:    imageURL(raw),
		}
		if raw.Source != nil {
			item.Source = sanitize.Text(raw.Source.Title)
			item.SourceURL = strings.TrimSpace(raw.Source.URL)
		}
		if item.Title == "" && item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// imageURL looks for a picture in the enclosure, then media:content,
// media:thumbnail and media:group children.
func imageURL(item *rss.Item) string {
	if item.Enclosure != nil && item.Enclosure.URL != "" {
		if item.Enclosure.Type == "" || strings.HasPrefix(item.Enclosure.Type, "image/") {
			return item.Enclosure.URL
		}
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	if u := firstURL(media["content"]); u != "" {
		return u
	}
	if u := firstURL(media["thumbnail"]); u != "" {
		return u
	}
	for _, group := range media["group"] {
		if u := firstURL(group.Children["content"]); u != "" {
			return u
		}
		if u := firstURL(group.Children["thumbnail"]); u != "" {
			return u
		}
	}
	return ""
}

func firstURL(exts []ext.Extension) string {
	for _, e := range exts {
		if medium, ok := e.Attrs["medium"]; ok && medium != "image" {
			continue
		}
		if u := strings.TrimSpace(e.Attrs["url"]); u != "" {
			return u
		}
	}
	return ""
}
