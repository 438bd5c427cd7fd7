package wiki

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/alexivanou/placematch-api/internal/model"
)

const (
	thumbSize        = "800"
	generatorResults = "5"
)

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type thumbnail struct {
	Source string `json:"source"`
}

type page struct {
	Title     string     `json:"title"`
	Index     int        `json:"index"`
	Thumbnail *thumbnail `json:"thumbnail"`
}

type pagesResponse struct {
	Query struct {
		Pages []page `json:"pages"`
	} `json:"query"`
}

type summaryResponse struct {
	Title         string     `json:"title"`
	Thumbnail     *thumbnail `json:"thumbnail"`
	OriginalImage *thumbnail `json:"originalimage"`
}

// FindImage returns a representative image for the first query that yields
// one. Each query goes through title search, page thumbnail, page summary
// and finally generator search. A nil image with a nil error means nothing
// was found.
func (c *Client) FindImage(ctx context.Context, queries ...string) (*model.ImageRef, error) {
	var lastErr error
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		ref, err := c.imageFor(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if ref != nil {
			return ref, nil
		}
	}
	return nil, lastErr
}

func (c *Client) imageFor(ctx context.Context, query string) (*model.ImageRef, error) {
	var errs []error

	title, err := c.searchTitle(ctx, query)
	if err != nil {
		errs = append(errs, err)
	}
	if title != "" {
		src, err := c.pageThumbnail(ctx, title)
		if err != nil {
			errs = append(errs, err)
		}
		if src == "" {
			if src, err = c.summaryImage(ctx, title); err != nil {
				errs = append(errs, err)
			}
		}
		if src != "" {
			return newImageRef(src, title), nil
		}
	}

	p, err := c.generatorSearch(ctx, query)
	if err != nil {
		errs = append(errs, err)
	}
	if p != nil {
		return newImageRef(p.Thumbnail.Source, p.Title), nil
	}

	c.logger.Debug("No image found", zap.String("query", query), zap.Int("errors", len(errs)))
	return nil, errors.Join(errs...)
}

func (c *Client) searchTitle(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", "1")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var resp searchResponse
	if err := c.getJSON(ctx, "wikipedia", c.wikipediaURL+"/w/api.php", params, &resp); err != nil {
		return "", ignoreNotFound(err)
	}
	if len(resp.Query.Search) == 0 {
		return "", nil
	}
	return resp.Query.Search[0].Title, nil
}

func (c *Client) pageThumbnail(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "pageimages")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", thumbSize)
	params.Set("titles", title)
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var resp pagesResponse
	if err := c.getJSON(ctx, "wikipedia", c.wikipediaURL+"/w/api.php", params, &resp); err != nil {
		return "", ignoreNotFound(err)
	}
	for _, p := range resp.Query.Pages {
		if p.Thumbnail != nil && p.Thumbnail.Source != "" {
			return p.Thumbnail.Source, nil
		}
	}
	return "", nil
}

func (c *Client) summaryImage(ctx context.Context, title string) (string, error) {
	endpoint := c.wikipediaURL + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	var resp summaryResponse
	if err := c.getJSON(ctx, "wikipedia", endpoint, nil, &resp); err != nil {
		return "", ignoreNotFound(err)
	}
	switch {
	case resp.Thumbnail != nil && resp.Thumbnail.Source != "":
		return resp.Thumbnail.Source, nil
	case resp.OriginalImage != nil && resp.OriginalImage.Source != "":
		return resp.OriginalImage.Source, nil
	}
	return "", nil
}

// generatorSearch returns the best ranked search hit that has a thumbnail.
func (c *Client) generatorSearch(ctx context.Context, query string) (*page, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", generatorResults)
	params.Set("prop", "pageimages")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", thumbSize)
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var resp pagesResponse
	if err := c.getJSON(ctx, "wikipedia", c.wikipediaURL+"/w/api.php", params, &resp); err != nil {
		return nil, ignoreNotFound(err)
	}

	pages := resp.Query.Pages
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	for i := range pages {
		if pages[i].Thumbnail != nil && pages[i].Thumbnail.Source != "" {
			return &pages[i], nil
		}
	}
	return nil, nil
}

func newImageRef(src, title string) *model.ImageRef {
	return &model.ImageRef{URL: src, Attribution: "Wikipedia: " + title}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}
