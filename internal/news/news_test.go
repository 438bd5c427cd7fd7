package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/feed"
)

func rssDoc(items ...string) string {
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>` +
		strings.Join(items, "") + `</channel></rss>`
}

func rssItem(title, link, description string) string {
	return "<item><title>" + title + "</title><link>" + link + "</link><description>" +
		description + "</description></item>"
}

func testPolicy() config.Policy {
	return config.Policy{
		NegativeKeywords:    []string{"shooting", "murder", "lawsuit"},
		TravelDomainPattern: regexp.MustCompile(config.DefaultTravelDomainPattern),
	}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(`Shoreditch  "London"`, HotelPass, []string{"shooting", "house fire", ""})

	assert.True(t, strings.HasPrefix(q, `"Shoreditch London"`))
	assert.Contains(t, q, `"where to stay"`)
	assert.Contains(t, q, "site:cntraveler.com OR site:travelandleisure.com")
	assert.Contains(t, q, "-shooting")
	assert.Contains(t, q, `-"house fire"`)

	broad := BuildQuery("Shoreditch", BroadPass, nil)
	assert.NotContains(t, broad, "site:")
	assert.Contains(t, broad, "restaurants")
}

func TestScorer_Pick(t *testing.T) {
	policy := testPolicy()
	scorer := NewScorer(policy.NegativeKeywords, policy.TravelDomainPattern)

	tests := []struct {
		name      string
		items     []feed.Item
		wantTitle string
		wantNil   bool
	}{
		{
			name: "hotel roundup beats negative item",
			items: []feed.Item{
				{Title: "Shooting near Shoreditch station", Link: "https://news.example.com/1", Description: "Police say"},
				{Title: "The best hotels in Shoreditch", Link: "https://www.cntraveler.com/story/shoreditch"},
			},
			wantTitle: "The best hotels in Shoreditch",
		},
		{
			name: "negative keyword in description excludes item",
			items: []feed.Item{
				{Title: "Boutique hotel opens", Description: "Owners face a LAWSUIT over noise"},
				{Title: "Neighborhood guide", Link: "https://blog.example.com/guide"},
			},
			wantTitle: "Neighborhood guide",
		},
		{
			name: "word boundary avoids false positives",
			items: []feed.Item{
				{Title: "Murderous prices in Hackney", Description: ""},
				{Title: "Photo shootings at the hotel", Description: "A studio in Hackney"},
			},
			wantTitle: "Photo shootings at the hotel",
		},
		{
			name: "publisher bonus breaks ties",
			items: []feed.Item{
				{Title: "Hotels we love", Link: "https://blog.example.com/a"},
				{Title: "Hotels we adore", Link: "https://www.lonelyplanet.com/a"},
			},
			wantTitle: "Hotels we adore",
		},
		{
			name: "no score falls back to first clean item",
			items: []feed.Item{
				{Title: "Murder trial begins"},
				{Title: "Local council meets", Link: "https://council.example.com"},
				{Title: "Another update", Link: "https://other.example.com"},
			},
			wantTitle: "Local council meets",
		},
		{
			name: "all negative yields nil",
			items: []feed.Item{
				{Title: "Shooting downtown"},
				{Title: "Murder suspect held"},
			},
			wantNil: true,
		},
		{
			name:    "empty feed yields nil",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Pick(tt.items)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantTitle, got.Title)
		})
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(nil, regexp.MustCompile(config.DefaultTravelDomainPattern))

	assert.Equal(t, 6+3, scorer.Score(feed.Item{Title: "Where to stay in Rome", SourceURL: "https://www.cntraveler.com"}))
	assert.Equal(t, 2, scorer.Score(feed.Item{Title: "Rome guide", Link: "https://www.timeout.com/rome"}))
	assert.Equal(t, 1, scorer.Score(feed.Item{Title: "Rome guide", Description: "The best restaurants near the Forum"}))
	assert.Equal(t, 0, scorer.Score(feed.Item{Title: "Council meeting", Link: "https://example.com"}))
	assert.False(t, scorer.IsNegative(feed.Item{Title: "anything"}))
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	cfg := config.EnrichConfig{NewsFeedURL: url, NewsTimeout: timeout, UserAgent: "test-agent"}
	return NewClient(cfg, testPolicy(), zaptest.NewLogger(t))
}

func TestClient_FindArticle(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Contains(t, r.URL.Query().Get("q"), `"Shoreditch London"`)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssDoc(
			rssItem("Shooting in Shoreditch", "https://news.example.com/bad", "Police respond"),
			rssItem("Where to stay in Shoreditch", "https://www.cntraveler.com/stay", "&lt;b&gt;Ten&lt;/b&gt; great hotels"),
		)))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	item, err := client.FindArticle(context.Background(), "Shoreditch London")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Where to stay in Shoreditch", item.Title)
	assert.Equal(t, "https://www.cntraveler.com/stay", item.URL)
	assert.Equal(t, "Ten great hotels", item.Snippet)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_FindArticle_BroadPassOnlyWhenHotelPassEmpty(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if strings.Contains(q, "site:") {
			w.Write([]byte(rssDoc(rssItem("Murder inquiry", "https://news.example.com/x", ""))))
			return
		}
		w.Write([]byte(rssDoc(rssItem("Where to eat in Shoreditch", "https://www.eater.com/x", "Food guide"))))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	item, err := client.FindArticle(context.Background(), "Shoreditch")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Where to eat in Shoreditch", item.Title)
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "site:")
	assert.NotContains(t, queries[1], "site:")
}

func TestClient_FindArticle_MalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not a feed"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	item, err := client.FindArticle(context.Background(), "Shoreditch")
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestClient_FindArticle_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50*time.Millisecond)
	item, err := client.FindArticle(context.Background(), "Shoreditch")
	assert.Error(t, err)
	assert.Nil(t, item)
}

func TestClient_FindArticle_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	item, err := client.FindArticle(context.Background(), "Shoreditch")
	assert.ErrorContains(t, err, "503")
	assert.Nil(t, item)
}
