package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alexivanou/placematch-api/internal/config"
	"github.com/alexivanou/placematch-api/internal/database"
	"github.com/alexivanou/placematch-api/internal/enrich"
	"github.com/alexivanou/placematch-api/internal/geo"
	"github.com/alexivanou/placematch-api/internal/llm"
	"github.com/alexivanou/placematch-api/internal/matcher"
	"github.com/alexivanou/placematch-api/internal/model"
	"github.com/alexivanou/placematch-api/internal/news"
	"github.com/alexivanou/placematch-api/internal/repository"
	"github.com/alexivanou/placematch-api/internal/service"
	"github.com/alexivanou/placematch-api/internal/stats"
	"github.com/alexivanou/placematch-api/internal/wiki"
)

const completionContent = `{"results":[
  {"match":"Bairro Alto","city":"Lisbon","region":"Lisbon","blurb":"Nightlife and street art on steep lanes.",
   "whatMakesItSpecial":["bars","murals"],"landmarks":[{"name":"Miradouro de São Pedro de Alcântara","why":"views"}]},
  {"match":"Cais do Sodré","city":"Lisbon","region":"Lisbon","blurb":"Former docks turned party strip.","score":0.8,"tags":["nightlife"]},
  {"match":"Intendente","city":"Lisbon","region":"Lisbon","blurb":"Up-and-coming creative quarter.","score":1.7}
]}`

type integrationStack struct {
	handler     http.Handler
	llmCalls    *atomic.Int32
	lookupCalls *atomic.Int32
}

func setupIntegrationStack(t *testing.T) *integrationStack {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dbCfg := config.DBConfig{
		Type: config.DBTypeMemory,
		Name: fmt.Sprintf("testdb_%d", rng.Int()),
	}

	db, err := database.Connect(context.Background(), dbCfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations/sqlite", "sqlite3", driver)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	ctx := context.Background()
	_, err = db.ExecContext(ctx, "INSERT INTO countries (code, name) VALUES ('PT', 'Portugal')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO cities (id, country_code, name, ascii_name, population, lat, lon)
		VALUES (2267057, 'PT', 'Lisbon', 'Lisbon', 517802, 38.71667, -9.13333)`)
	require.NoError(t, err)

	stack := &integrationStack{llmCalls: &atomic.Int32{}, lookupCalls: &atomic.Int32{}}

	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stack.llmCalls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": completionContent}}},
		})
	}))
	t.Cleanup(llmServer.Close)

	// Every enrichment upstream is down
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stack.lookupCalls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	enrichCfg := config.EnrichConfig{
		UserAgent:    "placematch-api/test",
		NewsFeedURL:  upstream.URL + "/rss/search",
		NewsTimeout:  2 * time.Second,
		Timeout:      3 * time.Second,
		WikipediaURL: upstream.URL,
		WikidataURL:  upstream.URL,
		NominatimURL: upstream.URL,
		NominatimRPS: 100,
		StaticMapURL: "https://maps.example/static",
	}
	policy := config.Policy{
		AllowedOrigins:      []string{"*"},
		NegativeKeywords:    config.DefaultNegativeKeywords,
		TravelDomainPattern: regexp.MustCompile(config.DefaultTravelDomainPattern),
	}

	repos := repository.NewRepositories(db, config.DBTypeMemory)
	wikiClient := wiki.NewClient(enrichCfg, nil)
	enricher := enrich.New(enrich.Sources{
		Images:   wikiClient,
		News:     news.NewClient(enrichCfg, policy, nil),
		Maps:     geo.NewGeocoder(enrichCfg, repos, nil),
		Websites: wikiClient,
	}, enrichCfg.Timeout, nil)

	completer := llm.NewOpenAI(llmServer.URL, "sk-test", "gpt-test", llmServer.Client())
	svc := service.NewService(matcher.New(completer, 800, nil), enricher, service.Config{
		Version: "test",
		Mode:    completer.Name(),
	}, nil)

	stack.handler = NewRouter(svc, RouterConfig{
		Name:    "placematch-api",
		Version: "test",
		Policy:  policy,
		Stats:   stats.NewCollector(db, dbCfg),
	}, zaptest.NewLogger(t))
	return stack
}

func TestAPI_Integration_Match(t *testing.T) {
	stack := setupIntegrationStack(t)

	req := httptest.NewRequest(http.MethodPost, "/api/like", strings.NewReader(`{"place":"Shoreditch","region":"Lisbon"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	stack.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int32(1), stack.llmCalls.Load())
	assert.Positive(t, stack.lookupCalls.Load())

	var resp model.MatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "Shoreditch", resp.Place)
	assert.Equal(t, "Lisbon", resp.Region)
	assert.Empty(t, resp.Note)
	require.Len(t, resp.Results, 3)

	first := resp.Results[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "Bairro Alto", first.Match)
	assert.Equal(t, 0.75, first.Score)
	assert.Equal(t, []string{}, first.Tags)
	assert.Equal(t, "openai", first.Source)
	assert.Nil(t, first.Image)
	assert.Nil(t, first.News)
	assert.Nil(t, first.TourismURL)

	// Nominatim is down, the gazetteer still places the result in Lisbon
	require.NotNil(t, first.Map)
	require.NotNil(t, first.Map.Lat)
	assert.InDelta(t, 38.71667, *first.Map.Lat, 1e-6)
	assert.Contains(t, first.Map.GMaps, "38.716670%2C-9.133330")

	assert.Equal(t, 2, resp.Results[1].Rank)
	assert.Equal(t, 0.8, resp.Results[1].Score)
	assert.Equal(t, []string{"nightlife"}, resp.Results[1].Tags)
	assert.Equal(t, 1.0, resp.Results[2].Score)

	// Nulls are serialized, not omitted
	assert.Contains(t, rr.Body.String(), `"image":null`)
	assert.Contains(t, rr.Body.String(), `"news":null`)
}

func TestAPI_Integration_ValidationSkipsUpstreams(t *testing.T) {
	stack := setupIntegrationStack(t)

	req := httptest.NewRequest(http.MethodGet, "/api/like?place=Shoreditch", nil)
	rr := httptest.NewRecorder()
	stack.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, stack.llmCalls.Load())
	assert.Zero(t, stack.lookupCalls.Load())
}

func TestAPI_Integration_Status(t *testing.T) {
	stack := setupIntegrationStack(t)

	rr := httptest.NewRecorder()
	stack.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/like", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp model.HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "openai", resp.Mode)
}

func TestAPI_Integration_Stats(t *testing.T) {
	stack := setupIntegrationStack(t)

	rr := httptest.NewRecorder()
	stack.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp stats.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Gazetteer.TotalRecords)
	assert.Equal(t, "Lisbon", resp.Gazetteer.LargestCity)
}
