package api

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsbot/internal/models"
)

type stubSearcher struct {
	matches  []models.EntityMatch
	lastType models.EntityType
	lastQ    string
	lastLim  int
	lastMin  float64
	calls    int
}

func (s *stubSearcher) Search(ctx context.Context, entityType models.EntityType, query string, limit int, minScore float64) ([]models.EntityMatch, error) {
	s.calls++
	s.lastType = entityType
	s.lastQ = query
	s.lastLim = limit
	s.lastMin = minScore
	return s.matches, nil
}

func newSearchApp(searcher *stubSearcher, cache fiber.Storage) *fiber.App {
	app := fiber.New()
	app.Get("/search/fuzzy", NewSearchHandler(searcher, cache).Fuzzy)
	return app
}

func TestSearchFuzzy(t *testing.T) {
	searcher := &stubSearcher{matches: []models.EntityMatch{
		{ID: 7, Label: "Acme Corp", Score: 0.92},
	}}
	app := newSearchApp(searcher, nil)

	req, _ := http.NewRequest("GET", "/search/fuzzy?type=customer&q=acme&limit=5&minScore=0.4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"matches":[{"id":7,"label":"Acme Corp","score":0.92}]}`, string(body))

	assert.Equal(t, models.EntityCustomer, searcher.lastType)
	assert.Equal(t, "acme", searcher.lastQ)
	assert.Equal(t, 5, searcher.lastLim)
	assert.InDelta(t, 0.4, searcher.lastMin, 1e-9)
}

func TestSearchFuzzyEmptyResultIsArray(t *testing.T) {
	app := newSearchApp(&stubSearcher{}, nil)

	req, _ := http.NewRequest("GET", "/search/fuzzy?type=part&q=nothing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"matches":[]}`, string(body))
}

func TestSearchFuzzyBadRequests(t *testing.T) {
	app := newSearchApp(&stubSearcher{}, nil)

	tests := []struct {
		name string
		url  string
	}{
		{"unknown type", "/search/fuzzy?type=warehouse&q=acme"},
		{"missing type", "/search/fuzzy?q=acme"},
		{"missing query", "/search/fuzzy?type=customer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSearchFuzzyParamClamping(t *testing.T) {
	searcher := &stubSearcher{}
	app := newSearchApp(searcher, nil)

	req, _ := http.NewRequest("GET", "/search/fuzzy?type=vendor&q=globex&limit=9999&minScore=7", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 50, searcher.lastLim)
	assert.InDelta(t, 1, searcher.lastMin, 1e-9)
}

// memoryStorage is a minimal fiber.Storage for exercising the cache path.
type memoryStorage struct {
	data map[string][]byte
}

func (m *memoryStorage) Get(key string) ([]byte, error) { return m.data[key], nil }
func (m *memoryStorage) Set(key string, val []byte, _ time.Duration) error {
	m.data[key] = val
	return nil
}
func (m *memoryStorage) Delete(key string) error { delete(m.data, key); return nil }
func (m *memoryStorage) Reset() error            { m.data = map[string][]byte{}; return nil }
func (m *memoryStorage) Close() error            { return nil }

func (m *memoryStorage) GetWithContext(_ context.Context, key string) ([]byte, error) {
	return m.Get(key)
}
func (m *memoryStorage) SetWithContext(_ context.Context, key string, val []byte, exp time.Duration) error {
	return m.Set(key, val, exp)
}
func (m *memoryStorage) DeleteWithContext(_ context.Context, key string) error {
	return m.Delete(key)
}
func (m *memoryStorage) ResetWithContext(_ context.Context) error { return m.Reset() }

func TestSearchFuzzyCachesResponses(t *testing.T) {
	searcher := &stubSearcher{matches: []models.EntityMatch{{ID: 3, Label: "Globex Supply", Score: 0.8}}}
	cache := &memoryStorage{data: map[string][]byte{}}
	app := newSearchApp(searcher, cache)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/search/fuzzy?type=vendor&q=globex", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"matches":[{"id":3,"label":"Globex Supply","score":0.8}]}`, string(body))
	}

	assert.Equal(t, 1, searcher.calls, "second request must be served from the cache")
}
