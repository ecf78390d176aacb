package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	queries []search.Query
	err     error
}

var moscow = core.Match{
	GeonameID: 524901,
	Name:      "Moscow",
	Region:    "Moscow",
	Country:   "Russia",
	Latitude:  55.75222,
	Longitude: 37.61556,
	Score:     0.98,
}

func (f *fakeFinder) Find(_ context.Context, q search.Query) (*core.Resolution, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, search.ErrEmptyQuery
	}
	return &core.Resolution{
		ID:        "test",
		Query:     q.Text,
		Corrected: "Moscow",
		Stages:    []core.Stage{core.StageSpellCheck},
		Matches:   []core.Match{moscow},
	}, nil
}

func (f *fakeFinder) Suggest(prefix string, limit int) []string {
	if prefix == "" {
		return []string{}
	}
	return []string{"Moscow", "Mozhaysk"}[:min(limit, 2)]
}

func (f *fakeFinder) Nearest(lat, lon float64, k int) ([]core.Match, error) {
	if !core.IsValidCoordinate(lat, lon) {
		return nil, search.ErrInvalidCoordinates
	}
	m := moscow
	m.Score = 0
	m.DistanceKm = 1.2
	return []core.Match{m}, nil
}

func (f *fakeFinder) Len() int { return 1 }

func do(t *testing.T, s *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	s := New(&fakeFinder{})

	rec := do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="city"`)
}

func TestSubmit(t *testing.T) {
	t.Run("renders table", func(t *testing.T) {
		finder := &fakeFinder{}
		s := New(finder, WithTopK(1, 10))

		rec := do(t, s, http.MethodPost, "/", url.Values{
			"city":            {"Mascow"},
			"top_k":           {"50"},
			"adv_spell_check": {"on"},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<td>Moscow</td>")
		require.Len(t, finder.queries, 1)
		assert.Equal(t, search.Query{Text: "Mascow", TopK: 10, AdvancedSpellCheck: true}, finder.queries[0])
	})

	t.Run("renders json", func(t *testing.T) {
		finder := &fakeFinder{}
		s := New(finder)

		rec := do(t, s, http.MethodPost, "/", url.Values{"city": {"Moscow"}, "output_dict_json": {"on"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "cos_sim_score")
		assert.False(t, finder.queries[0].SaveJSON, "the form renders json without writing files")
	})

	t.Run("empty city", func(t *testing.T) {
		rec := do(t, New(&fakeFinder{}), http.MethodPost, "/", url.Values{"city": {" "}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="error"`)
	})

	t.Run("bad top_k", func(t *testing.T) {
		finder := &fakeFinder{}
		rec := do(t, New(finder), http.MethodPost, "/", url.Values{"city": {"Omsk"}, "top_k": {"zero"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, finder.queries)
	})

	t.Run("finder failure", func(t *testing.T) {
		rec := do(t, New(&fakeFinder{err: errors.New("embedder down")}), http.MethodPost, "/", url.Values{"city": {"Omsk"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "embedder down")
	})
}

func TestAPISearch(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		topK   int
	}{
		{"default top_k", "/api/search?city=Mascow", http.StatusOK, 1},
		{"explicit top_k", "/api/search?city=Mascow&top_k=7&advanced=true", http.StatusOK, 7},
		{"clamped top_k", "/api/search?city=Mascow&top_k=5000", http.StatusOK, 100},
		{"negative top_k", "/api/search?city=Mascow&top_k=-1", http.StatusBadRequest, 0},
		{"bad advanced", "/api/search?city=Mascow&advanced=maybe", http.StatusBadRequest, 0},
		{"missing city", "/api/search", http.StatusBadRequest, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &fakeFinder{}
			rec := do(t, New(finder), http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)

			if tt.status != http.StatusOK {
				var body errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.Error)
				return
			}

			var res core.Resolution
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, "Moscow", res.Corrected)
			assert.Equal(t, []core.Match{moscow}, res.Matches)
			assert.Equal(t, tt.topK, finder.queries[0].TopK)
		})
	}
}

func TestAPISuggest(t *testing.T) {
	s := New(&fakeFinder{})

	rec := do(t, s, http.MethodGet, "/api/suggest?q=mo&limit=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":["Moscow"]}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/suggest?q=mo&limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPINearest(t *testing.T) {
	s := New(&fakeFinder{})

	rec := do(t, s, http.MethodGet, "/api/nearest?lat=55.75&lon=37.61&k=3", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var matches []core.Match
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, 1.2, matches[0].DistanceKm)

	for _, target := range []string{
		"/api/nearest?lat=north&lon=37.61",
		"/api/nearest?lat=55.75",
		"/api/nearest?lat=95&lon=37.61",
		"/api/nearest?lat=55.75&lon=37.61&k=0",
	} {
		rec := do(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestAPIExportXLSX(t *testing.T) {
	rec := do(t, New(&fakeFinder{}), http.MethodGet, "/api/export.xlsx?city=Moscow&top_k=3", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="Moscow.xlsx"`)
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestHealth(t *testing.T) {
	rec := do(t, New(&fakeFinder{}), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","cities":1}`, rec.Body.String())
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(&fakeFinder{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
