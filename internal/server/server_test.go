// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litscout/internal/candidates"
	"github.com/pdiddy/litscout/internal/encoder"
	"github.com/pdiddy/litscout/internal/engine"
	"github.com/pdiddy/litscout/pkg/types"
)

func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func snapshot() *types.Snapshot {
	return &types.Snapshot{
		Papers: []types.Paper{
			{
				ID: "P1", Title: "Graph attention networks", Year: 2018, Embedding: unitAt(0.9), VenueID: "S1",
				Concepts: []types.ConceptWeight{{ConceptID: "C1", Weight: 1}},
				Authors:  []types.Authorship{{AuthorID: "A", Order: 1}},
			},
			{
				ID: "P2", Title: "Protein folding at scale", Year: 2021, Embedding: unitAt(0.5), VenueID: "S2",
				Authors: []types.Authorship{{AuthorID: "B", Order: 1}, {AuthorID: "A", Order: 2}},
			},
		},
		Concepts: []types.Concept{{ID: "C1", Name: "Graph theory", Embedding: unitAt(0.5)}},
		Authors:  []types.Author{{ID: "A", Name: "Ada"}, {ID: "B", Name: "Bo"}},
		Venues:   []types.Venue{{ID: "S1", Name: "ICLR"}, {ID: "S2", Name: "Nature"}},
	}
}

// recordingEncoder maps every text to the unit x vector and remembers the
// last text it saw.
type recordingEncoder struct {
	mu   sync.Mutex
	last string
}

func (e *recordingEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = text
	return []float32{1, 0}, nil
}

func (e *recordingEncoder) Last() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

type fakeHealth struct {
	err    error
	counts candidates.Counts
}

func (h fakeHealth) Ping(ctx context.Context) error { return h.err }

func (h fakeHealth) Counts(ctx context.Context) (candidates.Counts, error) { return h.counts, nil }

func newTestServer(t *testing.T, enc encoder.Encoder, cfg types.ServerConfig, opts ...Option) http.Handler {
	t.Helper()
	e, err := engine.New(types.ScoringConfig{Alpha: 0.8})
	require.NoError(t, err)
	t.Cleanup(e.Release)

	var svcOpts []engine.ServiceOption
	if enc != nil {
		svcOpts = append(svcOpts, engine.WithEncoder(enc))
	}
	svc, err := engine.NewService(e, candidates.NewStaticSource(snapshot()), svcOpts...)
	require.NoError(t, err)

	srv, err := New(svc, cfg, opts...)
	require.NoError(t, err)
	return srv.Handler()
}

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) engine.Result {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var res engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestNewRequiresService(t *testing.T) {
	_, err := New(nil, types.ServerConfig{})
	assert.ErrorIs(t, err, ErrServiceRequired)
}

func TestSearchKinds(t *testing.T) {
	h := newTestServer(t, &recordingEncoder{}, types.ServerConfig{})

	res := decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=graphs", ""))
	assert.Equal(t, engine.KindPapers, res.Kind)
	require.NotNil(t, res.Papers)
	assert.Equal(t, "P1", res.Papers.Results[0].Item.ID)
	assert.InDelta(t, 0.82, res.Papers.Results[0].Score, 1e-6)
	assert.Nil(t, res.Authors)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/authors?q=graphs", ""))
	require.NotNil(t, res.Authors)
	assert.Equal(t, "Ada", res.Authors.Results[0].Item.Name)
	assert.InDelta(t, 1.02, res.Authors.Results[0].Score, 1e-6)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/venues?q=graphs", ""))
	require.NotNil(t, res.Venues)
	assert.Equal(t, "ICLR", res.Venues.Results[0].Item.Name)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/concepts?q=graphs", ""))
	assert.Equal(t, engine.KindConcepts, res.Kind)
	assert.Nil(t, res.Papers)
	require.NotNil(t, res.Concepts)
	require.Len(t, res.Concepts.Results, 1)
	assert.Equal(t, "Graph theory", res.Concepts.Results[0].Item.Name)
	assert.InDelta(t, 0.5, res.Concepts.Results[0].Score, 1e-6)
	assert.Equal(t, []string{"P1"}, res.Concepts.Results[0].Papers)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/all?q=graphs&limit=1", ""))
	assert.NotNil(t, res.Papers)
	assert.NotNil(t, res.Authors)
	assert.NotNil(t, res.Venues)
	assert.Len(t, res.Papers.Results, 1)
	assert.Equal(t, 2, res.Papers.Total)
	assert.Nil(t, res.Concepts)
}

func TestSearchParams(t *testing.T) {
	h := newTestServer(t, &recordingEncoder{}, types.ServerConfig{})

	res := decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=x&paper_weight=1", ""))
	assert.InDelta(t, 0.9, res.Papers.Results[0].Score, 1e-6)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=x&concept_weight=1", ""))
	assert.InDelta(t, 0.5, res.Papers.Results[0].Score, 1e-6)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=x&min_score=0.5", ""))
	assert.Equal(t, 1, res.Papers.Total)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=x&offset=1&limit=1", ""))
	require.Len(t, res.Papers.Results, 1)
	assert.Equal(t, "P2", res.Papers.Results[0].Item.ID)
	assert.Equal(t, 1, res.Papers.Offset)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=x&match=protein", ""))
	require.Equal(t, 1, res.Papers.Total)
	assert.Equal(t, "P2", res.Papers.Results[0].Item.ID)

	res = decodeResult(t, do(h, http.MethodGet, "/v1/papers?q=x&year_from=2019&year_to=2022", ""))
	require.Equal(t, 1, res.Papers.Total)
	assert.Equal(t, "P2", res.Papers.Results[0].Item.ID)
}

func TestSearchErrors(t *testing.T) {
	h := newTestServer(t, &recordingEncoder{}, types.ServerConfig{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"limit zero", "/v1/papers?q=x&limit=0", http.StatusBadRequest},
		{"negative offset", "/v1/papers?q=x&offset=-1", http.StatusBadRequest},
		{"non-numeric limit", "/v1/papers?q=x&limit=ten", http.StatusBadRequest},
		{"weights do not sum to one", "/v1/papers?q=x&paper_weight=0.7&concept_weight=0.7", http.StatusBadRequest},
		{"both weights zero", "/v1/papers?q=x&paper_weight=0&concept_weight=0", http.StatusBadRequest},
		{"weight out of range", "/v1/papers?q=x&paper_weight=1.5", http.StatusBadRequest},
		{"weight not a number", "/v1/papers?q=x&paper_weight=NaN", http.StatusBadRequest},
		{"min score out of range", "/v1/papers?q=x&min_score=3", http.StatusBadRequest},
		{"min score not a number", "/v1/papers?q=x&min_score=NaN", http.StatusBadRequest},
		{"missing query", "/v1/papers", http.StatusBadRequest},
		{"unknown kind", "/v1/topics?q=x", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSearchWithoutEncoder(t *testing.T) {
	h := newTestServer(t, nil, types.ServerConfig{})
	rec := do(h, http.MethodGet, "/v1/papers?q=graphs", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchEncoderFailure(t *testing.T) {
	enc := encoder.Func(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("upstream 500")
	})
	h := newTestServer(t, enc, types.ServerConfig{})
	rec := do(h, http.MethodGet, "/v1/papers?q=graphs", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUpload(t *testing.T) {
	enc := &recordingEncoder{}
	h := newTestServer(t, enc, types.ServerConfig{MaxUploadBytes: 16})

	res := decodeResult(t, do(h, http.MethodPost, "/v1/upload?kind=authors&limit=1", "  abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, engine.KindAuthors, res.Kind)
	require.NotNil(t, res.Authors)
	assert.Len(t, res.Authors.Results, 1)
	assert.Equal(t, "abcdefghijklmn", enc.Last(), "body is capped before trimming")

	rec := do(h, http.MethodPost, "/v1/upload", "   ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/v1/upload?kind=topics", "text")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil, types.ServerConfig{})
	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	counts := candidates.Counts{Papers: 2, Concepts: 1, Authors: 2, Venues: 2}
	h = newTestServer(t, nil, types.ServerConfig{}, WithHealth(fakeHealth{counts: counts}))
	rec = do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","store":{"papers":2,"concepts":1,"authors":2,"venues":2}}`, rec.Body.String())

	h = newTestServer(t, nil, types.ServerConfig{}, WithHealth(fakeHealth{err: errors.New("database is closed")}))
	rec = do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is closed")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := engine.NewMetrics()
	require.NoError(t, m.Register(reg))

	e, err := engine.New(types.ScoringConfig{Alpha: 0.8}, engine.WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(e.Release)
	svc, err := engine.NewService(e, candidates.NewStaticSource(snapshot()), engine.WithEncoder(&recordingEncoder{}))
	require.NoError(t, err)
	srv, err := New(svc, types.ServerConfig{}, WithGatherer(reg))
	require.NoError(t, err)
	h := srv.Handler()

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/papers?q=x", "").Code)

	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `litscout_scoring_requests_total{operation="papers",status="success"} 1`)
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	h := newTestServer(t, nil, types.ServerConfig{})
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/metrics", "").Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, &recordingEncoder{}, types.ServerConfig{RateLimit: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/papers?q=x", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/papers?q=x", "").Code)
	rec := do(h, http.MethodGet, "/v1/papers?q=x", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code, "health is not limited")
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, nil, types.ServerConfig{})

	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(RequestIDHeader, "client-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "client-123", rec.Header().Get(RequestIDHeader))
}

func TestChainOrder(t *testing.T) {
	var order []int
	mw := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, 0)
	}), mw(1), mw(2), mw(3))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []int{1, 2, 3, 0}, order)
}

func TestRecoverCatchesPanic(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestID(), Recover(slogDiscard()))

	rec := do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 10))
	l := NewLimiter(5, 0)
	require.NotNil(t, l)
	assert.Equal(t, 5, l.Burst())
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
