package rxnorm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/internal/cache"
	"github.com/clinicalnotes/reportrepair/types"
)

// fakeRxNav serves approximateTerm and related lookups for a tiny catalogue.
func fakeRxNav(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/approximateTerm.json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("option"))
		assert.Equal(t, "1", q.Get("maxEntries"))
		switch q.Get("term") {
		case "aspirin 81mg":
			_, _ = w.Write([]byte(`{"approximateGroup":{"inputTerm":"aspirin 81mg","candidate":[{"rxcui":"243670","score":"8.9","rank":"1"}]}}`))
		case "sinemet 25/100":
			_, _ = w.Write([]byte(`{"approximateGroup":{"candidate":[{"rxcui":"205780","score":"7","rank":"1"}]}}`))
		case "unfound":
			_, _ = w.Write([]byte(`{"approximateGroup":{"inputTerm":"unfound"}}`))
		case "noingredient":
			_, _ = w.Write([]byte(`{"approximateGroup":{"candidate":[{"rxcui":"1"}]}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/rxcui/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "IN", r.URL.Query().Get("tty"))
		switch r.URL.Path {
		case "/rxcui/243670/related.json":
			_, _ = w.Write([]byte(`{"relatedGroup":{"conceptGroup":[{"tty":"IN","conceptProperties":[{"rxcui":"1191","name":"aspirin"}]}]}}`))
		case "/rxcui/205780/related.json":
			_, _ = w.Write([]byte(`{"relatedGroup":{"conceptGroup":[{"tty":"IN","conceptProperties":[{"rxcui":"2019","name":"carbidopa"},{"rxcui":"6375","name":"levodopa"}]}]}}`))
		default:
			_, _ = w.Write([]byte(`{"relatedGroup":{"conceptGroup":[{"tty":"IN"}]}}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type lookupRecorder struct {
	mu       sync.Mutex
	statuses []string
}

func (r *lookupRecorder) RecordRxNormLookup(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	cfg := config.DefaultRxNormConfig()
	cfg.BaseURL = baseURL
	cfg.RequestsPerSecond = 1000
	c, err := NewClient(cfg, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative"} {
		_, err := NewClient(config.RxNormConfig{BaseURL: u})
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidConfig), u)
	}
}

func TestClient_Standardize(t *testing.T) {
	var requests atomic.Int32
	srv := fakeRxNav(t, &requests)
	rec := &lookupRecorder{}
	c := newTestClient(t, srv.URL+"/", WithRecorder(rec))
	ctx := context.Background()

	names, err := c.Standardize(ctx, "aspirin 81mg")
	require.NoError(t, err)
	assert.Equal(t, []string{"aspirin"}, names)

	names, err = c.Standardize(ctx, "  sinemet 25/100 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"carbidopa", "levodopa"}, names)

	names, err = c.Standardize(ctx, "unfound")
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = c.Standardize(ctx, "noingredient")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = c.Standardize(ctx, "server error")
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))

	names, err = c.Standardize(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, names)

	assert.Equal(t, []string{StatusFound, StatusFound, StatusNotFound, StatusNotFound, StatusError}, rec.statuses)
	assert.Equal(t, int32(8), requests.Load())
}

func TestClient_ApproximateMatch_NotFound(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, fakeRxNav(t, &requests).URL)

	_, err := c.ApproximateMatch(context.Background(), "unfound")
	assert.True(t, types.IsErrorCode(err, types.ErrTermNotFound))
}

func TestClient_RateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Standardize(context.Background(), "aspirin")
	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrRateLimited, e.Code)
	assert.Equal(t, http.StatusTooManyRequests, e.HTTPStatus)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Standardize(context.Background(), "aspirin")
	assert.True(t, types.IsErrorCode(err, types.ErrUpstreamError))
}

func TestClient_StandardizeWithRedisCache(t *testing.T) {
	var requests atomic.Int32
	srv := fakeRxNav(t, &requests)
	mr := miniredis.RunT(t)

	mgr, err := cache.NewManager(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer mgr.Close()

	c := newTestClient(t, srv.URL, WithCache(mgr, time.Hour))
	ctx := context.Background()

	first, err := c.Standardize(ctx, "sinemet 25/100")
	require.NoError(t, err)
	before := requests.Load()

	second, err := c.Standardize(ctx, "SINEMET 25/100")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, requests.Load())

	mr.FastForward(2 * time.Hour)
	_, err = c.Standardize(ctx, "sinemet 25/100")
	require.NoError(t, err)
	assert.Greater(t, requests.Load(), before)

	// empty results are cached too
	_, err = c.Standardize(ctx, "unfound")
	require.NoError(t, err)
	n := requests.Load()
	_, err = c.Standardize(ctx, "unfound")
	require.NoError(t, err)
	assert.Equal(t, n, requests.Load())
}

func TestClient_StandardizeAll(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, fakeRxNav(t, &requests).URL)

	got, err := c.StandardizeAll(context.Background(), []string{"aspirin 81mg", "unfound", "aspirin 81mg"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"aspirin 81mg": {"aspirin"}, "unfound": {}}, got)
	assert.Equal(t, int32(3), requests.Load())

	_, err = c.StandardizeAll(context.Background(), []string{"aspirin 81mg", "boom"})
	assert.ErrorContains(t, err, `"boom"`)
}

func TestClient_HonorsContext(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, fakeRxNav(t, &requests).URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Standardize(ctx, "aspirin 81mg")
	assert.Error(t, err)
	assert.Zero(t, requests.Load())
}
