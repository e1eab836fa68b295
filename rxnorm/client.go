package rxnorm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/internal/cache"
	"github.com/clinicalnotes/reportrepair/internal/tlsutil"
	"github.com/clinicalnotes/reportrepair/types"
)

// CacheType labels RxNorm entries in cache metrics.
const CacheType = "rxnorm"

// Lookup statuses reported to the Recorder.
const (
	StatusFound    = "found"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Cache stores standardized ingredient lists. *cache.Manager satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, cacheType, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Recorder receives lookup measurements. *metrics.Collector satisfies it.
type Recorder interface {
	RecordRxNormLookup(status string, duration time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the hardened default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithCache enables result caching.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.ttl = ttl
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(cl *Client) { cl.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// Client maps free-text drug names to RxNorm ingredient names using the
// RxNav REST API. Requests are paced to the configured rate; failed
// requests are not retried.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	cache    Cache
	ttl      time.Duration
	recorder Recorder
	logger   *zap.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg config.RxNormConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, types.NewError(types.ErrInvalidConfig, fmt.Sprintf("rxnorm: invalid base url %q", cfg.BaseURL))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    tlsutil.SecureHTTPClient(timeout),
		ttl:     cfg.CacheTTL,
		logger:  zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("component", "rxnorm"))
	return c, nil
}

// Standardize returns the ingredient names for term, one per ingredient of
// a multi-ingredient drug. A term RxNorm does not recognize yields an empty
// slice and no error.
func (c *Client) Standardize(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	key := cacheKey(term)
	if c.cache != nil {
		var cached []string
		err := c.cache.GetJSON(ctx, CacheType, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsCacheMiss(err) {
			c.logger.Warn("cache read failed", zap.String("term", term), zap.Error(err))
		}
	}

	start := time.Now()
	names, err := c.lookup(ctx, term)
	status := StatusFound
	switch {
	case types.IsErrorCode(err, types.ErrTermNotFound):
		names, err, status = []string{}, nil, StatusNotFound
	case err != nil:
		status = StatusError
	case len(names) == 0:
		status = StatusNotFound
	}
	if c.recorder != nil {
		c.recorder.RecordRxNormLookup(status, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	c.logger.Debug("term standardized", zap.String("term", term), zap.Strings("ingredients", names))
	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, names, c.ttl); err != nil {
			c.logger.Warn("cache write failed", zap.String("term", term), zap.Error(err))
		}
	}
	return names, nil
}

// StandardizeAll standardizes each distinct term once. Terms are looked up
// sequentially; the first error aborts.
func (c *Client) StandardizeAll(ctx context.Context, terms []string) (map[string][]string, error) {
	out := make(map[string][]string, len(terms))
	for _, term := range terms {
		if _, done := out[term]; done {
			continue
		}
		names, err := c.Standardize(ctx, term)
		if err != nil {
			return out, fmt.Errorf("rxnorm: %q: %w", term, err)
		}
		out[term] = names
	}
	return out, nil
}

// ApproximateMatch returns the RxCUI of the best approximate match for term,
// or TERM_NOT_FOUND.
func (c *Client) ApproximateMatch(ctx context.Context, term string) (string, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("option", "1")
	q.Set("maxEntries", "1")

	var body approximateResponse
	if err := c.get(ctx, "/approximateTerm.json", q, &body); err != nil {
		return "", err
	}
	for _, cand := range body.ApproximateGroup.Candidate {
		if cand.RxCUI != "" {
			return cand.RxCUI, nil
		}
	}
	return "", types.NewError(types.ErrTermNotFound, fmt.Sprintf("no approximate match for %q", term))
}

// Ingredients returns the ingredient (TTY=IN) names related to rxcui.
func (c *Client) Ingredients(ctx context.Context, rxcui string) ([]string, error) {
	q := url.Values{}
	q.Set("tty", "IN")

	var body relatedResponse
	if err := c.get(ctx, "/rxcui/"+url.PathEscape(rxcui)+"/related.json", q, &body); err != nil {
		return nil, err
	}
	names := []string{}
	if groups := body.RelatedGroup.ConceptGroup; len(groups) > 0 {
		for _, p := range groups[0].ConceptProperties {
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
	}
	return names, nil
}

func (c *Client) lookup(ctx context.Context, term string) ([]string, error) {
	rxcui, err := c.ApproximateMatch(ctx, term)
	if err != nil {
		return nil, err
	}
	return c.Ingredients(ctx, rxcui)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return types.NewError(types.ErrUpstreamError, "rxnorm request failed").WithCause(err).WithProvider("rxnorm")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		code := types.ErrUpstreamError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = types.ErrRateLimited
		}
		return types.NewError(code, fmt.Sprintf("rxnorm %s returned %d", path, resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithProvider("rxnorm")
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return types.NewError(types.ErrUpstreamError, "rxnorm response is not valid JSON").WithCause(err).WithProvider("rxnorm")
	}
	return nil
}

func cacheKey(term string) string {
	return "term:" + strings.ToLower(term)
}

type approximateResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			RxCUI string `json:"rxcui"`
			Score string `json:"score"`
			Rank  string `json:"rank"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

type relatedResponse struct {
	RelatedGroup struct {
		ConceptGroup []struct {
			TTY               string `json:"tty"`
			ConceptProperties []struct {
				RxCUI string `json:"rxcui"`
				Name  string `json:"name"`
			} `json:"conceptProperties"`
		} `json:"conceptGroup"`
	} `json:"relatedGroup"`
}
