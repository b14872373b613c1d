// Package meili talks to the backend full-text search engine over its HTTP
// API. The proxy treats the engine as an opaque remote dependency: one search
// call per query variant, and any failure of a single call degrades that
// variant to zero hits instead of failing the request.
package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnreachable wraps transport-level failures so callers can tell "the
// engine said no" apart from "we never reached the engine".
var ErrUnreachable = errors.New("meili: backend unreachable")

// SearchRequest is the body of one backend search call.
type SearchRequest struct {
	Query  string `json:"q"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// SearchResponse is the subset of the backend's reply the proxy consumes.
// Hit documents stay raw; the proxy never interprets their shape beyond the
// primary key and optional ranking score.
type SearchResponse struct {
	Hits               []json.RawMessage `json:"hits"`
	EstimatedTotalHits int               `json:"estimatedTotalHits"`
}

// SearchClient is the backend boundary used by the executor and health
// checks. Implementations must be safe for concurrent use.
type SearchClient interface {
	Search(ctx context.Context, index string, req SearchRequest) (*SearchResponse, error)
	Health(ctx context.Context) error
}

// Client is the HTTP implementation of SearchClient. An optional rate
// limiter keeps a burst of variant fan-outs from stampeding the engine.
type Client struct {
	host    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent to the backend.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRateLimit caps backend calls at rps requests per second with the given
// burst. Zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		host: host,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one query against one index. Context cancellation,
// transport errors, non-200 statuses, and malformed bodies are all returned
// as errors; the caller decides whether that is fatal.
func (c *Client) Search(ctx context.Context, index string, req SearchRequest) (*SearchResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	url := c.host + "/indexes/" + index + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the log line, then drop it.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, snippet)
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &sr, nil
}

// Health pings the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health status %d", resp.StatusCode)
	}
	return nil
}

// DocumentID extracts the primary-key field from a raw hit document. A hit
// without a usable key gets an empty ID and is dropped by the merger.
func DocumentID(doc json.RawMessage, primaryKey string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return ""
	}
	raw, ok := fields[primaryKey]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// RankingScore extracts the backend's optional per-hit score. Hits without
// one default to 1.0 so positional order still ranks them.
func RankingScore(doc json.RawMessage) float64 {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return 1.0
	}
	raw, ok := fields["_rankingScore"]
	if !ok {
		return 1.0
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f <= 0 {
		return 1.0
	}
	return f
}
