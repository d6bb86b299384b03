// Package client provides a Supabase client for the Fonts Reviewer backend.
// It speaks PostgREST, GoTrue auth and the Realtime websocket protocol
// directly over HTTP; no Supabase SDK is involved.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/watxaut/FontsReviewerApp/internal/httputil"
)

const (
	maxResponseBytes  = 8 << 20  // 8 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB

	defaultTimeout = 30 * time.Second
)

// Client is a Supabase REST API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observer   Observer
}

// Observer is notified after every REST call. It is used for metrics.
type Observer func(table, method string, status int, duration time.Duration, err error)

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
	Observer   Observer
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("URL must be absolute: %q", cfg.URL)
	}
	if parsed.User != nil {
		return nil, fmt.Errorf("URL must not include user info")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: defaultTransport(),
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		observer:   cfg.Observer,
	}, nil
}

func defaultTransport() http.RoundTripper {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}
	cloned := base.Clone()
	if cloned.TLSClientConfig == nil {
		cloned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	} else if cloned.TLSClientConfig.MinVersion < tls.VersionTLS12 {
		cloned.TLSClientConfig = cloned.TLSClientConfig.Clone()
		cloned.TLSClientConfig.MinVersion = tls.VersionTLS12
	}
	return cloned
}

// =============================================================================
// Database Operations (PostgREST)
// =============================================================================

// From starts a query builder for a table or view.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client:  c,
		table:   table,
		headers: make(map[string]string),
	}
}

// QueryBuilder builds PostgREST queries.
type QueryBuilder struct {
	client      *Client
	table       string
	columns     string
	filters     []string
	orders      []string
	limit       int
	single      bool
	headers     map[string]string
	accessToken string
}

// Select specifies columns to select.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%v", column, value))
	return q
}

// Order adds an ORDER BY clause.
func (q *QueryBuilder) Order(column string, ascending bool) *QueryBuilder {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Limit sets the LIMIT.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Range selects rows from..to inclusive using the Range header, which is how
// PostgREST pages past its max-rows ceiling.
func (q *QueryBuilder) Range(from, to int) *QueryBuilder {
	q.headers["Range-Unit"] = "items"
	q.headers["Range"] = fmt.Sprintf("%d-%d", from, to)
	return q
}

// Single expects exactly one row; PostgREST answers 406 (PGRST116) otherwise.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	return q
}

// WithToken runs the request as the given user so RLS policies apply.
func (q *QueryBuilder) WithToken(accessToken string) *QueryBuilder {
	q.accessToken = accessToken
	return q
}

// Execute executes a SELECT query.
func (q *QueryBuilder) Execute(ctx context.Context) (*Response, error) {
	params := q.filterParams()
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}

	req, err := q.newRequest(ctx, http.MethodGet, params, nil)
	if err != nil {
		return nil, err
	}
	return q.client.do(req, q.table)
}

// ExecuteInto executes a SELECT and unmarshals the body into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest any) error {
	resp, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	if err := resp.JSON(dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", q.table, err)
	}
	return nil
}

// ExecuteInsert executes an INSERT and returns the inserted representation.
func (q *QueryBuilder) ExecuteInsert(ctx context.Context, data any) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}
	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	req, err := q.newRequest(ctx, http.MethodPost, params, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return q.client.do(req, q.table)
}

// ExecuteUpdate executes a PATCH against the filtered rows.
func (q *QueryBuilder) ExecuteUpdate(ctx context.Context, data any) (*Response, error) {
	if len(q.filters) == 0 {
		return nil, fmt.Errorf("update on %s requires at least one filter", q.table)
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}
	params := q.filterParams()
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	req, err := q.newRequest(ctx, http.MethodPatch, params, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return q.client.do(req, q.table)
}

// ExecuteDelete executes a DELETE against the filtered rows.
func (q *QueryBuilder) ExecuteDelete(ctx context.Context) (*Response, error) {
	if len(q.filters) == 0 {
		return nil, fmt.Errorf("delete on %s requires at least one filter", q.table)
	}
	req, err := q.newRequest(ctx, http.MethodDelete, q.filterParams(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	return q.client.do(req, q.table)
}

func (q *QueryBuilder) filterParams() url.Values {
	params := url.Values{}
	for _, f := range q.filters {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) == 2 {
			params.Add(parts[0], parts[1])
		}
	}
	return params
}

func (q *QueryBuilder) newRequest(ctx context.Context, method string, params url.Values, body []byte) (*http.Request, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, url.PathEscape(q.table))
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q.client.setHeaders(req, q.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	for k, v := range q.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// =============================================================================
// Response Types
// =============================================================================

// Response is a successful API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// =============================================================================
// Internal Methods
// =============================================================================

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.apiKey)
	bearer := c.apiKey
	if accessToken != "" {
		bearer = accessToken
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request, resource string) (resp *Response, err error) {
	start := time.Now()
	status := 0
	if c.observer != nil {
		defer func() {
			c.observer(resource, req.Method, status, time.Since(start), err)
		}()
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: req.Method + " " + resource, Err: err}
	}
	defer httpResp.Body.Close()
	status = httpResp.StatusCode

	if httpResp.StatusCode >= 400 {
		body, truncated, readErr := httputil.ReadAllWithLimit(httpResp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return nil, &NetworkError{Op: "read error response", Err: readErr}
		}
		if truncated {
			body = append(body, []byte("...(truncated)")...)
		}
		return nil, parseError(body, httpResp.StatusCode)
	}

	body, err := httputil.ReadAllStrict(httpResp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}
