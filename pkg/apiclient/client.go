package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	requestIDHeader         = "X-Request-Id"
	idempotencyHeader       = "Idempotency-Key"
	errorBodyReadLimit int64 = 4096
	defaultTimeout           = 10 * time.Second
	defaultUserAgent         = "storefront-client"
)

var errBaseURLRequired = errors.New("api base url is required")

// Client issues JSON requests against the storefront API. Session
// credentials travel as cookies held in the client's jar.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	logg       *logger.Logger
	metrics    *metrics.HTTPMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The client is copied, so
// the jar and timeout set here never leak into the caller's value. A client
// without a jar gets one so cookies still round-trip.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			cp := *client
			c.httpClient = &cp
		}
	}
}

// WithTimeout sets the per-request timeout of the client's own HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.HTTPMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New builds a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}

	client := &Client{
		baseURL:    parsed,
		userAgent:  defaultUserAgent,
		logg:       logger.Nop(),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client.httpClient.Jar = jar
	}

	return client, nil
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithIdempotencyKey marks a request so the server can collapse retries.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set(idempotencyHeader, key)
		}
	}
}

// WithQuery appends query parameters.
func WithQuery(values url.Values) RequestOption {
	return func(r *http.Request) {
		if len(values) == 0 {
			return
		}
		q := r.URL.Query()
		for key, vals := range values {
			for _, v := range vals {
				q.Add(key, v)
			}
		}
		r.URL.RawQuery = q.Encode()
	}
}

func (c *Client) Get(ctx context.Context, p Path, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, p, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, p Path, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, p, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, p Path, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, p, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, p Path, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, p, nil, out, opts...)
}

// Do sends one request. body is JSON-encoded when non-nil; a 2xx response
// body is decoded into out when out is non-nil. Non-2xx responses return an
// error wrapping *ResponseError. Nothing is retried.
func (c *Client) Do(ctx context.Context, method string, p Path, body, out any, opts ...RequestOption) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "api client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(p), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	ctx = c.logg.WithFields(ctx, map[string]any{
		"request_id": requestID,
		"method":     method,
		"route":      p.Template(),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, p.Template(), 0, time.Since(start))
		c.logg.Warn(ctx, "api.request.failed")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, p.Template()))
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, p.Template(), resp.StatusCode, elapsed)
	ctx = c.logg.WithFields(ctx, map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := newResponseError(method, p, resp)
		c.logg.Debug(ctx, "api.request.rejected")
		return pkgerrors.Wrap(responseCode(respErr), respErr, respErr.Message)
	}
	c.logg.Debug(ctx, "api.request.complete")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s %s response", method, p.Template()))
	}
	return nil
}

// SessionCookies returns the cookies the jar would send to the API.
func (c *Client) SessionCookies() []*http.Cookie {
	if c == nil || c.httpClient.Jar == nil {
		return nil
	}
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// RestoreSessionCookies seeds the jar, e.g. from a previous CLI run.
func (c *Client) RestoreSessionCookies(cookies []*http.Cookie) {
	if c == nil || c.httpClient.Jar == nil || len(cookies) == 0 {
		return
	}
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		if cookie == nil || cookie.Name == "" {
			continue
		}
		cp := *cookie
		if cp.Path == "" {
			cp.Path = "/"
		}
		restored = append(restored, &cp)
	}
	c.httpClient.Jar.SetCookies(c.baseURL, restored)
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) resolve(p Path) string {
	return strings.TrimRight(c.baseURL.String(), "/") + p.String()
}
