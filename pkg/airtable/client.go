// Package airtable is the data-access layer over the backend record store:
// runtime configuration, schema resolution, and rate-limited record access.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/clinicalrxq/member-portal/pkg/logger"
	"github.com/clinicalrxq/member-portal/pkg/metrics"
)

const (
	DefaultAPIURL              = "https://api.airtable.com/v0"
	defaultIDChunkSize         = 40
	defaultPageSize            = 100
	maxPageSize                = 100
	requestBodyReadLimit int64 = 4096
)

var errConfigRequired = errors.New("airtable: config provider is required")

// Client performs record and metadata requests against the backend store.
// Outbound requests are serialized through a shared limiter.
type Client struct {
	httpClient *http.Client
	apiURL     string
	config     ConfigProvider
	policy     RetryPolicy
	limiter    *rate.Limiter
	sleep      func(context.Context, time.Duration) error
	chunkSize  int
	pageSize   int
	logg       *logger.Logger
	metrics    *metrics.StoreMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIURL overrides the backend API root.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(apiURL), "/")
		if trimmed != "" {
			c.apiURL = trimmed
		}
	}
}

// WithRetryPolicy overrides request spacing and retry limits.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) { c.policy = policy.normalized() }
}

// WithBatchSizes overrides the id-batch chunk size and the page size.
func WithBatchSizes(chunkSize, pageSize int) Option {
	return func(c *Client) {
		if chunkSize > 0 && chunkSize <= maxPageSize {
			c.chunkSize = chunkSize
		}
		if pageSize > 0 && pageSize <= maxPageSize {
			c.pageSize = pageSize
		}
	}
}

// WithLogger sets the logger used for retry and failure entries.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) { c.logg = logg }
}

// WithMetrics records request latency and retries.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSleeper replaces the wait used between retries.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewClient builds the store client around a runtime config provider.
func NewClient(config ConfigProvider, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, errConfigRequired
	}
	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     DefaultAPIURL,
		config:     config,
		policy:     DefaultRetryPolicy(),
		sleep:      sleepContext,
		chunkSize:  defaultIDChunkSize,
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	client.limiter = newLimiter(client.policy.MinInterval)
	return client, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

type request struct {
	op     string
	method string
	path   []string
	query  url.Values
	body   any
	retry  bool
}

type exchange struct {
	status int
	body   string
	err    error
	decode bool
}

// credentials returns the base and token for record operations.
func (c *Client) credentials(ctx context.Context) (string, string, error) {
	token, ok := c.config.Token(ctx)
	if !ok {
		return "", "", &ConfigError{Setting: "access token"}
	}
	baseID := c.config.BaseID(ctx)
	if baseID == "" {
		return "", "", &ConfigError{Setting: "base id"}
	}
	return baseID, token, nil
}

// do sends req, applying spacing on every attempt and the retry policy when req.retry is set.
func (c *Client) do(ctx context.Context, token string, req request, out any) error {
	var (
		attempts    int
		transient   int
		rateLimited int
	)
	for {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		started := time.Now()
		result := c.send(ctx, token, req, out)
		c.metrics.ObserveRequest(req.op, result.status, time.Since(started))
		if result.err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if result.decode {
			return &StoreError{Kind: StoreDecode, Op: req.op, Status: result.status, Attempts: attempts, Err: result.err}
		}

		var delay time.Duration
		switch classify(result.status) {
		case failureRateLimited:
			rateLimited++
			if !req.retry || rateLimited > c.policy.RateLimitRetries {
				return c.failure(req.op, attempts, result)
			}
			delay = c.policy.RateLimitCooldown
			c.metrics.IncRetry(req.op, "rate_limited")
		case failureTransient:
			transient++
			if !req.retry || transient >= c.policy.MaxAttempts {
				return c.failure(req.op, attempts, result)
			}
			delay = c.policy.backoff(transient)
			c.metrics.IncRetry(req.op, "transient")
		default:
			return c.failure(req.op, attempts, result)
		}

		logCtx := c.logg.WithFields(ctx, map[string]any{
			"op":       req.op,
			"status":   result.status,
			"attempt":  attempts,
			"delay_ms": delay.Milliseconds(),
		})
		c.logg.WarnErr(logCtx, "airtable.request.retrying", result.err)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) failure(op string, attempts int, result exchange) error {
	if result.status == 0 {
		return &StoreError{Kind: StoreNetwork, Op: op, Attempts: attempts, Err: result.err}
	}
	return &StoreError{Kind: StoreHTTP, Op: op, Status: result.status, Body: result.body, Attempts: attempts, Err: result.err}
}

func (c *Client) send(ctx context.Context, token string, req request, out any) exchange {
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return exchange{err: fmt.Errorf("encode request: %w", err), decode: true}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path, req.query), body)
	if err != nil {
		return exchange{err: err, decode: true}
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return exchange{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		text := strings.TrimSpace(string(msg))
		return exchange{
			status: resp.StatusCode,
			body:   text,
			err:    fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return exchange{status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return exchange{status: resp.StatusCode, err: err, decode: true}
	}
	return exchange{status: resp.StatusCode}
}

func (c *Client) buildURL(path []string, query url.Values) string {
	segments := make([]string, 0, len(path))
	for _, part := range path {
		segments = append(segments, url.PathEscape(part))
	}
	target := c.apiURL + "/" + strings.Join(segments, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}
