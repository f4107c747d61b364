package airtable

import (
	"context"
	"net/http"
	"time"
)

const (
	defaultMinInterval       = 220 * time.Millisecond
	defaultRateLimitCooldown = 30 * time.Second
	defaultRateLimitRetries  = 1
	defaultMaxAttempts       = 4
	defaultInitialBackoff    = 500 * time.Millisecond
	defaultMaximumBackoff    = 8 * time.Second
)

// RetryPolicy configures request spacing and retry behavior for record reads.
type RetryPolicy struct {
	// MinInterval spaces outbound requests. Zero disables spacing.
	MinInterval       time.Duration
	RateLimitCooldown time.Duration
	RateLimitRetries  int
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaximumBackoff    time.Duration
}

// DefaultRetryPolicy matches the backend's published per-base request quota.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MinInterval:       defaultMinInterval,
		RateLimitCooldown: defaultRateLimitCooldown,
		RateLimitRetries:  defaultRateLimitRetries,
		MaxAttempts:       defaultMaxAttempts,
		InitialBackoff:    defaultInitialBackoff,
		MaximumBackoff:    defaultMaximumBackoff,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MinInterval < 0 {
		p.MinInterval = 0
	}
	if p.RateLimitCooldown <= 0 {
		p.RateLimitCooldown = defaultRateLimitCooldown
	}
	if p.RateLimitRetries < 0 {
		p.RateLimitRetries = 0
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	if p.MaximumBackoff <= 0 {
		p.MaximumBackoff = defaultMaximumBackoff
	}
	if p.MaximumBackoff < p.InitialBackoff {
		p.MaximumBackoff = p.InitialBackoff
	}
	return p
}

// backoff returns the delay after the given failed attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaximumBackoff {
			return p.MaximumBackoff
		}
	}
	return delay
}

type failureClass int

const (
	failurePermanent failureClass = iota
	failureRateLimited
	failureTransient
)

// classify sorts a failed exchange. A zero status means no response arrived.
func classify(status int) failureClass {
	switch {
	case status == 0:
		return failureTransient
	case status == http.StatusTooManyRequests:
		return failureRateLimited
	case status >= http.StatusInternalServerError:
		return failureTransient
	}
	return failurePermanent
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
