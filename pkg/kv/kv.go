// Package kv defines the key/value surface shared by the Redis client and the
// in-process store used when Redis is not configured.
package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

const keyNamespace = "portal"

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal surface needed for sessions, login throttling, runtime
// state and the schema metadata cache slot.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Key joins the non-empty parts under the service namespace.
func Key(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
