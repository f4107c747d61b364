package airtable

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/clinicalrxq/member-portal/pkg/kv"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

var (
	// StateKeyBaseID holds a runtime-configured base identifier.
	StateKeyBaseID = kv.Key("airtable", "base_id")
	// StateKeyToken holds a runtime-configured access token.
	StateKeyToken = kv.Key("airtable", "pat")
	// StateKeyMetaCache is the single metadata cache slot.
	StateKeyMetaCache = kv.Key("airtable", "meta_cache_v1")
)

// ConfigProvider yields the active base identifier and access token.
type ConfigProvider interface {
	BaseID(ctx context.Context) string
	Token(ctx context.Context) (string, bool)
}

type stateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Source names where a runtime value came from.
type Source string

const (
	SourceState    Source = "state"
	SourceInjected Source = "injected"
	SourceDefault  Source = "default"
	SourceNone     Source = "none"
)

// RuntimeOptions carries the injected values and the fixed default base.
type RuntimeOptions struct {
	DefaultBaseID string
	BaseID        string
	Token         string
}

// RuntimeConfig resolves settings from persisted state first, then injected
// values, then the default. Reads never fail; state errors count as "unset".
type RuntimeConfig struct {
	state         stateStore
	defaultBaseID string
	baseID        string
	token         string
	logg          *logger.Logger
}

// RuntimeStatus describes the active configuration without exposing the token.
type RuntimeStatus struct {
	BaseID          string `json:"base_id"`
	BaseIDSource    Source `json:"base_id_source"`
	TokenConfigured bool   `json:"token_configured"`
	TokenSource     Source `json:"token_source"`
}

func NewRuntimeConfig(state stateStore, opts RuntimeOptions, logg *logger.Logger) *RuntimeConfig {
	return &RuntimeConfig{
		state:         state,
		defaultBaseID: strings.TrimSpace(opts.DefaultBaseID),
		baseID:        strings.TrimSpace(opts.BaseID),
		token:         strings.TrimSpace(opts.Token),
		logg:          logg,
	}
}

func (r *RuntimeConfig) BaseID(ctx context.Context) string {
	value, _ := r.resolve(ctx, StateKeyBaseID, r.baseID, r.defaultBaseID)
	return value
}

func (r *RuntimeConfig) Token(ctx context.Context) (string, bool) {
	value, source := r.resolve(ctx, StateKeyToken, r.token, "")
	return value, source != SourceNone
}

// Status reports the active base and whether a token is configured.
func (r *RuntimeConfig) Status(ctx context.Context) RuntimeStatus {
	baseID, baseSource := r.resolve(ctx, StateKeyBaseID, r.baseID, r.defaultBaseID)
	_, tokenSource := r.resolve(ctx, StateKeyToken, r.token, "")
	return RuntimeStatus{
		BaseID:          baseID,
		BaseIDSource:    baseSource,
		TokenConfigured: tokenSource != SourceNone,
		TokenSource:     tokenSource,
	}
}

// SetBaseID persists a base identifier into runtime state.
func (r *RuntimeConfig) SetBaseID(ctx context.Context, baseID string) error {
	return r.set(ctx, StateKeyBaseID, baseID)
}

// SetToken persists an access token into runtime state.
func (r *RuntimeConfig) SetToken(ctx context.Context, token string) error {
	return r.set(ctx, StateKeyToken, token)
}

// Clear removes both persisted values, falling back to injected/default values.
func (r *RuntimeConfig) Clear(ctx context.Context) error {
	if r.state == nil {
		return &ConfigError{Setting: "runtime state store"}
	}
	return r.state.Del(ctx, StateKeyBaseID, StateKeyToken)
}

func (r *RuntimeConfig) set(ctx context.Context, key, value string) error {
	if r.state == nil {
		return &ConfigError{Setting: "runtime state store"}
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return r.state.Del(ctx, key)
	}
	return r.state.Set(ctx, key, trimmed, 0)
}

func (r *RuntimeConfig) resolve(ctx context.Context, key, injected, fallback string) (string, Source) {
	if r.state != nil {
		raw, err := r.state.Get(ctx, key)
		switch {
		case err == nil:
			if value := strings.TrimSpace(raw); value != "" {
				return value, SourceState
			}
		case !errors.Is(err, kv.ErrNotFound):
			r.logg.WarnErr(r.logg.WithField(ctx, "state_key", key), "airtable.runtime_state.read_failed", err)
		}
	}
	if injected != "" {
		return injected, SourceInjected
	}
	if fallback != "" {
		return fallback, SourceDefault
	}
	return "", SourceNone
}
