package airtable

import (
	"net/http"

	"github.com/clinicalrxq/member-portal/pkg/config"
)

// PolicyFromConfig maps environment settings onto a retry policy.
func PolicyFromConfig(cfg config.AirtableConfig) RetryPolicy {
	return RetryPolicy{
		MinInterval:       cfg.MinInterval,
		RateLimitCooldown: cfg.RateLimitCooldown,
		RateLimitRetries:  cfg.RateLimitRetries,
		MaxAttempts:       cfg.MaxAttempts,
		InitialBackoff:    cfg.InitialBackoff,
		MaximumBackoff:    cfg.MaxBackoff,
	}.normalized()
}

// OptionsFromConfig returns the client options implied by cfg.
func OptionsFromConfig(cfg config.AirtableConfig) []Option {
	opts := []Option{
		WithAPIURL(cfg.APIURL),
		WithRetryPolicy(PolicyFromConfig(cfg)),
		WithBatchSizes(cfg.IDChunkSize, cfg.PageSize),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return opts
}

// RuntimeOptionsFromConfig returns the injected and default values for RuntimeConfig.
func RuntimeOptionsFromConfig(cfg config.AirtableConfig) RuntimeOptions {
	return RuntimeOptions{
		DefaultBaseID: cfg.DefaultBaseID,
		BaseID:        cfg.BaseID,
		Token:         cfg.Token,
	}
}
