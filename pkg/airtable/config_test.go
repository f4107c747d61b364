package airtable

import (
	"testing"
	"time"

	"github.com/clinicalrxq/member-portal/pkg/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.AirtableConfig{
		APIURL:            "https://proxy.test/v0/",
		MinInterval:       250 * time.Millisecond,
		RateLimitCooldown: 10 * time.Second,
		RateLimitRetries:  2,
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        4 * time.Second,
		Timeout:           5 * time.Second,
		IDChunkSize:       25,
		PageSize:          50,
	}
	client, err := NewClient(staticConfig{baseID: "appBase", token: "pat"}, OptionsFromConfig(cfg)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.apiURL != "https://proxy.test/v0" {
		t.Fatalf("unexpected api url %q", client.apiURL)
	}
	if client.chunkSize != 25 || client.pageSize != 50 {
		t.Fatalf("unexpected batch sizes %d/%d", client.chunkSize, client.pageSize)
	}
	if client.httpClient.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", client.httpClient.Timeout)
	}
	if client.policy.RateLimitRetries != 2 || client.policy.MaximumBackoff != 4*time.Second {
		t.Fatalf("unexpected policy %+v", client.policy)
	}
}

func TestPolicyFromConfigFillsDefaults(t *testing.T) {
	policy := PolicyFromConfig(config.AirtableConfig{})
	if policy.MaxAttempts != defaultMaxAttempts || policy.RateLimitCooldown != defaultRateLimitCooldown {
		t.Fatalf("expected defaults, got %+v", policy)
	}
	if policy.MinInterval != 0 {
		t.Fatalf("zero interval disables spacing, got %v", policy.MinInterval)
	}
}

func TestWithBatchSizesIgnoresOutOfRange(t *testing.T) {
	client, err := NewClient(staticConfig{}, WithBatchSizes(0, 500))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.chunkSize != defaultIDChunkSize || client.pageSize != defaultPageSize {
		t.Fatalf("expected defaults, got %d/%d", client.chunkSize, client.pageSize)
	}
}
