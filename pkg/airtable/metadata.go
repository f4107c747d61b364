package airtable

import (
	"context"
	"errors"
	"net/http"
)

type metadataResponse struct {
	Tables []Table `json:"tables"`
}

// FetchMetadata lists every table and field of baseID. It is not retried.
func (c *Client) FetchMetadata(ctx context.Context, baseID, token string) ([]Table, error) {
	if token == "" {
		return nil, &SchemaError{Kind: SchemaAuthMissing, Err: &ConfigError{Setting: "access token"}}
	}
	if baseID == "" {
		return nil, &ConfigError{Setting: "base id"}
	}
	var resp metadataResponse
	err := c.do(ctx, token, request{
		op:     "fetch_metadata",
		method: http.MethodGet,
		path:   []string{"meta", "bases", baseID, "tables"},
	}, &resp)
	if err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) && storeErr.Kind == StoreHTTP {
			return nil, &SchemaError{Kind: SchemaHTTP, Status: storeErr.Status, Body: storeErr.Body, Err: storeErr}
		}
		return nil, err
	}
	if resp.Tables == nil {
		resp.Tables = []Table{}
	}
	return resp.Tables, nil
}

// ProbeState is the connectivity verdict reported by Probe.
type ProbeState string

const (
	ProbeMissing ProbeState = "missing"
	ProbeOK      ProbeState = "ok"
	ProbeError   ProbeState = "error"
)

// ProbeResult describes whether the store is reachable with the active configuration.
type ProbeResult struct {
	State   ProbeState `json:"state"`
	BaseID  string     `json:"base_id"`
	Tables  int        `json:"tables,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Probe fetches metadata directly, bypassing the schema cache.
func (c *Client) Probe(ctx context.Context) ProbeResult {
	baseID := c.config.BaseID(ctx)
	token, ok := c.config.Token(ctx)
	if !ok {
		return ProbeResult{State: ProbeMissing, BaseID: baseID, Message: "access token is not configured"}
	}
	tables, err := c.FetchMetadata(ctx, baseID, token)
	if err != nil {
		return ProbeResult{State: ProbeError, BaseID: baseID, Message: err.Error()}
	}
	return ProbeResult{State: ProbeOK, BaseID: baseID, Tables: len(tables)}
}
