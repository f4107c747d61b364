package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestListRecordsBuildsQuery(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"records":[{"id":"rec1","fields":{"fldName":"Guide"}}],"offset":"itr2"}`), nil
	}, nil)

	page, err := client.ListRecords(context.Background(), ListParams{
		TableID:         "tblResources",
		FilterByFormula: LowerEquals("Email", "A@B.com"),
		Sort:            []Sort{{Field: "categoryName", Direction: SortAsc}},
		PageSize:        100,
		MaxRecords:      1,
		Fields:          []string{"fldName", "fldFile"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Records) != 1 || page.Offset != "itr2" {
		t.Fatalf("unexpected page %+v", page)
	}

	if captured.URL.Path != "/v0/appBase/tblResources" {
		t.Fatalf("unexpected path %s", captured.URL.Path)
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer pat-test" {
		t.Fatalf("unexpected authorization %q", got)
	}
	q := captured.URL.Query()
	checks := map[string]string{
		"returnFieldsByFieldId": "true",
		"filterByFormula":       "LOWER({Email})='a@b.com'",
		"pageSize":              "100",
		"maxRecords":            "1",
		"sort[0][field]":        "categoryName",
		"sort[0][direction]":    "asc",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Fatalf("query %s: expected %q got %q", key, want, got)
		}
	}
	if fields := q["fields[]"]; len(fields) != 2 || fields[0] != "fldName" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestListRecordsRequiresToken(t *testing.T) {
	var calls int32
	client, err := NewClient(staticConfig{baseID: "appBase"}, WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return jsonResponse(http.StatusOK, `{}`), nil
		}),
	}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.ListRecords(context.Background(), ListParams{TableID: "tbl"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call without token")
	}
}

func TestRateLimitedRequestCoolsDownOnce(t *testing.T) {
	var calls int32
	sleeper := &sleepRecorder{}
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return jsonResponse(http.StatusTooManyRequests, `{"error":"RATE_LIMITED"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"records":[]}`), nil
	}, sleeper)

	if _, err := client.ListRecords(context.Background(), ListParams{TableID: "tbl"}); err != nil {
		t.Fatalf("expected success after cooldown, got %v", err)
	}
	delays := sleeper.recorded()
	if calls != 2 || len(delays) != 1 || delays[0] != 30*time.Second {
		t.Fatalf("expected one 30s cooldown, calls=%d delays=%v", calls, delays)
	}
}

func TestRepeatedRateLimitFails(t *testing.T) {
	var calls int32
	sleeper := &sleepRecorder{}
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusTooManyRequests, `{"error":"RATE_LIMITED"}`), nil
	}, sleeper)

	_, err := client.ListRecords(context.Background(), ListParams{TableID: "tbl"})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Kind != StoreHTTP || storeErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 store error, got %v", err)
	}
	if calls != 2 || storeErr.Attempts != 2 {
		t.Fatalf("expected exactly one retry, calls=%d attempts=%d", calls, storeErr.Attempts)
	}
}

func TestServerErrorsBackOffExponentially(t *testing.T) {
	var calls int32
	sleeper := &sleepRecorder{}
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusBadGateway, `upstream`), nil
	}, sleeper)

	_, err := client.ListRecords(context.Background(), ListParams{TableID: "tbl"})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Status != http.StatusBadGateway || storeErr.Body != "upstream" {
		t.Fatalf("expected 502 store error, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	got := sleeper.recorded()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected backoff %v got %v", want, got)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	policy := RetryPolicy{InitialBackoff: time.Second, MaximumBackoff: 3 * time.Second}.normalized()
	if got := policy.backoff(1); got != time.Second {
		t.Fatalf("unexpected first backoff %v", got)
	}
	if got := policy.backoff(5); got != 3*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
}

func TestNetworkErrorsAreRetried(t *testing.T) {
	var calls int32
	sleeper := &sleepRecorder{}
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("connection reset")
		}
		return jsonResponse(http.StatusOK, `{"records":[{"id":"rec1","fields":{}}]}`), nil
	}, sleeper)

	page, err := client.ListRecords(context.Background(), ListParams{TableID: "tbl"})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(page.Records) != 1 || calls != 3 {
		t.Fatalf("unexpected result records=%d calls=%d", len(page.Records), calls)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	sleeper := &sleepRecorder{}
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusUnprocessableEntity, `{"error":"INVALID_FILTER_BY_FORMULA"}`), nil
	}, sleeper)

	_, err := client.ListRecords(context.Background(), ListParams{TableID: "tbl"})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 store error, got %v", err)
	}
	if calls != 1 || len(sleeper.recorded()) != 0 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestUpdateIsNotRetried(t *testing.T) {
	var calls int32
	var body map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		if req.Method != http.MethodPatch || req.URL.Path != "/v0/appBase/tblMembers/rec1" {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
		return jsonResponse(http.StatusServiceUnavailable, `busy`), nil
	}, &sleepRecorder{})

	_, err := client.UpdateRecordByNames(context.Background(), UpdateParams{
		TableID:  "tblMembers",
		RecordID: "rec1",
		Fields:   map[string]any{"Last Login": "2026-01-01T00:00:00.000Z"},
	})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 store error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("writes must not be retried, got %d attempts", calls)
	}
	fields, _ := body["fields"].(map[string]any)
	if fields["Last Login"] != "2026-01-01T00:00:00.000Z" || body["returnFieldsByFieldId"] != false {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestListAllRecordsPaginatesSequentially(t *testing.T) {
	var calls int32
	var inFlight int32
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&inFlight, 1) > 1 {
			t.Errorf("pages must be fetched one at a time")
		}
		defer atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&calls, 1)

		offset := req.URL.Query().Get("offset")
		start, count, next := 0, 100, "page2"
		if offset == "page2" {
			start, count, next = 100, 25, ""
		}
		return jsonResponse(http.StatusOK, recordsBody(start, count, next)), nil
	}, nil)

	records, err := client.ListAllRecords(context.Background(), ListParams{TableID: "tbl", PageSize: 100})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(records) != 125 || calls != 2 {
		t.Fatalf("expected 125 records in 2 fetches, got %d records in %d fetches", len(records), calls)
	}
	if records[124].ID != "rec124" {
		t.Fatalf("unexpected last record %s", records[124].ID)
	}
}

func TestListRecordsByIDsChunks(t *testing.T) {
	for _, n := range []int{0, 1, 39, 40, 41, 79, 80, 81, 120, 199, 250, 333, 499, 500} {
		var calls int
		var seen int
		client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
			calls++
			formula := req.URL.Query().Get("filterByFormula")
			ids := strings.Count(formula, "RECORD_ID()=")
			if ids == 0 || ids > 40 {
				t.Errorf("chunk of %d ids out of bounds", ids)
			}
			start := seen
			seen += ids
			return jsonResponse(http.StatusOK, recordsBody(start, ids, "")), nil
		}, nil)

		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("rec%d", i)
		}
		records, err := client.ListRecordsByIDs(context.Background(), ByIDsParams{TableID: "tbl", RecordIDs: ids})
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if want := (n + 39) / 40; calls != want {
			t.Fatalf("n=%d: expected %d calls, got %d", n, want, calls)
		}
		if len(records) != n || seen != n {
			t.Fatalf("n=%d: expected %d records, got %d", n, n, len(records))
		}
	}
}

func TestListRecordsByIDsFollowsOffsetsWithinChunk(t *testing.T) {
	var calls int
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		if got := req.URL.Query().Get("pageSize"); got != "20" {
			t.Errorf("expected pageSize 20, got %q", got)
		}
		if strings.Count(req.URL.Query().Get("filterByFormula"), "RECORD_ID()=") != 40 {
			t.Errorf("offset pages must repeat the chunk formula")
		}
		if req.URL.Query().Get("offset") == "next" {
			return jsonResponse(http.StatusOK, recordsBody(20, 20, "")), nil
		}
		return jsonResponse(http.StatusOK, recordsBody(0, 20, "next")), nil
	}, nil, WithBatchSizes(40, 20))

	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("rec%d", i)
	}
	records, err := client.ListRecordsByIDs(context.Background(), ByIDsParams{TableID: "tbl", RecordIDs: ids})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(records) != 40 || calls != 2 {
		t.Fatalf("expected 40 records in 2 fetches, got %d records in %d fetches", len(records), calls)
	}
	if records[39].ID != "rec39" {
		t.Fatalf("unexpected last record %s", records[39].ID)
	}
}

func TestFetchMetadata(t *testing.T) {
	var calls int32
	status := http.StatusOK
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		if req.URL.Path != "/v0/meta/bases/appBase/tables" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		if status != http.StatusOK {
			return jsonResponse(status, `{"error":"NOT_AUTHORIZED"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"tables":[{"id":"tblM","name":"Members","fields":[{"id":"fldE","name":"Email","type":"email"}]}]}`), nil
	}, &sleepRecorder{})
	ctx := context.Background()

	tables, err := client.FetchMetadata(ctx, "appBase", "pat")
	if err != nil || len(tables) != 1 || tables[0].Fields[0].ID != "fldE" {
		t.Fatalf("unexpected metadata %+v %v", tables, err)
	}

	if _, err := client.FetchMetadata(ctx, "appBase", ""); !IsSchemaKind(err, SchemaAuthMissing) {
		t.Fatalf("expected auth missing, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("missing token must not reach the network")
	}

	status = http.StatusForbidden
	_, err = client.FetchMetadata(ctx, "appBase", "pat")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) || schemaErr.Kind != SchemaHTTP || schemaErr.Status != http.StatusForbidden {
		t.Fatalf("expected http schema error, got %v", err)
	}
	if !strings.Contains(schemaErr.Body, "NOT_AUTHORIZED") {
		t.Fatalf("expected body to be preserved, got %q", schemaErr.Body)
	}
}

func TestProbe(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"tables":[]}`), nil
	}, nil)
	if got := client.Probe(context.Background()); got.State != ProbeOK || got.BaseID != "appBase" {
		t.Fatalf("unexpected probe %+v", got)
	}

	missing, err := NewClient(staticConfig{baseID: "appBase"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := missing.Probe(context.Background()); got.State != ProbeMissing {
		t.Fatalf("expected missing state, got %+v", got)
	}

	failing := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"error":"NOT_FOUND"}`), nil
	}, nil)
	if got := failing.Probe(context.Background()); got.State != ProbeError || got.Message == "" {
		t.Fatalf("expected error state, got %+v", got)
	}
}

func TestRequestSpacing(t *testing.T) {
	var stamps []time.Time
	policy := DefaultRetryPolicy()
	policy.MinInterval = 20 * time.Millisecond
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		stamps = append(stamps, time.Now())
		return jsonResponse(http.StatusOK, `{"records":[]}`), nil
	}, nil, WithRetryPolicy(policy))

	for i := 0; i < 3; i++ {
		if _, err := client.ListRecords(context.Background(), ListParams{TableID: "tbl"}); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < 15*time.Millisecond {
			t.Fatalf("requests %d and %d only %v apart", i-1, i, gap)
		}
	}
}

func recordsBody(start, count int, offset string) string {
	records := make([]Record, 0, count)
	for i := start; i < start+count; i++ {
		records = append(records, Record{ID: fmt.Sprintf("rec%d", i), Fields: map[string]any{}})
	}
	payload, _ := json.Marshal(Page{Records: records, Offset: offset})
	return string(payload)
}
