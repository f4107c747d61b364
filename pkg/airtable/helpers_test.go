package airtable

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type staticConfig struct {
	baseID string
	token  string
}

func (s staticConfig) BaseID(context.Context) string { return s.baseID }

func (s staticConfig) Token(context.Context) (string, bool) { return s.token, s.token != "" }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestClient(t *testing.T, rt roundTripFunc, sleeper *sleepRecorder, opts ...Option) *Client {
	t.Helper()
	policy := DefaultRetryPolicy()
	policy.MinInterval = 0
	base := []Option{
		WithHTTPClient(&http.Client{Transport: rt}),
		WithAPIURL("https://store.test/v0"),
		WithRetryPolicy(policy),
	}
	if sleeper != nil {
		base = append(base, WithSleeper(sleeper.sleep))
	}
	client, err := NewClient(staticConfig{baseID: "appBase", token: "pat-test"}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}
