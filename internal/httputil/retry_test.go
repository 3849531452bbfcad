// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = 1 * time.Millisecond
}

// throttledPortal answers with statuses in order, repeating the last one,
// and sends retryAfter with every retryable response.
type throttledPortal struct {
	statuses   []int
	retryAfter string
	calls      int32
}

func (p *throttledPortal) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	n := int(atomic.AddInt32(&p.calls, 1))
	status := p.statuses[len(p.statuses)-1]
	if n <= len(p.statuses) {
		status = p.statuses[n-1]
	}
	if Retryable(status) && p.retryAfter != "" {
		w.Header().Set("Retry-After", p.retryAfter)
	}
	w.WriteHeader(status)
	if status == http.StatusOK {
		w.Write([]byte("sample_id,cu_ppm\nS1,12\n"))
	}
}

func get(t *testing.T, ctx context.Context, p *throttledPortal, maxRetries int) (*http.Response, error) {
	t.Helper()
	ts := httptest.NewServer(p)
	t.Cleanup(ts.Close)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/exports/soils.csv", nil)
	require.NoError(t, err)
	return DoWithRetry(ctx, ts.Client(), req, maxRetries)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.status))
		})
	}
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"served first time", []int{200}, 5, 200, 1},
		{"throttled then served", []int{429, 429, 200}, 5, 200, 3},
		{"export rebuilding then served", []int{503, 200}, 2, 200, 2},
		{"mixed throttling", []int{429, 503, 429, 200}, 5, 200, 4},
		{"gives up after max retries", []int{429}, 3, 429, 4},
		{"default max retries", []int{503}, 0, 503, 6},
		{"server error not retried", []int{500}, 5, 500, 1},
		{"not found not retried", []int{404}, 5, 404, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &throttledPortal{statuses: tt.statuses}
			resp, err := get(t, context.Background(), p, tt.maxRetries)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&p.calls))
		})
	}
}

func TestDoWithRetry_HonoursRetryAfter(t *testing.T) {
	old := RetryBaseDelay
	RetryBaseDelay = time.Hour
	defer func() { RetryBaseDelay = old }()

	// With an hour of computed backoff, only a Retry-After of zero lets the
	// request finish before the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := &throttledPortal{statuses: []int{429, 503, 200}, retryAfter: "0"}
	resp, err := get(t, ctx, p, 5)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&p.calls))
}

func TestDoWithRetry_CanceledWhileWaiting(t *testing.T) {
	p := &throttledPortal{statuses: []int{429}, retryAfter: "60"}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := get(t, ctx, p, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}

func TestBackoff(t *testing.T) {
	old, oldMax := RetryBaseDelay, MaxRetryAfter
	RetryBaseDelay, MaxRetryAfter = time.Second, 30*time.Second
	defer func() { RetryBaseDelay, MaxRetryAfter = old, oldMax }()

	tests := []struct {
		name       string
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{"first attempt", 0, "", time.Second},
		{"doubles", 3, "", 8 * time.Second},
		{"retry-after seconds", 2, "7", 7 * time.Second},
		{"retry-after zero", 4, "0", 0},
		{"retry-after capped", 0, "600", 30 * time.Second},
		{"negative retry-after ignored", 1, "-5", 2 * time.Second},
		{"http-date ignored", 1, "Wed, 21 Oct 2026 07:28:00 GMT", 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoff(tt.attempt, tt.retryAfter))
		})
	}
}
