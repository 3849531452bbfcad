// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for downloading source tables from
// data portals.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/tablemerge/internal/logging"
)

// RetryBaseDelay is the first backoff step. Tests override it to avoid real
// sleeps.
var RetryBaseDelay = 5 * time.Second

// MaxRetryAfter caps a server-supplied Retry-After delay.
var MaxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 5

// Retryable reports whether a response status is worth retrying: 429 and
// 503 are what portals return while throttling or rebuilding exports.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries retryable statuses with exponential
// backoff starting at RetryBaseDelay. A Retry-After header given in seconds
// replaces the computed delay, capped at MaxRetryAfter.
//
// When maxRetries is 0 the default (5) is used. The body of each retried
// response is drained and closed. Cancelling ctx during a wait returns
// ctx.Err(). After the last retry the final response is returned unchanged
// so the caller can report its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := logging.FromContext(ctx)

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		log.Warn().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Msg("portal throttled request, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > MaxRetryAfter {
			d = MaxRetryAfter
		}
		return d
	}
	return RetryBaseDelay << attempt
}
