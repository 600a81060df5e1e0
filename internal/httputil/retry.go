// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry loop shared by the metadata
// source and the LLM clients.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/research-feed/internal/logging"
)

// RetryBaseDelay is the first backoff delay; it doubles on every attempt.
// Tests override it to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps both the computed backoff and a server's Retry-After.
var MaxRetryDelay = 60 * time.Second

const defaultMaxRetries = 3

// retryable lists the statuses worth another attempt: rate limiting and
// transient upstream failures (529 is Anthropic's "overloaded").
var retryable = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	529:                            true,
}

// Retryable reports whether status is retried by DoWithRetry.
func Retryable(status int) bool { return retryable[status] }

// DoWithRetry executes req and retries on a retryable status with
// exponential backoff starting at RetryBaseDelay. A Retry-After header given
// in seconds takes precedence over the computed delay.
//
// When maxRetries is 0 the default (3) is used; a negative value disables
// retries. The body of each retried response is drained and closed. If ctx
// is cancelled during a wait DoWithRetry returns ctx.Err(). After the last
// attempt the final response is returned as-is so the caller can read it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		if !retryable[resp.StatusCode] || attempt >= maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		logging.Debug().
			Str("host", req.URL.Host).
			Int("status", resp.StatusCode).
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Msg("retrying request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, MaxRetryDelay)
	}
	return min(RetryBaseDelay<<attempt, MaxRetryDelay)
}
