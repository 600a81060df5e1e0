// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/metrics"
)

const (
	defaultBreakerFailures = 5

	// breakerOpenFor is how long the breaker rejects calls before letting
	// one probe through.
	breakerOpenFor = 30 * time.Second
)

// Breaker wraps a Completer with a circuit breaker that opens after a run of
// consecutive failures. While open, Complete fails fast with an error
// wrapping gobreaker.ErrOpenState.
type Breaker struct {
	name string
	next Completer
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps next. failures is the number of consecutive failures that
// opens the circuit; zero or less uses 5.
func NewBreaker(name string, next Completer, failures int) *Breaker {
	if failures <= 0 {
		failures = defaultBreakerFailures
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logging.Component("llm")
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// A caller cancelling its own context says nothing about the endpoint.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{name: name, next: next, cb: cb}
}

// Complete forwards to the wrapped Completer through the breaker.
func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (string, error) {
		return b.next.Complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%s: %w", b.name, err)
	}
	return out, err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
