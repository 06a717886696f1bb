// Package resilience builds the circuit breakers placed around remote
// collaborators (retrievers and the reranker).
package resilience

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Defaults used when BreakerConfig leaves a field zero.
const (
	DefaultFailureRatio    = 0.6
	DefaultMinRequests     = 5
	DefaultOpenTimeout     = 30 * time.Second
	DefaultHalfOpenMaxCall = 1
)

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureRatio trips the breaker once reached over at least MinRequests.
	FailureRatio float64
	MinRequests  uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxCalls bounds probe calls while half-open.
	HalfOpenMaxCalls uint32
}

func (c BreakerConfig) normalize() BreakerConfig {
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = DefaultFailureRatio
	}
	if c.MinRequests == 0 {
		c.MinRequests = DefaultMinRequests
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = DefaultOpenTimeout
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = DefaultHalfOpenMaxCall
	}
	return c
}

// NewBreaker creates a named breaker. isFailure decides which errors count
// against the breaker; nil counts every error.
func NewBreaker[T any](name string, cfg BreakerConfig, isFailure func(error) bool) *gobreaker.CircuitBreaker[T] {
	cfg = cfg.normalize()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if isFailure == nil {
				return false
			}
			return !isFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}

// IsOpen reports whether err was returned by a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
