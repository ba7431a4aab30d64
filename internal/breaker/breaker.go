// Package breaker builds gobreaker circuit breakers that report to logs and metrics.
package breaker

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/metrics"
)

// Settings configures when a breaker opens and recovers.
type Settings struct {
	MaxRequests  uint32        // requests allowed while half-open
	Interval     time.Duration // closed-state count reset period
	Timeout      time.Duration // open -> half-open delay
	MinRequests  uint32        // requests needed before the failure ratio is considered
	FailureRatio float64       // open at or above this ratio
}

// DefaultSettings returns settings suited to a third-party HTTP API.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// New creates a circuit breaker named after the collaborator it protects.
// Caller cancellations are not counted as failures.
func New[T any](name string, s Settings) *gobreaker.CircuitBreaker[T] {
	metrics.BreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// IsRejected reports whether err came from an open or saturated breaker.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
