package readiness

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker returns a breaker that opens after 3 consecutive
// failures and half-opens after timeout.
func NewCircuitBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}
