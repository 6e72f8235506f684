package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/code-runtime/pkg/retry/backoff"
)

// Strategy decides whether a failed action is attempted again. attempts
// counts the attempts made so far, starting at 1. Strategies may sleep.
type Strategy func(attempts uint, err error) bool

// sleep is swapped out by tests
var sleep = time.Sleep

// Limit stops retrying once maxAttempts attempts have been made
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of targets under errors.Is
func RetriableErrors(targets ...error) Strategy {
	return RetriableFunc(func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	})
}

// RetriableFunc only retries errors for which isRetriable is true
func RetriableFunc(isRetriable func(error) bool) Strategy {
	return func(_ uint, err error) bool {
		return isRetriable(err)
	}
}

// Backoff sleeps for the delay given by strategy, capped at maxBackoff
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay spread uniformly over
// +/- jitter of itself. A jitter of 0.1 turns a 100ms delay into 90ms to
// 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}

		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 - jitter + 2*jitter*rand.Float64()))
		}

		sleep(delay)
		return true
	}
}
