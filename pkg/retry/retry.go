// Package retry runs actions until they succeed or a strategy gives up
package retry

import (
	"context"
)

// Action is a function to be performed in a retriable manner
type Action func() error

// Retry is RetryWithContext without cancellation
func Retry(action Action, strategies ...Strategy) (uint, error) {
	return RetryWithContext(context.Background(), action, strategies...)
}

// RetryWithContext runs action until it returns nil, a strategy declines to
// retry, or ctx is done. It returns the number of attempts made and the last
// error.
//
// Strategies are consulted in order after each failure, so any that sleep
// belong last.
func RetryWithContext(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, strategy := range strategies {
			if !strategy(attempts, err) {
				return attempts, err
			}
		}

		if ctx.Err() != nil {
			return attempts, err
		}
	}
}
