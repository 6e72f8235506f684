package testutil

import (
	"time"

	"github.com/pkg/errors"
)

// WaitFor polls condition every interval until it holds or timeout elapses.
// The condition is always checked at least once.
func WaitFor(timeout, interval time.Duration, condition func() bool) error {
	if interval <= 0 || timeout < interval {
		return errors.Errorf("invalid polling interval %v for timeout %v", interval, timeout)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.After(timeout)
	for {
		if condition() {
			return nil
		}

		select {
		case <-deadline:
			return errors.Errorf("condition not met within %v", timeout)
		case <-ticker.C:
		}
	}
}
