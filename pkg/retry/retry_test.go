package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-runtime/pkg/retry/backoff"
)

func TestRetry_Success(t *testing.T) {
	var calls int
	attempts, err := Retry(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestRetry_Sleeps(t *testing.T) {
	start := time.Now()
	attempts, err := Retry(func() error { return errors.New("err") },
		Limit(2),
		Backoff(backoff.Constant(50*time.Millisecond), time.Second),
	)

	assert.Error(t, err)
	assert.EqualValues(t, 2, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRetryWithContext_Cancelled(t *testing.T) {
	slept := recordSleeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	attempts, err := RetryWithContext(ctx, func() error {
		calls++
		if calls == 3 {
			cancel()
		}
		return errors.New("err")
	}, Backoff(backoff.Constant(time.Millisecond), time.Second))

	assert.Error(t, err)
	assert.EqualValues(t, 3, attempts)
	assert.Len(t, *slept, 3)
}
