package retry

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/retry/backoff"
)

// recordSleeps replaces sleep with a recorder for the rest of the test
func recordSleeps(t *testing.T) *[]time.Duration {
	var slept []time.Duration
	original := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = original })
	return &slept
}

func TestLimit(t *testing.T) {
	strategy := Limit(2)
	assert.True(t, strategy(1, errors.New("test")))
	assert.False(t, strategy(2, errors.New("test")))

	attempts, err := Retry(func() error { return errors.New("test") }, Limit(2))
	assert.EqualError(t, err, "test")
	assert.EqualValues(t, 2, attempts)
}

func TestRetriableErrors(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")

	strategy := RetriableErrors(a, b)
	assert.True(t, strategy(1, a))
	assert.True(t, strategy(1, errors.Wrap(b, "wrapped")))
	assert.False(t, strategy(1, errors.New("unexpected")))

	// Non retriable errors end the loop regardless of strategy order
	attempts, err := Retry(func() error { return errors.New("unexpected") }, Limit(5), RetriableErrors(a))
	assert.Error(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = Retry(func() error { return a }, RetriableErrors(a), Limit(5))
	assert.Equal(t, a, err)
	assert.EqualValues(t, 5, attempts)
}

func TestRetriableFunc(t *testing.T) {
	retriable := errors.New("retriable")

	strategy := RetriableFunc(func(err error) bool {
		return errors.Is(err, retriable)
	})
	assert.True(t, strategy(1, errors.Wrap(retriable, "wrapped")))
	assert.False(t, strategy(1, errors.New("unexpected")))
}

func TestBackoff(t *testing.T) {
	slept := recordSleeps(t)

	strategy := Backoff(backoff.BinaryExponential(100*time.Millisecond), 300*time.Millisecond)
	for i := uint(1); i <= 4; i++ {
		assert.True(t, strategy(i, errors.New("test")))
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}, *slept)
}

func TestBackoffWithJitter(t *testing.T) {
	slept := recordSleeps(t)

	const delay = time.Millisecond
	strategy := BackoffWithJitter(backoff.Constant(delay), delay, 0.1)

	const iterations = 5000
	for i := 0; i < iterations; i++ {
		require.True(t, strategy(1, errors.New("test")))
	}

	var total time.Duration
	for _, d := range *slept {
		assert.GreaterOrEqual(t, d, 9*delay/10)
		assert.LessOrEqual(t, d, 11*delay/10)
		total += d
	}
	assert.InDelta(t, float64(delay), float64(total)/iterations, 0.02*float64(delay))
}
