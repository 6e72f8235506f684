package wrapper_test

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/config"
	"github.com/code-payments/code-runtime/pkg/config/memory"
	"github.com/code-payments/code-runtime/pkg/config/wrapper"
)

type wrapperTestCase[T any] struct {
	defaultValue   T
	overriden      interface{}
	overridenValue T
	unsupported    interface{}
	ctor           func(config.Config, T) config.Typed[T]
}

func runWrapperTest[T any](t *testing.T, tc wrapperTestCase[T]) {
	mock := memory.NewConfig(nil)
	wrapper := tc.ctor(mock, tc.defaultValue)

	// Return the default value when no override is set
	val, err := wrapper.GetSafe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)
	assert.Equal(t, tc.defaultValue, wrapper.Get(context.Background()))

	// The overriden value is returned when set
	mock.Set(tc.overriden)
	val, err = wrapper.GetSafe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tc.overridenValue, val)
	assert.Equal(t, tc.overridenValue, wrapper.Get(context.Background()))

	// The last observed config value is returned on error
	mock.Fail(errors.New("unavailable"))
	val, err = wrapper.GetSafe(context.Background())
	require.Error(t, err)
	assert.Equal(t, tc.overridenValue, val)
	assert.Equal(t, tc.overridenValue, wrapper.Get(context.Background()))

	// The default value is returned when the override no longer has a value
	mock.Fail(nil)
	mock.Set(nil)
	val, err = wrapper.GetSafe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tc.defaultValue, val)
	assert.Equal(t, tc.defaultValue, wrapper.Get(context.Background()))

	// Return an unsupported source value type
	mock.Set(tc.unsupported)
	val, err = wrapper.GetSafe(context.Background())
	assert.Error(t, err)
	assert.Equal(t, tc.defaultValue, val)
	assert.Equal(t, tc.defaultValue, wrapper.Get(context.Background()))

	wrapper.Shutdown()
	_, err = wrapper.GetSafe(context.Background())
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	runWrapperTest(t, wrapperTestCase[bool]{
		defaultValue:   true,
		overriden:      []byte("false"),
		overridenValue: false,
		unsupported:    struct{}{},
		ctor:           wrapper.NewBoolConfig,
	})
}

func TestUint64Config(t *testing.T) {
	runWrapperTest(t, wrapperTestCase[uint64]{
		defaultValue:   4,
		overriden:      []byte("18446744073709551615"),
		overridenValue: 18446744073709551615,
		unsupported:    -1,
		ctor:           wrapper.NewUint64Config,
	})
	runWrapperTest(t, wrapperTestCase[uint64]{
		defaultValue:   4,
		overriden:      16,
		overridenValue: 16,
		unsupported:    []byte("not a number"),
		ctor:           wrapper.NewUint64Config,
	})
}

func TestFloat64Config(t *testing.T) {
	runWrapperTest(t, wrapperTestCase[float64]{
		defaultValue:   2.0,
		overriden:      []byte("1.5"),
		overridenValue: 1.5,
		unsupported:    "two",
		ctor:           wrapper.NewFloat64Config,
	})
}

func TestStringConfig(t *testing.T) {
	runWrapperTest(t, wrapperTestCase[string]{
		defaultValue:   "default",
		overriden:      []byte("override"),
		overridenValue: "override",
		unsupported:    42,
		ctor:           wrapper.NewStringConfig,
	})
}

func TestDurationConfig(t *testing.T) {
	runWrapperTest(t, wrapperTestCase[time.Duration]{
		defaultValue:   time.Second,
		overriden:      []byte("1m"),
		overridenValue: time.Minute,
		unsupported:    []byte("forever"),
		ctor:           wrapper.NewDurationConfig,
	})
}

func TestPublicKeyConfig(t *testing.T) {
	defaultValue, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	overridenValue, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	runWrapperTest(t, wrapperTestCase[ed25519.PublicKey]{
		defaultValue:   defaultValue,
		overriden:      []byte(base58.Encode(overridenValue)),
		overridenValue: overridenValue,
		unsupported:    base58.Encode([]byte("too short")),
		ctor:           wrapper.NewPublicKeyConfig,
	})
}
