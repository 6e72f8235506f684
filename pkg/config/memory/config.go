package memory

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/code-payments/code-runtime/pkg/config"
	"github.com/code-payments/code-runtime/pkg/config/wrapper"
)

// Config holds a value in memory. It backs the fixed runtime overrides, and
// lets tests change a value or inject a failure while a typed config is
// reading it.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

// NewConfig returns a Config holding value. A nil value means no value is set.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

// Set replaces the value. Setting nil clears it.
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Fail makes Get return err until Fail(nil) is called
func (c *Config) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func NewUint64Config(value uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(value), value)
}

func NewFloat64Config(value float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(value), value)
}

// NewPublicKeyConfig returns a fixed public key config. A nil key yields no
// value.
func NewPublicKeyConfig(value ed25519.PublicKey) config.PublicKey {
	if value == nil {
		return wrapper.NewPublicKeyConfig(config.NoopConfig, nil)
	}
	return wrapper.NewPublicKeyConfig(NewConfig(value), value)
}
