package runtime

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/code-payments/code-runtime/pkg/config"
	"github.com/code-payments/code-runtime/pkg/config/env"
	"github.com/code-payments/code-runtime/pkg/config/memory"
	"github.com/code-payments/code-runtime/pkg/config/wrapper"

	viperconfig "github.com/code-payments/code-runtime/pkg/config/viper"
)

const (
	envConfigPrefix = "RUNTIME_"

	MaxInvokeDepthConfigEnvName = envConfigPrefix + "MAX_INVOKE_DEPTH"
	defaultMaxInvokeDepth       = 4

	MaxAccountDataLengthConfigEnvName = envConfigPrefix + "MAX_ACCOUNT_DATA_LENGTH"
	defaultMaxAccountDataLength       = 10 * 1024 * 1024

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 1024

	MaxCommitAttemptsConfigEnvName = envConfigPrefix + "MAX_COMMIT_ATTEMPTS"
	defaultMaxCommitAttempts       = 3

	DerivationCacheSizeConfigEnvName = envConfigPrefix + "DERIVATION_CACHE_SIZE"
	defaultDerivationCacheSize       = 4096

	PayerRateLimitConfigEnvName = envConfigPrefix + "PAYER_RATE_LIMIT"
	defaultPayerRateLimit       = 0

	RentLamportsPerByteYearConfigEnvName = envConfigPrefix + "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = defaultLamportsPerByteYear

	RentExemptionThresholdConfigEnvName = envConfigPrefix + "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = defaultExemptionThreshold

	RentAccountStorageOverheadConfigEnvName = envConfigPrefix + "RENT_ACCOUNT_STORAGE_OVERHEAD"
	defaultRentAccountStorageOverhead       = defaultAccountStorageOverhead
)

type conf struct {
	maxInvokeDepth       config.Uint64
	maxAccountDataLength config.Uint64
	lockStripes          config.Uint64
	maxCommitAttempts    config.Uint64
	derivationCacheSize  config.Uint64
	payerRateLimit       config.Float64

	rentLamportsPerByteYear    config.Uint64
	rentExemptionThreshold     config.Float64
	rentAccountStorageOverhead config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			maxInvokeDepth:       env.NewUint64Config(MaxInvokeDepthConfigEnvName, defaultMaxInvokeDepth),
			maxAccountDataLength: env.NewUint64Config(MaxAccountDataLengthConfigEnvName, defaultMaxAccountDataLength),
			lockStripes:          env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			maxCommitAttempts:    env.NewUint64Config(MaxCommitAttemptsConfigEnvName, defaultMaxCommitAttempts),
			derivationCacheSize:  env.NewUint64Config(DerivationCacheSizeConfigEnvName, defaultDerivationCacheSize),
			payerRateLimit:       env.NewFloat64Config(PayerRateLimitConfigEnvName, defaultPayerRateLimit),

			rentLamportsPerByteYear:    env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:     env.NewFloat64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			rentAccountStorageOverhead: env.NewUint64Config(RentAccountStorageOverheadConfigEnvName, defaultRentAccountStorageOverhead),
		}
	}
}

// WithViperConfigs returns configuration read from a viper instance, keyed
// by the lower cased environment variable name without its prefix (for
// example "max_invoke_depth")
func WithViperConfigs(v *viper.Viper) ConfigProvider {
	return func() *conf {
		return &conf{
			maxInvokeDepth:       viperconfig.NewUint64Config(v, viperKey(MaxInvokeDepthConfigEnvName), defaultMaxInvokeDepth),
			maxAccountDataLength: viperconfig.NewUint64Config(v, viperKey(MaxAccountDataLengthConfigEnvName), defaultMaxAccountDataLength),
			lockStripes:          viperconfig.NewUint64Config(v, viperKey(LockStripesConfigEnvName), defaultLockStripes),
			maxCommitAttempts:    viperconfig.NewUint64Config(v, viperKey(MaxCommitAttemptsConfigEnvName), defaultMaxCommitAttempts),
			derivationCacheSize:  viperconfig.NewUint64Config(v, viperKey(DerivationCacheSizeConfigEnvName), defaultDerivationCacheSize),
			payerRateLimit:       viperconfig.NewFloat64Config(v, viperKey(PayerRateLimitConfigEnvName), defaultPayerRateLimit),

			rentLamportsPerByteYear:    viperconfig.NewUint64Config(v, viperKey(RentLamportsPerByteYearConfigEnvName), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:     viperconfig.NewFloat64Config(v, viperKey(RentExemptionThresholdConfigEnvName), defaultRentExemptionThreshold),
			rentAccountStorageOverhead: viperconfig.NewUint64Config(v, viperKey(RentAccountStorageOverheadConfigEnvName), defaultRentAccountStorageOverhead),
		}
	}
}

func viperKey(envName string) string {
	return strings.ToLower(strings.TrimPrefix(envName, envConfigPrefix))
}

// Overrides are fixed configuration values. Zero values fall back to the
// defaults, which leaves the payer rate limit disabled.
type Overrides struct {
	MaxInvokeDepth       uint64
	MaxAccountDataLength uint64
	LockStripes          uint64
	MaxCommitAttempts    uint64
	DerivationCacheSize  uint64
	PayerRateLimit       float64
}

// WithOverrides returns configuration with fixed values, used by tests and
// embedders that don't read the environment
func WithOverrides(overrides *Overrides) ConfigProvider {
	return func() *conf {
		return &conf{
			maxInvokeDepth:       uint64Override(overrides.MaxInvokeDepth, defaultMaxInvokeDepth),
			maxAccountDataLength: uint64Override(overrides.MaxAccountDataLength, defaultMaxAccountDataLength),
			lockStripes:          uint64Override(overrides.LockStripes, defaultLockStripes),
			maxCommitAttempts:    uint64Override(overrides.MaxCommitAttempts, defaultMaxCommitAttempts),
			derivationCacheSize:  uint64Override(overrides.DerivationCacheSize, defaultDerivationCacheSize),
			payerRateLimit:       float64Override(overrides.PayerRateLimit, defaultPayerRateLimit),

			rentLamportsPerByteYear:    wrapper.NewUint64Config(config.NoopConfig, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:     wrapper.NewFloat64Config(config.NoopConfig, defaultRentExemptionThreshold),
			rentAccountStorageOverhead: wrapper.NewUint64Config(config.NoopConfig, defaultRentAccountStorageOverhead),
		}
	}
}

func uint64Override(value, defaultValue uint64) config.Uint64 {
	if value == 0 {
		return wrapper.NewUint64Config(config.NoopConfig, defaultValue)
	}
	return memory.NewUint64Config(value)
}

func float64Override(value, defaultValue float64) config.Float64 {
	if value == 0 {
		return wrapper.NewFloat64Config(config.NoopConfig, defaultValue)
	}
	return memory.NewFloat64Config(value)
}
