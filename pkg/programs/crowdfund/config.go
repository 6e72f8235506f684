package crowdfund

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/config"
	"github.com/code-payments/code-runtime/pkg/config/env"
	"github.com/code-payments/code-runtime/pkg/config/memory"
)

const (
	envConfigPrefix = "CROWDFUND_"

	WithdrawAuthorityConfigEnvName = envConfigPrefix + "WITHDRAW_AUTHORITY"
)

type conf struct {
	withdrawAuthority config.PublicKey
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables. The
// authority is base58 encoded. Without it, every withdrawal is rejected.
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			withdrawAuthority: env.NewPublicKeyConfig(WithdrawAuthorityConfigEnvName, nil),
		}
	}
}

// WithAuthority returns configuration with a fixed withdraw authority
func WithAuthority(authority ed25519.PublicKey) ConfigProvider {
	return func() *conf {
		return &conf{
			withdrawAuthority: memory.NewPublicKeyConfig(authority),
		}
	}
}
