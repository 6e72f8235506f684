package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewRandomKeypair returns a fresh ed25519 keypair
func NewRandomKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	public, private, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return public, private
}

func NewRandomPublicKey(t *testing.T) ed25519.PublicKey {
	public, _ := NewRandomKeypair(t)
	return public
}

func NewRandomPublicKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, 0, n)
	for len(keys) < n {
		keys = append(keys, NewRandomPublicKey(t))
	}
	return keys
}
