package runtime

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/testutil"
)

func TestFindProgramAddress_Cached(t *testing.T) {
	env := setup(t, &Overrides{DerivationCacheSize: 2})
	program := testutil.NewRandomPublicKey(t)

	expected, expectedBump, err := solana.FindProgramAddressAndBump(program, []byte("a"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		address, bump, err := env.rt.findProgramAddress(program, []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, expected, address)
		assert.Equal(t, expectedBump, bump)
	}
	assert.Equal(t, 1, env.rt.derivations.Len())

	// Callers can't corrupt the cached address
	address, _, err := env.rt.findProgramAddress(program, []byte("a"))
	require.NoError(t, err)
	address[0] ^= 0xff
	address, _, err = env.rt.findProgramAddress(program, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, expected, address)

	_, _, err = env.rt.findProgramAddress(program, []byte("b"))
	require.NoError(t, err)
	_, _, err = env.rt.findProgramAddress(program, []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, 2, env.rt.derivations.Len())
}

func TestFindProgramAddress_Errors(t *testing.T) {
	env := setup(t, nil)
	program := testutil.NewRandomPublicKey(t)

	_, _, err := env.rt.findProgramAddress(program, make([]byte, solana.MaxSeedLength+1))
	assert.Equal(t, solana.ErrMaxSeedLengthExceeded, err)
	assert.Equal(t, 0, env.rt.derivations.Len())
}

func TestDerivationKey(t *testing.T) {
	program := ed25519.PublicKey(make([]byte, ed25519.PublicKeySize))

	assert.NotEqual(t,
		derivationKey(program, [][]byte{[]byte("ab")}),
		derivationKey(program, [][]byte{[]byte("a"), []byte("b")}),
	)
	assert.NotEqual(t,
		derivationKey(program, nil),
		derivationKey(program, [][]byte{{}}),
	)
	assert.Equal(t,
		derivationKey(program, [][]byte{[]byte("a"), []byte("b")}),
		derivationKey(program, [][]byte{[]byte("a"), []byte("b")}),
	)
}
