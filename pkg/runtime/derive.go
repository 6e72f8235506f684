package runtime

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/solana"
)

type derivation struct {
	address ed25519.PublicKey
	bump    uint8
}

// findProgramAddress is solana.FindProgramAddressAndBump behind the
// derivation cache. Only successful derivations are cached.
func (r *Runtime) findProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	if r.derivations == nil || !cacheable(seeds) {
		return solana.FindProgramAddressAndBump(program, seeds...)
	}

	key := derivationKey(program, seeds)
	if cached, ok := r.derivations.Retrieve(key); ok {
		return append(ed25519.PublicKey{}, cached.address...), cached.bump, nil
	}

	address, bump, err := solana.FindProgramAddressAndBump(program, seeds...)
	if err != nil {
		return nil, 0, err
	}

	r.derivations.Insert(key, derivation{address: address, bump: bump}, 1)
	return append(ed25519.PublicKey{}, address...), bump, nil
}

// derivationKey encodes the program and each seed with a length prefix, so
// that different seed splits of the same bytes never collide
func derivationKey(program ed25519.PublicKey, seeds [][]byte) string {
	size := len(program)
	for _, seed := range seeds {
		size += 1 + len(seed)
	}

	key := make([]byte, 0, size)
	key = append(key, program...)
	for _, seed := range seeds {
		key = append(key, byte(len(seed)))
		key = append(key, seed...)
	}
	return string(key)
}

func cacheable(seeds [][]byte) bool {
	for _, seed := range seeds {
		if len(seed) > solana.MaxSeedLength {
			return false
		}
	}
	return true
}
