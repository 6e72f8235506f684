package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

// SystemAccount is the address of the builtin system program. It is also the
// owner of every account that does not exist or has been closed.
//
// https://explorer.solana.com/address/11111111111111111111111111111111
var SystemAccount ed25519.PublicKey

func init() {
	var err error

	SystemAccount, err = base58.Decode("11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	copy(ProgramKey[:], SystemAccount)
}

// IsSystemAccount reports whether key is the system program address.
func IsSystemAccount(key ed25519.PublicKey) bool {
	return string(key) == string(SystemAccount)
}
