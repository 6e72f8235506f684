package runtime

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-runtime/pkg/config"
)

// Guard is a precondition evaluated before an operation takes effect. A
// non-nil result aborts the instruction.
type Guard func() error

// Require fails with err, or AuthorizationFailed when err is nil, if the
// predicate is false
func Require(predicate bool, err error) Guard {
	return RequireFunc(func() bool { return predicate }, err)
}

// RequireFunc is Require with a lazily evaluated predicate
func RequireFunc(predicate func() bool, err error) Guard {
	return func() error {
		if predicate() {
			return nil
		}
		if err != nil {
			return err
		}
		return newError(ErrorCodeAuthorizationFailed, "guard predicate failed")
	}
}

// RequireSigner requires address to have signed for the current invocation
func (c *InvocationContext) RequireSigner(address ed25519.PublicKey) Guard {
	return func() error {
		info, ok := c.lookup(address)
		if !ok || !info.IsSigner {
			return newError(ErrorCodeMissingRequiredSignature, "%s must sign", base58.Encode(address))
		}
		return nil
	}
}

// RequireAddress requires actual to equal expected
func RequireAddress(actual, expected ed25519.PublicKey) Guard {
	return func() error {
		if !bytes.Equal(actual, expected) {
			return newError(ErrorCodeAuthorizationFailed, "expected %s, got %s", base58.Encode(expected), base58.Encode(actual))
		}
		return nil
	}
}

// RequireAuthority requires signer to equal the configured authority and to
// have signed. An unset authority rejects everyone.
func (c *InvocationContext) RequireAuthority(authority config.PublicKey, signer ed25519.PublicKey) Guard {
	return func() error {
		expected, err := authority.GetSafe(c.Context())
		if err != nil {
			return &Error{Code: ErrorCodeAuthorizationFailed, Message: "authority is unavailable", Cause: err}
		}
		if len(expected) != ed25519.PublicKeySize {
			return newError(ErrorCodeAuthorizationFailed, "authority is not configured")
		}

		if err := RequireAddress(signer, expected)(); err != nil {
			return err
		}
		if err := c.RequireSigner(signer)(); err != nil {
			return &Error{Code: ErrorCodeAuthorizationFailed, Message: "authority must sign", Cause: err}
		}
		return nil
	}
}

// Require evaluates guards in order, stopping at the first failure
func (c *InvocationContext) Require(guards ...Guard) error {
	return checkGuards(guards)
}

func checkGuards(guards []Guard) error {
	for _, guard := range guards {
		if guard == nil {
			continue
		}
		if err := guard(); err != nil {
			return err
		}
	}
	return nil
}
