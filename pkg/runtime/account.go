package runtime

import (
	"bytes"
	"crypto/ed25519"
	"math/bits"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-runtime/pkg/pointer"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

// AccountState is the lifecycle position of an account within the current
// transaction. It's tracked explicitly by every store operation and never
// inferred from the account's bytes.
type AccountState uint8

const (
	AccountStateNonexistent AccountState = iota
	AccountStateInitialized
	AccountStateResized
	AccountStateMutated
	AccountStateReassigned
	AccountStateClosed
)

func (s AccountState) String() string {
	switch s {
	case AccountStateNonexistent:
		return "nonexistent"
	case AccountStateInitialized:
		return "initialized"
	case AccountStateResized:
		return "resized"
	case AccountStateMutated:
		return "mutated"
	case AccountStateReassigned:
		return "reassigned"
	case AccountStateClosed:
		return "closed"
	}
	return "unknown"
}

// account is the working copy of a ledger account for one transaction.
//
// data is a view over a backing buffer. Shrinking keeps the backing buffer, so
// growing again without zeroing exposes whatever bytes were there before.
type account struct {
	address ed25519.PublicKey
	owner   ed25519.PublicKey

	lamports uint64
	data     []byte
	bump     *uint8

	state AccountState

	// closed is set once the account is closed in this transaction, and only
	// cleared when the account goes through create again
	closed    bool
	recreated bool
}

func newNonexistentAccount(address ed25519.PublicKey) *account {
	return &account{
		address: address,
		owner:   system.SystemAccount,
		state:   AccountStateNonexistent,
	}
}

func (a *account) clone() *account {
	cloned := *a
	cloned.owner = append(ed25519.PublicKey{}, a.owner...)
	cloned.data = cloneBacking(a.data)
	cloned.bump = pointer.Uint8Copy(a.bump)
	return &cloned
}

func (a *account) restore(from *account) {
	*a = *from.clone()
}

func (a *account) isEmpty() bool {
	return a.lamports == 0 && len(a.data) == 0
}

// isInitialized returns whether the account holds program state, either as
// data or through a non-system owner
func (a *account) isInitialized() bool {
	return len(a.data) > 0 || !system.IsSystemAccount(a.owner)
}

func (a *account) isOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.owner, program)
}

func (a *account) equal(other *account) bool {
	return bytes.Equal(a.owner, other.owner) &&
		a.lamports == other.lamports &&
		bytes.Equal(a.data, other.data) &&
		pointer.Uint8Equal(a.bump, other.bump)
}

// markModified advances an initialized account to newState without
// overwriting a terminal transition
func (a *account) markModified(newState AccountState) {
	switch a.state {
	case AccountStateInitialized, AccountStateResized, AccountStateMutated:
		a.state = newState
	}
}

// wipe zeroes the full backing buffer before truncating, so no later growth
// can observe the old bytes
func (a *account) wipe() {
	backing := a.data[:cap(a.data)]
	for i := range backing {
		backing[i] = 0
	}
	a.data = nil
}

func (a *account) credit(amount uint64) error {
	sum, carry := bits.Add64(a.lamports, amount, 0)
	if carry != 0 {
		return newError(ErrorCodeArithmeticOverflow, "crediting %d lamports to %s", amount, base58.Encode(a.address))
	}
	a.lamports = sum
	return nil
}

func (a *account) debit(amount uint64) error {
	if a.lamports < amount {
		return newError(ErrorCodeInsufficientFunds, "%s has %d lamports, needs %d", base58.Encode(a.address), a.lamports, amount)
	}
	a.lamports -= amount
	return nil
}

// resize changes the data length. Growing within the backing buffer reuses it;
// growing beyond it copies the full backing buffer into a larger one.
func (a *account) resize(newSpace int, zeroNewRegion bool) {
	oldLen := len(a.data)
	if newSpace <= oldLen {
		a.data = a.data[:newSpace]
		return
	}

	if newSpace <= cap(a.data) {
		a.data = a.data[:newSpace]
	} else {
		grown := make([]byte, newSpace)
		copy(grown, a.data[:cap(a.data)])
		a.data = grown
	}

	if zeroNewRegion {
		for i := oldLen; i < newSpace; i++ {
			a.data[i] = 0
		}
	}
}

// cloneBacking copies data including any bytes beyond its length
func cloneBacking(data []byte) []byte {
	if data == nil {
		return nil
	}

	cloned := make([]byte, len(data), cap(data))
	copy(cloned[:cap(data)], data[:cap(data)])
	return cloned
}

// AccountInfo is a program's handle to an account, along with the
// capabilities granted to it for the current invocation.
type AccountInfo struct {
	Address    ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	acct *account
}

// Owner returns the program that owns the account
func (i *AccountInfo) Owner() ed25519.PublicKey {
	return append(ed25519.PublicKey{}, i.acct.owner...)
}

// Lamports returns the account balance
func (i *AccountInfo) Lamports() uint64 {
	return i.acct.lamports
}

// DataLen returns the length of the account data
func (i *AccountInfo) DataLen() int {
	return len(i.acct.data)
}

// Bump returns the bump recorded when the account was created at a program
// derived address
func (i *AccountInfo) Bump() (uint8, bool) {
	if i.acct.bump == nil {
		return 0, false
	}
	return *i.acct.bump, true
}

// State returns the account lifecycle state
func (i *AccountInfo) State() AccountState {
	return i.acct.state
}

// IsEmpty returns whether the account has zero balance and no data
func (i *AccountInfo) IsEmpty() bool {
	return i.acct.isEmpty()
}

// IsOwnedBy returns whether program owns the account
func (i *AccountInfo) IsOwnedBy(program ed25519.PublicKey) bool {
	return i.acct.isOwnedBy(program)
}

func (i *AccountInfo) String() string {
	return base58.Encode(i.Address)
}
