package runtime

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-runtime/pkg/pointer"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

// AddressSpec describes where Create places an account
type AddressSpec struct {
	address ed25519.PublicKey

	derived bool
	seeds   [][]byte
	bump    *uint8
}

// KeypairAddress is an externally generated address. Its owner must sign the
// creating instruction.
func KeypairAddress(address ed25519.PublicKey) AddressSpec {
	return AddressSpec{address: address}
}

// DerivedAddress is an address derived from the calling program and seeds.
// The canonical bump is searched for unless one is supplied with WithBump.
func DerivedAddress(seeds ...[]byte) AddressSpec {
	return AddressSpec{derived: true, seeds: seeds}
}

// WithBump supplies the bump for a derived address. It is verified rather
// than trusted.
func (s AddressSpec) WithBump(bump uint8) AddressSpec {
	s.bump = pointer.Uint8(bump)
	return s
}

// DeriveAddress returns the canonical program derived address and bump for
// the calling program
func (c *InvocationContext) DeriveAddress(seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	address, bump, err := c.exec.rt.findProgramAddress(c.program, seeds...)
	if err != nil {
		return nil, 0, derivationError(err)
	}
	return address, bump, nil
}

// VerifyDerivedAddress checks that address is derived from the calling
// program, seeds and bump
func (c *InvocationContext) VerifyDerivedAddress(address ed25519.PublicKey, bump uint8, seeds ...[]byte) error {
	if len(seeds)+1 > solana.MaxSeeds {
		return derivationError(solana.ErrTooManySeeds)
	}
	for _, seed := range seeds {
		if len(seed) > solana.MaxSeedLength {
			return derivationError(solana.ErrMaxSeedLengthExceeded)
		}
	}

	if !solana.VerifyProgramAddress(address, c.program, bump, seeds...) {
		return newError(ErrorCodeInvalidSeeds, "%s is not derived from the provided seeds", base58.Encode(address))
	}
	return nil
}

func (c *InvocationContext) resolve(spec AddressSpec) (ed25519.PublicKey, *uint8, error) {
	if !spec.derived {
		if len(spec.address) != ed25519.PublicKeySize {
			return nil, nil, newError(ErrorCodeInvalidSeeds, "invalid keypair address")
		}
		return spec.address, nil, nil
	}

	if spec.bump == nil {
		address, bump, err := c.DeriveAddress(spec.seeds...)
		if err != nil {
			return nil, nil, err
		}
		return address, pointer.Uint8(bump), nil
	}

	seeds := append(append([][]byte{}, spec.seeds...), []byte{*spec.bump})
	address, err := solana.CreateProgramAddress(c.program, seeds...)
	if err != nil {
		return nil, nil, derivationError(err)
	}
	if err := c.VerifyDerivedAddress(address, *spec.bump, spec.seeds...); err != nil {
		return nil, nil, err
	}
	return address, pointer.Uint8Copy(spec.bump), nil
}

func derivationError(err error) error {
	switch err {
	case solana.ErrTooManySeeds, solana.ErrMaxSeedLengthExceeded:
		return &Error{Code: ErrorCodeSeedTooLong, Cause: err}
	case solana.ErrNoValidBumpFound:
		return &Error{Code: ErrorCodeNoValidBumpFound, Cause: err}
	case solana.ErrInvalidPublicKey:
		return &Error{Code: ErrorCodeInvalidSeeds, Message: "derived address is on curve", Cause: err}
	}
	return &Error{Code: ErrorCodeInvalidSeeds, Cause: err}
}

func (c *InvocationContext) checkSpace(space uint64) error {
	if max := c.exec.maxDataLength; space > max {
		return newError(ErrorCodeInvalidSpace, "%d bytes exceeds the maximum of %d", space, max)
	}
	return nil
}

// Create initializes an account owned by owner with space zeroed bytes. The
// payer covers whatever the account lacks of the rent-exempt minimum, so a
// pre-funded address only needs topping up.
func (c *InvocationContext) Create(spec AddressSpec, owner ed25519.PublicKey, space uint64, payer ed25519.PublicKey, guards ...Guard) (ed25519.PublicKey, error) {
	if err := checkGuards(guards); err != nil {
		return nil, err
	}

	address, bump, err := c.resolve(spec)
	if err != nil {
		return nil, err
	}

	target, err := c.writableHandle(address)
	if err != nil {
		return nil, err
	}
	if !spec.derived && !target.IsSigner {
		return nil, newError(ErrorCodeMissingRequiredSignature, "%s must sign its creation", target)
	}

	funder, err := c.signerHandle(payer)
	if err != nil {
		return nil, err
	}

	if target.acct.isInitialized() {
		return nil, newError(ErrorCodeAlreadyInitialized, "%s is already in use", target)
	}

	if err := c.checkSpace(space); err != nil {
		return nil, err
	}

	if err := c.fundRentShortfall(target.acct, funder.acct, space); err != nil {
		return nil, err
	}

	acct := target.acct
	acct.owner = append(ed25519.PublicKey{}, owner...)
	acct.data = make([]byte, space)
	acct.bump = bump
	acct.state = AccountStateInitialized
	if acct.closed {
		acct.recreated = true
	}

	c.log.WithField("account", target.String()).Trace("account created")
	return address, nil
}

// CreateIdempotent is Create, except an existing account with the same owner
// and at least space bytes is accepted as is.
//
// Anyone able to observe the address can create the account first, and the
// caller then proceeds with their state. Callers needing exactly once
// initialization must use Create.
func (c *InvocationContext) CreateIdempotent(spec AddressSpec, owner ed25519.PublicKey, space uint64, payer ed25519.PublicKey, guards ...Guard) (ed25519.PublicKey, error) {
	if err := checkGuards(guards); err != nil {
		return nil, err
	}

	address, _, err := c.resolve(spec)
	if err != nil {
		return nil, err
	}

	target, err := c.handle(address)
	if err != nil {
		return nil, err
	}

	if !target.acct.isInitialized() {
		return c.Create(spec, owner, space, payer)
	}

	if !target.acct.isOwnedBy(owner) {
		return nil, newError(ErrorCodeOwnerMismatch, "%s is owned by %s", target, base58.Encode(target.acct.owner))
	}
	if uint64(len(target.acct.data)) < space {
		return nil, newError(ErrorCodeAlreadyInitialized, "%s exists with %d bytes, needs %d", target, len(target.acct.data), space)
	}
	return address, nil
}

// Read returns a copy of the account data. Any program may read any account
// it was given.
func (c *InvocationContext) Read(address ed25519.PublicKey) ([]byte, error) {
	info, err := c.handle(address)
	if err != nil {
		return nil, err
	}

	if info.acct.isEmpty() {
		return nil, newError(ErrorCodeAccountEmpty, "%s is empty", info)
	}

	return append([]byte{}, info.acct.data...), nil
}

// Write applies mutator to a copy of the account data. The copy replaces the
// data only when mutator succeeds.
func (c *InvocationContext) Write(address ed25519.PublicKey, mutator func(data []byte) error, guards ...Guard) error {
	if err := checkGuards(guards); err != nil {
		return err
	}

	info, err := c.ownedHandle(address)
	if err != nil {
		return err
	}

	if info.acct.isEmpty() {
		return newError(ErrorCodeAccountEmpty, "%s is empty", info)
	}

	buf := cloneBacking(info.acct.data)
	if err := mutator(buf); err != nil {
		return err
	}

	info.acct.data = buf
	info.acct.markModified(AccountStateMutated)
	return nil
}

// ownedHandle returns a writable handle to an account owned by the caller
func (c *InvocationContext) ownedHandle(address ed25519.PublicKey) (*AccountInfo, error) {
	info, err := c.handle(address)
	if err != nil {
		return nil, err
	}

	if !info.acct.isOwnedBy(c.program) {
		return nil, newError(ErrorCodeOwnerMismatch, "%s is owned by %s, not %s", info, base58.Encode(info.acct.owner), base58.Encode(c.program))
	}

	if !info.IsWritable {
		return nil, newError(ErrorCodeReadonlyAccount, "%s is not writable", info)
	}
	return info, nil
}

// ResizeArgs are the arguments to Resize
type ResizeArgs struct {
	Address  ed25519.PublicKey
	NewSpace uint64

	// Payer tops up the rent-exempt minimum when growing, and receives the
	// excess when shrinking with RefundOnShrink
	Payer ed25519.PublicKey

	// ZeroNewRegion zeroes bytes added by growth. Without it, growth after a
	// shrink in the same transaction exposes the bytes that were cut off.
	// Only skip zeroing when the region is overwritten immediately.
	ZeroNewRegion bool

	// RefundOnShrink returns lamports above the new rent-exempt minimum to
	// Payer. Without it, the excess stays in the account.
	RefundOnShrink bool
}

// Resize changes the length of the account data
func (c *InvocationContext) Resize(args ResizeArgs, guards ...Guard) error {
	if err := checkGuards(guards); err != nil {
		return err
	}

	info, err := c.ownedHandle(args.Address)
	if err != nil {
		return err
	}

	if err := c.checkSpace(args.NewSpace); err != nil {
		return err
	}

	acct := info.acct
	oldSpace := uint64(len(acct.data))

	switch {
	case args.NewSpace > oldSpace:
		minimum := c.exec.rent.MinimumBalance(args.NewSpace)
		if acct.lamports < minimum {
			if args.Payer == nil {
				return newError(ErrorCodeInsufficientFunds, "%s needs %d more lamports", info, minimum-acct.lamports)
			}

			payer, err := c.signerHandle(args.Payer)
			if err != nil {
				return err
			}
			if err := c.fundRentShortfall(acct, payer.acct, args.NewSpace); err != nil {
				return err
			}
		}
	case args.NewSpace < oldSpace && args.RefundOnShrink:
		minimum := c.exec.rent.MinimumBalance(args.NewSpace)
		if acct.lamports > minimum {
			payer, err := c.writableHandle(args.Payer)
			if err != nil {
				return err
			}
			if err := move(acct, payer.acct, acct.lamports-minimum); err != nil {
				return err
			}
		}
	}

	acct.resize(int(args.NewSpace), args.ZeroNewRegion)
	acct.markModified(AccountStateResized)
	return nil
}

// ReassignArgs are the arguments to ReassignOwner
type ReassignArgs struct {
	Address  ed25519.PublicKey
	NewOwner ed25519.PublicKey

	// EraseData zeroes and truncates the data in the same step. Reassigning an
	// account that still holds data is rejected without it.
	EraseData bool
}

// ReassignOwner hands the account to a new owner program
func (c *InvocationContext) ReassignOwner(args ReassignArgs, guards ...Guard) error {
	if err := checkGuards(guards); err != nil {
		return err
	}

	info, err := c.ownedHandle(args.Address)
	if err != nil {
		return err
	}

	if len(args.NewOwner) != ed25519.PublicKeySize {
		return newError(ErrorCodeInvalidInstructionData, "invalid owner")
	}

	acct := info.acct
	if len(acct.data) > 0 && !args.EraseData {
		return newError(ErrorCodeUnsafeReassignment, "%s still holds %d bytes", info, len(acct.data))
	}

	acct.wipe()
	acct.owner = append(ed25519.PublicKey{}, args.NewOwner...)
	acct.state = AccountStateReassigned
	return nil
}

// Close drains the account into refundTo, zeroes and truncates its data and
// hands it back to the system program. The address can only be used again
// through Create.
func (c *InvocationContext) Close(address, refundTo ed25519.PublicKey, guards ...Guard) error {
	if err := checkGuards(guards); err != nil {
		return err
	}

	info, err := c.ownedHandle(address)
	if err != nil {
		return err
	}

	refund, err := c.writableHandle(refundTo)
	if err != nil {
		return err
	}
	if refund.acct == info.acct {
		return newError(ErrorCodeAuthorizationFailed, "%s cannot be refunded to itself", info)
	}

	acct := info.acct
	if err := move(acct, refund.acct, acct.lamports); err != nil {
		return err
	}

	acct.wipe()
	acct.owner = system.SystemAccount
	acct.bump = nil
	acct.state = AccountStateClosed
	acct.closed = true
	acct.recreated = false

	c.log.WithField("account", info.String()).Trace("account closed")
	return nil
}

// fundRentShortfall moves whatever acct lacks of the rent-exempt minimum for
// space from payer
func (c *InvocationContext) fundRentShortfall(acct, payer *account, space uint64) error {
	minimum := c.exec.rent.MinimumBalance(space)
	if acct.lamports >= minimum {
		return nil
	}

	shortfall := minimum - acct.lamports
	if payer == acct {
		return newError(ErrorCodeInsufficientFunds, "%s is %d lamports short of rent and cannot fund itself", base58.Encode(acct.address), shortfall)
	}
	if payer.lamports < shortfall {
		return newError(ErrorCodeInsufficientFunds, "%s has %d lamports, needs %d for rent", base58.Encode(payer.address), payer.lamports, shortfall)
	}
	return move(payer, acct, shortfall)
}

func move(from, to *account, amount uint64) error {
	if from == to {
		return nil
	}
	if err := from.debit(amount); err != nil {
		return err
	}
	if err := to.credit(amount); err != nil {
		// Undo the debit so the accounts are unchanged on failure
		from.lamports += amount
		return err
	}
	return nil
}
