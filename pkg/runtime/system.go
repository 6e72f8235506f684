package runtime

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-runtime/pkg/solana/system"
)

// systemProgram is the builtin owner of every empty account. It debits a
// signing account it owns, or one owned by the program that invoked it, and
// never below the rent-exempt minimum of an account still holding data.
type systemProgram struct{}

func (systemProgram) ProgramID() ed25519.PublicKey {
	return system.SystemAccount
}

func (p systemProgram) Process(ctx *InvocationContext, data []byte) error {
	command, err := system.GetCommand(data)
	if err != nil {
		return &Error{Code: ErrorCodeInvalidInstructionData, Cause: err}
	}

	ix := ctx.Instruction()

	switch command {
	case system.CommandCreateAccount:
		args, err := system.DecompileCreateAccount(ix)
		if err != nil {
			return &Error{Code: ErrorCodeInvalidInstructionData, Cause: err}
		}
		return p.createAccount(ctx, args)
	case system.CommandAssign:
		args, err := system.DecompileAssign(ix)
		if err != nil {
			return &Error{Code: ErrorCodeInvalidInstructionData, Cause: err}
		}
		return p.assign(ctx, args)
	case system.CommandTransfer:
		args, err := system.DecompileTransfer(ix)
		if err != nil {
			return &Error{Code: ErrorCodeInvalidInstructionData, Cause: err}
		}
		return p.transfer(ctx, args)
	case system.CommandAllocate:
		args, err := system.DecompileAllocate(ix)
		if err != nil {
			return &Error{Code: ErrorCodeInvalidInstructionData, Cause: err}
		}
		return p.allocate(ctx, args)
	}

	return newError(ErrorCodeInvalidInstructionData, "unsupported system command %d", command)
}

func (systemProgram) createAccount(ctx *InvocationContext, args *system.DecompiledCreateAccount) error {
	funder, err := ctx.signerHandle(args.Funder)
	if err != nil {
		return err
	}

	target, err := ctx.signerHandle(args.Address)
	if err != nil {
		return err
	}

	if target.acct.isInitialized() {
		return newError(ErrorCodeAlreadyInitialized, "%s is already in use", target)
	}
	if funder.acct == target.acct {
		return newError(ErrorCodeInsufficientFunds, "%s cannot fund its own creation", target)
	}

	if err := ctx.checkSpace(args.Size); err != nil {
		return err
	}

	if err := move(funder.acct, target.acct, args.Lamports); err != nil {
		return err
	}

	acct := target.acct
	acct.owner = args.Owner
	acct.data = make([]byte, args.Size)
	acct.state = AccountStateInitialized
	if acct.closed {
		acct.recreated = true
	}
	return nil
}

func (systemProgram) assign(ctx *InvocationContext, args *system.DecompiledAssign) error {
	target, err := ctx.signerHandle(args.Address)
	if err != nil {
		return err
	}

	if !target.acct.isOwnedBy(system.SystemAccount) {
		return newError(ErrorCodeOwnerMismatch, "%s is not owned by the system program", target)
	}

	target.acct.owner = args.Owner
	if target.acct.isInitialized() {
		target.acct.state = AccountStateInitialized
	}
	return nil
}

func (systemProgram) transfer(ctx *InvocationContext, args *system.DecompiledTransfer) error {
	from, err := ctx.signerHandle(args.From)
	if err != nil {
		return err
	}

	to, err := ctx.writableHandle(args.To)
	if err != nil {
		return err
	}

	if !from.acct.isOwnedBy(system.SystemAccount) {
		caller := ctx.callerID()
		if caller == nil || !from.acct.isOwnedBy(caller) {
			return newError(ErrorCodeOwnerMismatch, "%s is owned by %s and can only be debited by its owner", from, base58.Encode(from.acct.owner))
		}
	}

	if from.acct.lamports < args.Lamports {
		return newError(ErrorCodeInsufficientFunds, "%s has %d lamports, needs %d", from, from.acct.lamports, args.Lamports)
	}

	if len(from.acct.data) > 0 {
		minimum := ctx.exec.rent.MinimumBalance(uint64(len(from.acct.data)))
		if from.acct.lamports-args.Lamports < minimum {
			return newError(ErrorCodeStillRentExempt, "%s holds data and must keep %d lamports", from, minimum)
		}
	}

	return move(from.acct, to.acct, args.Lamports)
}

func (systemProgram) allocate(ctx *InvocationContext, args *system.DecompiledAllocate) error {
	target, err := ctx.signerHandle(args.Address)
	if err != nil {
		return err
	}

	if target.acct.isInitialized() {
		return newError(ErrorCodeAlreadyInitialized, "%s is already in use", target)
	}

	if err := ctx.checkSpace(args.Size); err != nil {
		return err
	}

	target.acct.data = make([]byte, args.Size)
	target.acct.state = AccountStateInitialized
	return nil
}
