package splitter

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const (
	sendSolInstructionName = "send_sol"

	SendSolInstructionArgsSize = 8 // amount
)

type SendSolInstructionArgs struct {
	Amount uint64
}

type SendSolInstructionAccounts struct {
	Signer     ed25519.PublicKey
	Recipients []ed25519.PublicKey
}

func NewSendSolInstruction(accounts *SendSolInstructionAccounts, args *SendSolInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, SendSolInstructionArgsSize)
	binary.PutUint64(data[offset:], args.Amount, &offset)

	metas := []solana.AccountMeta{
		solana.NewAccountMeta(accounts.Signer, true),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	}
	for _, recipient := range accounts.Recipients {
		metas = append(metas, solana.NewAccountMeta(recipient, false))
	}

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(sendSolInstructionName, data),
		metas...,
	)
}

// sendSol pays amount to every account after the system program. Any failed
// transfer fails the instruction with ErrTransferFailed.
func (p *Program) sendSol(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != SendSolInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args SendSolInstructionArgs
	var offset int
	binary.GetUint64(data[offset:], &args.Amount, &offset)

	signer, err := ctx.Account(0)
	if err != nil {
		return err
	}

	accounts := ctx.Accounts()
	if len(accounts) < 3 {
		return errors.Wrap(runtime.ErrMissingAccount, "no recipients")
	}

	for _, recipient := range accounts[2:] {
		if err := ctx.Transfer(signer.Address, recipient.Address, args.Amount); err != nil {
			ctx.Log("transfer to %s failed: %s", recipient, err)
			return ErrTransferFailed
		}
	}

	ctx.Log("sent %d lamports to %d recipients", args.Amount, len(accounts)-2)
	return nil
}
