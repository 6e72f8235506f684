package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

const closeInstructionName = "close"

type CloseInstructionAccounts struct {
	Storage ed25519.PublicKey
	Signer  ed25519.PublicKey
}

func NewCloseInstruction(accounts *CloseInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(closeInstructionName, nil),
		solana.NewAccountMeta(accounts.Storage, false),
		solana.NewAccountMeta(accounts.Signer, true),
	)
}

// close refunds the storage account's balance to the signer
func (p *Program) close(ctx *runtime.InvocationContext, _ []byte) error {
	storage, err := ctx.Account(0)
	if err != nil {
		return err
	}
	signer, err := ctx.Account(1)
	if err != nil {
		return err
	}

	return ctx.Close(storage.Address, signer.Address, ctx.RequireSigner(signer.Address))
}
