package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

const eraseInstructionName = "erase"

type EraseInstructionAccounts struct {
	Storage ed25519.PublicKey
}

func NewEraseInstruction(accounts *EraseInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(eraseInstructionName, nil),
		solana.NewAccountMeta(accounts.Storage, false),
	)
}

// erase truncates the storage account to zero bytes. The account keeps its
// balance and owner.
func (p *Program) erase(ctx *runtime.InvocationContext, _ []byte) error {
	storage, err := ctx.Account(0)
	if err != nil {
		return err
	}

	return ctx.Resize(runtime.ResizeArgs{
		Address:  storage.Address,
		NewSpace: 0,
	})
}
