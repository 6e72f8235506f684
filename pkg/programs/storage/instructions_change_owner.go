package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const changeOwnerInstructionName = "change_owner"

type ChangeOwnerInstructionAccounts struct {
	Storage ed25519.PublicKey
}

func NewChangeOwnerInstruction(accounts *ChangeOwnerInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(changeOwnerInstructionName, nil),
		solana.NewAccountMeta(accounts.Storage, false),
	)
}

// changeOwner hands the storage account back to the system program, erasing
// its data in the same step
func (p *Program) changeOwner(ctx *runtime.InvocationContext, _ []byte) error {
	storage, err := ctx.Account(0)
	if err != nil {
		return err
	}

	return ctx.ReassignOwner(runtime.ReassignArgs{
		Address:   storage.Address,
		NewOwner:  system.SystemAccount,
		EraseData: true,
	})
}
