package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const initializeInstructionName = "initialize"

type InitializeInstructionAccounts struct {
	Storage ed25519.PublicKey
	Signer  ed25519.PublicKey
}

func NewInitializeInstruction(accounts *InitializeInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(initializeInstructionName, nil),
		solana.NewAccountMeta(accounts.Storage, false),
		solana.NewAccountMeta(accounts.Signer, true),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	)
}

func (p *Program) initialize(ctx *runtime.InvocationContext, _ []byte) error {
	signer, err := ctx.Account(1)
	if err != nil {
		return err
	}

	_, err = runtime.InitRecord(ctx, runtime.DerivedAddress(), signer.Address, &StorageAccount{})
	return err
}
