package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	setInstructionName = "set"

	SetInstructionArgsSize = (8 + // x
		8) // y
)

type SetInstructionArgs struct {
	X uint64
	Y uint64
}

type SetInstructionAccounts struct {
	Storage ed25519.PublicKey
}

func NewSetInstruction(accounts *SetInstructionAccounts, args *SetInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, SetInstructionArgsSize)
	binary.PutUint64(data[offset:], args.X, &offset)
	binary.PutUint64(data[offset:], args.Y, &offset)

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(setInstructionName, data),
		solana.NewAccountMeta(accounts.Storage, false),
	)
}

func (p *Program) set(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != SetInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args SetInstructionArgs
	var offset int
	binary.GetUint64(data[offset:], &args.X, &offset)
	binary.GetUint64(data[offset:], &args.Y, &offset)

	storage, err := ctx.Account(0)
	if err != nil {
		return err
	}

	var record StorageAccount
	if err := runtime.LoadRecord(ctx, storage.Address, &record); err != nil {
		return err
	}

	record.X = args.X
	record.Y = args.Y
	if err := runtime.SaveRecord(ctx, storage.Address, &record); err != nil {
		return err
	}

	ctx.Log("x is %d, y is %d", record.X, record.Y)
	return nil
}
