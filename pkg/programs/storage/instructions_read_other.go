package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	readOtherInstructionName = "read_other"

	ReadOtherInstructionArgsSize = ed25519.PublicKeySize // owner
)

type ReadOtherInstructionArgs struct {
	Owner ed25519.PublicKey
}

type ReadOtherInstructionAccounts struct {
	Other ed25519.PublicKey
}

func NewReadOtherInstruction(accounts *ReadOtherInstructionAccounts, args *ReadOtherInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, ReadOtherInstructionArgsSize)
	binary.PutKey32(data[offset:], args.Owner, &offset)

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(readOtherInstructionName, data),
		solana.NewReadonlyAccountMeta(accounts.Other, false),
	)
}

// readOther logs a storage record held by an account of another program. The
// account must be owned by the expected program and carry the storage layout.
func (p *Program) readOther(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != ReadOtherInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args ReadOtherInstructionArgs
	var offset int
	binary.GetKey32(data[offset:], &args.Owner, &offset)

	other, err := ctx.Account(0)
	if err != nil {
		return err
	}

	var record StorageAccount
	if err := runtime.LoadRecordOwnedBy(ctx, other.Address, args.Owner, &record); err != nil {
		return err
	}

	ctx.Log("the value of x is %d", record.X)
	return nil
}
