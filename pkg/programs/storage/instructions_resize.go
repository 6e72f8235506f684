package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const (
	resizeInstructionName = "resize"

	ResizeInstructionArgsSize = (8 + // new_space
		1 + // zero
		1) // refund
)

type ResizeInstructionArgs struct {
	NewSpace uint64
	Zero     bool
	Refund   bool
}

type ResizeInstructionAccounts struct {
	Storage ed25519.PublicKey
	Signer  ed25519.PublicKey
}

func NewResizeInstruction(accounts *ResizeInstructionAccounts, args *ResizeInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, ResizeInstructionArgsSize)
	binary.PutUint64(data[offset:], args.NewSpace, &offset)
	binary.PutBool(data[offset:], args.Zero, &offset)
	binary.PutBool(data[offset:], args.Refund, &offset)

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(resizeInstructionName, data),
		solana.NewAccountMeta(accounts.Storage, false),
		solana.NewAccountMeta(accounts.Signer, true),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	)
}

// resize grows or shrinks the storage account, with the signer topping up
// rent on growth
func (p *Program) resize(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != ResizeInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args ResizeInstructionArgs
	var offset int
	binary.GetUint64(data[offset:], &args.NewSpace, &offset)
	binary.GetBool(data[offset:], &args.Zero, &offset)
	binary.GetBool(data[offset:], &args.Refund, &offset)

	storage, err := ctx.Account(0)
	if err != nil {
		return err
	}
	signer, err := ctx.Account(1)
	if err != nil {
		return err
	}

	return ctx.Resize(
		runtime.ResizeArgs{
			Address:        storage.Address,
			NewSpace:       args.NewSpace,
			Payer:          signer.Address,
			ZeroNewRegion:  args.Zero,
			RefundOnShrink: args.Refund,
		},
		ctx.RequireSigner(signer.Address),
	)
}
