package points

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	transferPointsInstructionName = "transfer_points"

	TransferPointsInstructionArgsSize = 4 // amount
)

type TransferPointsInstructionArgs struct {
	Amount uint32
}

type TransferPointsInstructionAccounts struct {
	From   ed25519.PublicKey
	To     ed25519.PublicKey
	Signer ed25519.PublicKey
}

func NewTransferPointsInstruction(accounts *TransferPointsInstructionAccounts, args *TransferPointsInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, TransferPointsInstructionArgsSize)
	binary.PutUint32(data[offset:], args.Amount, &offset)

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(transferPointsInstructionName, data),
		solana.NewAccountMeta(accounts.From, false),
		solana.NewAccountMeta(accounts.To, false),
		solana.NewAccountMeta(accounts.Signer, true),
	)
}

func (p *Program) transferPoints(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != TransferPointsInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args TransferPointsInstructionArgs
	var offset int
	binary.GetUint32(data[offset:], &args.Amount, &offset)

	from, err := ctx.Account(0)
	if err != nil {
		return err
	}
	to, err := ctx.Account(1)
	if err != nil {
		return err
	}
	signer, err := ctx.Account(2)
	if err != nil {
		return err
	}

	var fromPlayer, toPlayer PlayerAccount
	if err := runtime.LoadRecord(ctx, from.Address, &fromPlayer); err != nil {
		return err
	}
	if err := runtime.LoadRecord(ctx, to.Address, &toPlayer); err != nil {
		return err
	}

	err = ctx.Require(
		runtime.Require(bytes.Equal(fromPlayer.Authority, signer.Address), ErrSignerIsNotAuthority),
		ctx.RequireSigner(signer.Address),
		runtime.Require(!bytes.Equal(from.Address, to.Address), ErrSelfTransfer),
		runtime.Require(fromPlayer.Points >= args.Amount, ErrInsufficientPoints),
		runtime.Require(toPlayer.Points <= math.MaxUint32-args.Amount, runtime.ErrArithmeticOverflow),
	)
	if err != nil {
		return err
	}

	fromPlayer.Points -= args.Amount
	toPlayer.Points += args.Amount

	if err := runtime.SaveRecord(ctx, from.Address, &fromPlayer); err != nil {
		return err
	}
	return runtime.SaveRecord(ctx, to.Address, &toPlayer)
}
