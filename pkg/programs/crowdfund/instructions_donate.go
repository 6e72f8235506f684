package crowdfund

import (
	"crypto/ed25519"
	"math"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const (
	donateInstructionName = "donate"

	DonateInstructionArgsSize = 8 // amount
)

type DonateInstructionArgs struct {
	Amount uint64
}

type DonateInstructionAccounts struct {
	Fund   ed25519.PublicKey
	Signer ed25519.PublicKey
}

func NewDonateInstruction(accounts *DonateInstructionAccounts, args *DonateInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, DonateInstructionArgsSize)
	binary.PutUint64(data[offset:], args.Amount, &offset)

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(donateInstructionName, data),
		solana.NewAccountMeta(accounts.Fund, false),
		solana.NewAccountMeta(accounts.Signer, true),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	)
}

// donate moves lamports from the signer into the fund through the system
// program
func (p *Program) donate(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != DonateInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args DonateInstructionArgs
	var offset int
	binary.GetUint64(data[offset:], &args.Amount, &offset)

	fund, err := ctx.Account(0)
	if err != nil {
		return err
	}
	signer, err := ctx.Account(1)
	if err != nil {
		return err
	}

	var record FundAccount
	if err := runtime.LoadRecord(ctx, fund.Address, &record); err != nil {
		return err
	}
	if record.TotalDonated > math.MaxUint64-args.Amount {
		return runtime.ErrArithmeticOverflow
	}

	if err := ctx.Transfer(signer.Address, fund.Address, args.Amount); err != nil {
		return err
	}

	record.TotalDonated += args.Amount
	if err := runtime.SaveRecord(ctx, fund.Address, &record); err != nil {
		return err
	}

	ctx.Emit(DonatedEventName, (&TransferEvent{Counterparty: signer.Address, Amount: args.Amount}).Marshal())
	ctx.Log("%d lamports donated", args.Amount)
	return nil
}
