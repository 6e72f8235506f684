package crowdfund

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const (
	withdrawInstructionName = "withdraw"

	WithdrawInstructionArgsSize = 8 // amount
)

type WithdrawInstructionArgs struct {
	Amount uint64
}

type WithdrawInstructionAccounts struct {
	Fund   ed25519.PublicKey
	Signer ed25519.PublicKey
}

func NewWithdrawInstruction(accounts *WithdrawInstructionAccounts, args *WithdrawInstructionArgs) solana.Instruction {
	var offset int
	data := make([]byte, WithdrawInstructionArgsSize)
	binary.PutUint64(data[offset:], args.Amount, &offset)

	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(withdrawInstructionName, data),
		solana.NewAccountMeta(accounts.Fund, false),
		solana.NewAccountMeta(accounts.Signer, true),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	)
}

// withdraw pays out of the fund to the configured authority. The fund signs
// the transfer with its derivation seeds, and can never drop below its
// rent-exempt minimum.
func (p *Program) withdraw(ctx *runtime.InvocationContext, data []byte) error {
	if len(data) != WithdrawInstructionArgsSize {
		return runtime.ErrInvalidInstructionData
	}

	var args WithdrawInstructionArgs
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

	if err := ctx.Require(ctx.RequireAuthority(p.conf.withdrawAuthority, signer.Address)); err != nil {
		return err
	}

	var record FundAccount
	if err := runtime.LoadRecord(ctx, fund.Address, &record); err != nil {
		return err
	}

	_, bump, err := ctx.DeriveAddress()
	if err != nil {
		return err
	}
	if err := ctx.VerifyDerivedAddress(fund.Address, bump); err != nil {
		return err
	}

	if err := ctx.Transfer(fund.Address, signer.Address, args.Amount, [][]byte{{bump}}); err != nil {
		return err
	}

	record.TotalWithdrawn += args.Amount
	if err := runtime.SaveRecord(ctx, fund.Address, &record); err != nil {
		return err
	}

	ctx.Emit(WithdrawnEventName, (&TransferEvent{Counterparty: signer.Address, Amount: args.Amount}).Marshal())
	ctx.Log("%d lamports withdrawn", args.Amount)
	return nil
}
