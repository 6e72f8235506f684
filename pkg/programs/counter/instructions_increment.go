package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

const incrementInstructionName = "increment"

type IncrementInstructionAccounts struct {
	Counter ed25519.PublicKey
	Signer  ed25519.PublicKey
}

func NewIncrementInstruction(accounts *IncrementInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		runtime.InstructionData(incrementInstructionName, nil),
		solana.NewAccountMeta(accounts.Counter, false),
		solana.NewAccountMeta(accounts.Signer, true),
		solana.NewReadonlyAccountMeta(system.SystemAccount, false),
	)
}

// increment creates the counter when it doesn't exist yet, paid for by the
// signer, then adds one to it
func (p *Program) increment(ctx *runtime.InvocationContext, _ []byte) error {
	signer, err := ctx.Account(1)
	if err != nil {
		return err
	}

	var counter CounterAccount
	address, created, err := runtime.InitRecordIdempotent(ctx, runtime.DerivedAddress(), signer.Address, &counter)
	if err != nil {
		return err
	}
	if created {
		ctx.Log("counter initialized")
	}

	counter.Count++
	if err := runtime.SaveRecord(ctx, address, &counter); err != nil {
		return err
	}

	ctx.Log("counter is %d", counter.Count)
	return nil
}
