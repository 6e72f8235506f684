package runtime

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
	"github.com/code-payments/code-runtime/pkg/testutil"
)

func TestSystem_CreateAccount(t *testing.T) {
	env := setup(t, nil)
	account := testutil.NewRandomPublicKey(t)
	owner := testutil.NewRandomPublicKey(t)
	minimum := DefaultRent().MinimumBalance(10)

	_, err := env.execute(system.CreateAccount(env.payer, account, owner, minimum-1, 10))
	requireCode(t, err, ErrorCodeInsufficientFunds)

	_, err = env.execute(system.CreateAccount(env.payer, account, owner, minimum, 10))
	require.NoError(t, err)

	record, err := env.rt.GetAccount(testContext(), account)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(owner), record.Owner)
	assert.Equal(t, minimum, record.Lamports)
	assert.Equal(t, make([]byte, 10), record.Data)

	_, err = env.execute(system.CreateAccount(env.payer, account, owner, minimum, 10))
	requireCode(t, err, ErrorCodeAlreadyInitialized)

	funded := testutil.NewRandomPublicKey(t)
	testutil.FundAccount(t, env.ledger, funded, minimum)
	_, err = env.execute(system.CreateAccount(funded, funded, owner, minimum, 10))
	requireCode(t, err, ErrorCodeInsufficientFunds)
	assert.Empty(t, env.data(t, funded))
}

func TestSystem_AssignAndAllocate(t *testing.T) {
	env := setup(t, nil)
	account := testutil.NewRandomPublicKey(t)
	owner := testutil.NewRandomPublicKey(t)
	minimum := DefaultRent().MinimumBalance(4)

	_, err := env.execute(
		system.Transfer(env.payer, account, minimum),
		system.Allocate(account, 4),
		system.Assign(account, owner),
	)
	require.NoError(t, err)

	record, err := env.rt.GetAccount(testContext(), account)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(owner), record.Owner)
	assert.Equal(t, make([]byte, 4), record.Data)

	_, err = env.execute(system.Assign(account, env.payer))
	requireCode(t, err, ErrorCodeOwnerMismatch)

	_, err = env.execute(system.Allocate(testutil.NewRandomPublicKey(t), 4))
	requireCode(t, err, ErrorCodeInsufficientFunds)
}

func TestSystem_TransferFromReassignedDerivedAccount(t *testing.T) {
	env := setup(t, nil)
	other := testutil.NewRandomPublicKey(t)

	var program, vault ed25519.PublicKey
	var bump uint8
	program = env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address

		switch data[0] {
		case 0:
			_, err := ctx.Create(DerivedAddress([]byte("v")), program, 8, payer)
			return err
		case 1:
			return ctx.ReassignOwner(ReassignArgs{Address: vault, NewOwner: other, EraseData: true})
		}
		info, err := ctx.Account(1)
		if err != nil {
			return err
		}
		return ctx.Transfer(vault, payer, info.Lamports(), [][]byte{[]byte("v"), {bump}})
	})

	var err error
	vault, bump, err = solana.FindProgramAddressAndBump(program, []byte("v"))
	require.NoError(t, err)

	ix := func(op byte) solana.Instruction {
		return solana.NewInstruction(program, []byte{op}, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(vault, false))
	}

	_, err = env.execute(ix(0), ix(1))
	require.NoError(t, err)

	balance := env.balance(t, vault)
	require.Equal(t, DefaultRent().MinimumBalance(8), balance)

	_, err = env.execute(ix(2))
	requireCode(t, err, ErrorCodeOwnerMismatch)
	assert.Equal(t, balance, env.balance(t, vault))

	record, err := env.rt.GetAccount(testContext(), vault)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(other), record.Owner)
}

func TestSystem_TransferFromProgramOwnedKeypair(t *testing.T) {
	env := setup(t, nil)
	account := testutil.NewRandomPublicKey(t)
	minimum := DefaultRent().MinimumBalance(16)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address

		if data[0] == 0 {
			_, err := ctx.Create(KeypairAddress(account), ctx.ProgramID(), 16, payer)
			return err
		}
		return ctx.Transfer(account, payer, 500)
	})

	ix := func(op byte) solana.Instruction {
		return solana.NewInstruction(program, []byte{op}, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(account, true))
	}

	_, err := env.execute(ix(0), system.Transfer(env.payer, account, 500))
	require.NoError(t, err)
	require.Equal(t, minimum+500, env.balance(t, account))

	// The key holder signs, but the account belongs to the program now
	_, err = env.execute(system.Transfer(account, env.payer, 500))
	requireCode(t, err, ErrorCodeOwnerMismatch)
	assert.Equal(t, minimum+500, env.balance(t, account))

	_, err = env.execute(ix(1))
	require.NoError(t, err)
	assert.Equal(t, minimum, env.balance(t, account))
}

func TestSystem_InvalidInstruction(t *testing.T) {
	env := setup(t, nil)

	_, err := env.execute(solana.NewInstruction(system.SystemAccount, []byte{1}))
	requireCode(t, err, ErrorCodeInvalidInstructionData)

	_, err = env.execute(solana.NewInstruction(system.SystemAccount, []byte{99, 0, 0, 0}))
	requireCode(t, err, ErrorCodeInvalidInstructionData)
}
