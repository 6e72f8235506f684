package runtime

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
	"github.com/code-payments/code-runtime/pkg/testutil"
)

func TestDeriveAddress_Deterministic(t *testing.T) {
	env := setup(t, nil)

	var first, second ed25519.PublicKey
	var firstBump, secondBump uint8
	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		var err error
		first, firstBump, err = ctx.DeriveAddress([]byte("vault"), env.payer)
		if err != nil {
			return err
		}
		second, secondBump, err = ctx.DeriveAddress([]byte("vault"), env.payer)
		if err != nil {
			return err
		}

		return ctx.VerifyDerivedAddress(first, firstBump, []byte("vault"), env.payer)
	})

	_, err := env.execute(solana.NewInstruction(program, nil))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBump, secondBump)

	expected, bump, err := solana.FindProgramAddressAndBump(program, []byte("vault"), env.payer)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
	assert.Equal(t, bump, firstBump)
	assert.False(t, solana.IsOnCurve(first))
}

func TestDeriveAddress_Errors(t *testing.T) {
	env := setup(t, nil)

	for _, tc := range []struct {
		seeds [][]byte
		code  ErrorCode
	}{
		{seeds: [][]byte{make([]byte, solana.MaxSeedLength+1)}, code: ErrorCodeSeedTooLong},
		{seeds: make([][]byte, solana.MaxSeeds), code: ErrorCodeSeedTooLong},
	} {
		program := env.register(t, func(ctx *InvocationContext, data []byte) error {
			_, _, err := ctx.DeriveAddress(tc.seeds...)
			return err
		})

		_, err := env.execute(solana.NewInstruction(program, nil))
		requireCode(t, err, tc.code)
	}

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		address, bump, err := ctx.DeriveAddress([]byte("a"))
		if err != nil {
			return err
		}
		return ctx.VerifyDerivedAddress(address, bump, []byte("b"))
	})
	_, err := env.execute(solana.NewInstruction(program, nil))
	requireCode(t, err, ErrorCodeInvalidSeeds)
}

// storeProgram exposes the store operations on a single derived account
// seeded with "data"
type storeProgram struct {
	id      ed25519.PublicKey
	address ed25519.PublicKey
}

const (
	opCreate byte = iota
	opCreateIdempotent
	opWrite
	opRead
	opResize
	opClose
	opReassign
)

func newStoreProgram(t *testing.T, env *testEnv) *storeProgram {
	p := &storeProgram{}
	p.id = env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address

		switch data[0] {
		case opCreate:
			_, err := ctx.Create(DerivedAddress([]byte("data")), ctx.ProgramID(), uint64(data[1]), payer)
			return err
		case opCreateIdempotent:
			_, err := ctx.CreateIdempotent(DerivedAddress([]byte("data")), ctx.ProgramID(), uint64(data[1]), payer)
			return err
		case opWrite:
			return ctx.Write(p.address, func(buf []byte) error {
				copy(buf, data[1:])
				return nil
			})
		case opRead:
			actual, err := ctx.Read(p.address)
			if err != nil {
				return err
			}
			if !bytes.Equal(actual, data[1:]) {
				return CustomError(0, "unexpected data")
			}
			return nil
		case opResize:
			return ctx.Resize(ResizeArgs{
				Address:        p.address,
				NewSpace:       uint64(data[1]),
				Payer:          payer,
				ZeroNewRegion:  data[2] == 1,
				RefundOnShrink: data[3] == 1,
			})
		case opClose:
			return ctx.Close(p.address, payer)
		case opReassign:
			return ctx.ReassignOwner(ReassignArgs{
				Address:   p.address,
				NewOwner:  system.SystemAccount,
				EraseData: data[1] == 1,
			})
		}
		return newError(ErrorCodeInvalidInstructionData, "unknown op")
	})

	var err error
	p.address, _, err = solana.FindProgramAddressAndBump(p.id, []byte("data"))
	require.NoError(t, err)
	return p
}

func (p *storeProgram) ix(payer ed25519.PublicKey, data ...byte) solana.Instruction {
	return solana.NewInstruction(
		p.id,
		data,
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(p.address, false),
	)
}

func TestCreateRead_RoundTrip(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(
		p.ix(env.payer, opCreate, 16),
		p.ix(env.payer, opRead, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0),
		p.ix(env.payer, opWrite, 1, 2, 3),
	)
	require.NoError(t, err)

	minimum := DefaultRent().MinimumBalance(16)
	assert.Equal(t, minimum, env.balance(t, p.address))
	assert.EqualValues(t, testPayerBalance-minimum, env.balance(t, env.payer))

	record, err := env.rt.GetAccount(testContext(), p.address)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(p.id), record.Owner)
	require.NotNil(t, record.Bump)
	assert.Len(t, record.Data, 16)
	assert.Equal(t, []byte{1, 2, 3}, record.Data[:3])

	_, err = env.execute(p.ix(env.payer, opRead, 1, 2, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0))
	require.NoError(t, err)
}

func TestCreate_Twice(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(p.ix(env.payer, opCreate, 8))
	require.NoError(t, err)

	_, err = env.execute(p.ix(env.payer, opCreate, 8))
	requireCode(t, err, ErrorCodeAlreadyInitialized)

	_, err = env.execute(p.ix(env.payer, opCreateIdempotent, 8))
	require.NoError(t, err)
	_, err = env.execute(p.ix(env.payer, opCreateIdempotent, 8))
	require.NoError(t, err)

	_, err = env.execute(p.ix(env.payer, opCreateIdempotent, 9))
	requireCode(t, err, ErrorCodeAlreadyInitialized)
}

func TestCreateIdempotent_TwiceFromEmpty(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(
		p.ix(env.payer, opCreateIdempotent, 8),
		p.ix(env.payer, opCreateIdempotent, 8),
	)
	require.NoError(t, err)
	assert.Len(t, env.data(t, p.address), 8)
}

func TestCreate_PrefundedAccount(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	testutil.FundAccount(t, env.ledger, p.address, 1_000)

	_, err := env.execute(p.ix(env.payer, opCreate, 8))
	require.NoError(t, err)

	minimum := DefaultRent().MinimumBalance(8)
	assert.Equal(t, minimum, env.balance(t, p.address))
	assert.EqualValues(t, testPayerBalance-(minimum-1_000), env.balance(t, env.payer))
}

func TestCreate_Limits(t *testing.T) {
	env := setup(t, &Overrides{MaxAccountDataLength: 32})
	p := newStoreProgram(t, env)

	_, err := env.execute(p.ix(env.payer, opCreate, 33))
	requireCode(t, err, ErrorCodeInvalidSpace)

	poor := testutil.NewRandomPublicKey(t)
	testutil.FundAccount(t, env.ledger, poor, 10)
	_, err = env.execute(p.ix(poor, opCreate, 8))
	requireCode(t, err, ErrorCodeInsufficientFunds)
}

func TestCreate_KeypairMustSign(t *testing.T) {
	env := setup(t, nil)
	keypair := testutil.NewRandomPublicKey(t)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		_, err := ctx.Create(KeypairAddress(keypair), ctx.ProgramID(), 8, ctx.Accounts()[0].Address)
		return err
	})

	_, err := env.execute(solana.NewInstruction(program, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(keypair, false)))
	requireCode(t, err, ErrorCodeMissingRequiredSignature)

	_, err = env.execute(solana.NewInstruction(program, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(keypair, true)))
	require.NoError(t, err)
}

func TestCreate_SuppliedBump(t *testing.T) {
	env := setup(t, nil)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		_, err := ctx.Create(DerivedAddress([]byte("data")).WithBump(data[0]), ctx.ProgramID(), 8, ctx.Accounts()[0].Address)
		return err
	})
	address, bump, err := solana.FindProgramAddressAndBump(program, []byte("data"))
	require.NoError(t, err)

	ix := func(bump byte) solana.Instruction {
		return solana.NewInstruction(program, []byte{bump}, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(address, false))
	}

	_, err = env.execute(ix(bump - 1))
	require.Error(t, err)

	_, err = env.execute(ix(bump))
	require.NoError(t, err)
}

func TestResize_GrowThenShrink(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(
		p.ix(env.payer, opCreate, 4),
		p.ix(env.payer, opWrite, 1, 2, 3, 4),
		p.ix(env.payer, opResize, 8, 1, 0),
		p.ix(env.payer, opRead, 1, 2, 3, 4, 0, 0, 0, 0),
		p.ix(env.payer, opResize, 4, 0, 0),
		p.ix(env.payer, opRead, 1, 2, 3, 4),
	)
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 2, 3, 4}, env.data(t, p.address))

	// Grow tops up to the new minimum; shrink without a refund keeps it
	assert.Equal(t, DefaultRent().MinimumBalance(8), env.balance(t, p.address))
}

func TestResize_StaleBytes(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(
		p.ix(env.payer, opCreate, 4),
		p.ix(env.payer, opWrite, 1, 2, 3, 4),
		p.ix(env.payer, opResize, 2, 0, 0),
		p.ix(env.payer, opResize, 4, 0, 0),
		p.ix(env.payer, opRead, 1, 2, 3, 4),
		p.ix(env.payer, opResize, 2, 0, 0),
		p.ix(env.payer, opResize, 4, 1, 0),
		p.ix(env.payer, opRead, 1, 2, 0, 0),
	)
	require.NoError(t, err)
}

func TestResize_RefundOnShrink(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(p.ix(env.payer, opCreate, 16))
	require.NoError(t, err)

	_, err = env.execute(p.ix(env.payer, opResize, 4, 0, 1))
	require.NoError(t, err)

	minimum := DefaultRent().MinimumBalance(4)
	assert.Equal(t, minimum, env.balance(t, p.address))
	assert.EqualValues(t, testPayerBalance-minimum, env.balance(t, env.payer))
}

func TestClose_ThenRead(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(
		p.ix(env.payer, opCreate, 4),
		p.ix(env.payer, opWrite, 9, 9, 9, 9),
	)
	require.NoError(t, err)

	_, err = env.execute(p.ix(env.payer, opClose))
	require.NoError(t, err)
	assert.EqualValues(t, testPayerBalance, env.balance(t, env.payer))
	assert.EqualValues(t, 0, env.balance(t, p.address))

	_, err = env.ledger.Get(testContext(), base58.Encode(p.address))
	assert.Error(t, err)

	_, err = env.execute(p.ix(env.payer, opRead))
	requireCode(t, err, ErrorCodeAccountEmpty)

	_, err = env.execute(p.ix(env.payer, opWrite, 1))
	requireCode(t, err, ErrorCodeOwnerMismatch)

	_, err = env.execute(
		p.ix(env.payer, opCreate, 4),
		p.ix(env.payer, opRead, 0, 0, 0, 0),
	)
	require.NoError(t, err)
}

func TestClose_RecreateInSameTransaction(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(
		p.ix(env.payer, opCreate, 4),
		p.ix(env.payer, opWrite, 9, 9, 9, 9),
		p.ix(env.payer, opClose),
		p.ix(env.payer, opCreate, 8),
		p.ix(env.payer, opRead, 0, 0, 0, 0, 0, 0, 0, 0),
	)
	require.NoError(t, err)
}

func TestClose_RevivalWithoutCreate(t *testing.T) {
	env := setup(t, nil)
	keypair := testutil.NewRandomPublicKey(t)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address
		if data[0] == 0 {
			_, err := ctx.Create(KeypairAddress(keypair), ctx.ProgramID(), 8, payer)
			return err
		}
		return ctx.Close(keypair, payer)
	})
	ix := func(op byte) solana.Instruction {
		return solana.NewInstruction(program, []byte{op}, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(keypair, true))
	}

	minimum := DefaultRent().MinimumBalance(8)
	_, err := env.execute(
		ix(0),
		ix(1),
		system.Transfer(env.payer, keypair, minimum),
		system.Allocate(keypair, 8),
	)
	requireCode(t, err, ErrorCodeAccountEmpty)

	var ixErr *InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 3, ixErr.Index)
}

func TestClose_RefundToSelf(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		return ctx.Close(ctx.Accounts()[0].Address, ctx.Accounts()[0].Address)
	})

	_, err := env.execute(p.ix(env.payer, opCreate, 4))
	require.NoError(t, err)

	// Not owned by the closing program
	_, err = env.execute(solana.NewInstruction(program, nil, solana.NewAccountMeta(p.address, false)))
	requireCode(t, err, ErrorCodeOwnerMismatch)

	self := env.register(t, func(ctx *InvocationContext, data []byte) error {
		address, err := ctx.Create(DerivedAddress(), ctx.ProgramID(), 0, ctx.Accounts()[0].Address)
		if err != nil {
			return err
		}
		return ctx.Close(address, address)
	})
	selfAddress, err := solana.FindProgramAddress(self)
	require.NoError(t, err)

	_, err = env.execute(solana.NewInstruction(self, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(selfAddress, false)))
	requireCode(t, err, ErrorCodeAuthorizationFailed)
}

func TestReassignOwner(t *testing.T) {
	env := setup(t, nil)
	p := newStoreProgram(t, env)

	_, err := env.execute(p.ix(env.payer, opCreate, 4), p.ix(env.payer, opWrite, 1))
	require.NoError(t, err)

	_, err = env.execute(p.ix(env.payer, opReassign, 0))
	requireCode(t, err, ErrorCodeUnsafeReassignment)

	_, err = env.execute(p.ix(env.payer, opReassign, 1))
	require.NoError(t, err)

	record, err := env.rt.GetAccount(testContext(), p.address)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(system.SystemAccount), record.Owner)
	assert.Empty(t, record.Data)
	assert.Equal(t, DefaultRent().MinimumBalance(4), record.Lamports)

	_, err = env.execute(p.ix(env.payer, opWrite, 1))
	requireCode(t, err, ErrorCodeOwnerMismatch)
}

func TestLifecycleStates(t *testing.T) {
	env := setup(t, nil)

	var states []AccountState
	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address
		target := ctx.Accounts()[1]
		record := func() { states = append(states, target.State()) }

		record()
		if _, err := ctx.Create(DerivedAddress(), ctx.ProgramID(), 4, payer); err != nil {
			return err
		}
		record()
		if err := ctx.Write(target.Address, func([]byte) error { return nil }); err != nil {
			return err
		}
		record()
		if err := ctx.Resize(ResizeArgs{Address: target.Address, NewSpace: 2}); err != nil {
			return err
		}
		record()
		if err := ctx.ReassignOwner(ReassignArgs{Address: target.Address, NewOwner: ctx.ProgramID(), EraseData: true}); err != nil {
			return err
		}
		record()
		if err := ctx.Close(target.Address, payer); err != nil {
			return err
		}
		record()
		return nil
	})
	address, err := solana.FindProgramAddress(program)
	require.NoError(t, err)

	_, err = env.execute(solana.NewInstruction(program, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(address, false)))
	require.NoError(t, err)

	assert.Equal(t, []AccountState{
		AccountStateNonexistent,
		AccountStateInitialized,
		AccountStateMutated,
		AccountStateResized,
		AccountStateReassigned,
		AccountStateClosed,
	}, states)
}

// X is created by P with W paying, P writes to it, a second program Q can't,
// and X can't be drained while it still holds data.
func TestOwnershipScenario(t *testing.T) {
	env := setup(t, nil)
	x := testutil.NewRandomPublicKey(t)
	w := env.payer

	p := env.register(t, func(ctx *InvocationContext, data []byte) error {
		switch data[0] {
		case 0:
			_, err := ctx.Create(KeypairAddress(x), ctx.ProgramID(), 16, w)
			return err
		case 1:
			return ctx.Write(x, func(buf []byte) error {
				buf[0] = 7
				return nil
			})
		}
		info, err := ctx.Account(1)
		if err != nil {
			return err
		}
		return ctx.Transfer(x, w, info.Lamports())
	})
	q := env.register(t, func(ctx *InvocationContext, data []byte) error {
		return ctx.Write(x, func(buf []byte) error {
			buf[0] = 8
			return nil
		})
	})

	ix := func(program ed25519.PublicKey, op byte) solana.Instruction {
		return solana.NewInstruction(program, []byte{op}, solana.NewAccountMeta(w, true), solana.NewAccountMeta(x, true))
	}

	_, err := env.execute(ix(p, 0))
	require.NoError(t, err)
	assert.Equal(t, DefaultRent().MinimumBalance(16), env.balance(t, x))

	_, err = env.execute(ix(p, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 7, env.data(t, x)[0])

	_, err = env.execute(ix(q, 0))
	requireCode(t, err, ErrorCodeOwnerMismatch)

	_, err = env.execute(ix(p, 2))
	requireCode(t, err, ErrorCodeStillRentExempt)
	assert.EqualValues(t, 7, env.data(t, x)[0])
}

func TestCreate_TargetCannotFundItself(t *testing.T) {
	env := setup(t, nil)
	account := testutil.NewRandomPublicKey(t)
	minimum := DefaultRent().MinimumBalance(16)
	testutil.FundAccount(t, env.ledger, account, minimum-1)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		_, err := ctx.Create(KeypairAddress(account), ctx.ProgramID(), 16, account)
		return err
	})
	ix := solana.NewInstruction(program, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(account, true))

	_, err := env.execute(ix)
	requireCode(t, err, ErrorCodeInsufficientFunds)
	assert.Equal(t, minimum-1, env.balance(t, account))
	assert.Empty(t, env.data(t, account))

	// Nothing is owed once the account already holds the minimum
	_, err = env.execute(system.Transfer(env.payer, account, 1), ix)
	require.NoError(t, err)
	assert.Equal(t, minimum, env.balance(t, account))
	assert.Len(t, env.data(t, account), 16)
}
