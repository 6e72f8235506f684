// Package runtimetest provides an in memory runtime for testing programs.
package runtimetest

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/ledger/memory"
	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/testutil"
)

// DefaultPayerBalance is the starting balance of Env.Payer
const DefaultPayerBalance = 10_000_000_000

type Env struct {
	t *testing.T

	Ledger  ledger.Store
	Runtime *runtime.Runtime
	Payer   ed25519.PublicKey
}

// NewEnv returns a runtime over an empty memory ledger with programs
// registered and a funded payer
func NewEnv(t *testing.T, programs ...runtime.Program) *Env {
	env := &Env{
		t:      t,
		Ledger: memory.New(),
		Payer:  testutil.NewRandomPublicKey(t),
	}
	env.Runtime = runtime.New(env.Ledger, runtime.WithOverrides(&runtime.Overrides{}), runtime.WithClock(runtime.FixedClock(1700000000)))
	for _, program := range programs {
		env.Runtime.Register(program)
	}

	testutil.FundAccount(t, env.Ledger, env.Payer, DefaultPayerBalance)
	return env
}

// NewFundedKey returns a new system account holding lamports
func (e *Env) NewFundedKey(lamports uint64) ed25519.PublicKey {
	key := testutil.NewRandomPublicKey(e.t)
	testutil.FundAccount(e.t, e.Ledger, key, lamports)
	return key
}

// Execute runs the instructions in one transaction paid for by Payer
func (e *Env) Execute(ixs ...solana.Instruction) (*runtime.Result, error) {
	txn := solana.NewTransaction(e.Payer, ixs...)
	return e.Runtime.Execute(context.Background(), &txn)
}

// Balance returns the committed balance of address
func (e *Env) Balance(address ed25519.PublicKey) uint64 {
	record, err := e.Runtime.GetAccount(context.Background(), address)
	require.NoError(e.t, err)
	return record.Lamports
}

// Load unmarshals the committed data of address into record
func (e *Env) Load(address ed25519.PublicKey, record runtime.Record) {
	stored, err := e.Runtime.GetAccount(context.Background(), address)
	require.NoError(e.t, err)
	require.Len(e.t, stored.Data, record.Size())
	require.Equal(e.t, record.Discriminator(), stored.Data[:len(record.Discriminator())])
	require.NoError(e.t, record.Unmarshal(stored.Data))
}

// Data returns the committed data of address
func (e *Env) Data(address ed25519.PublicKey) []byte {
	record, err := e.Runtime.GetAccount(context.Background(), address)
	require.NoError(e.t, err)
	return record.Data
}

// Owner returns the committed owner of address
func (e *Env) Owner(address ed25519.PublicKey) ed25519.PublicKey {
	record, err := e.Runtime.GetAccount(context.Background(), address)
	require.NoError(e.t, err)
	return solana.MustParsePublicKey(record.Owner)
}

// Exists reports whether address is stored in the ledger
func (e *Env) Exists(address ed25519.PublicKey) bool {
	record, err := e.Runtime.GetAccount(context.Background(), address)
	require.NoError(e.t, err)
	return record.Version > 0
}

// MinimumBalance returns the rent exempt minimum for space bytes
func (e *Env) MinimumBalance(space int) uint64 {
	return e.Runtime.MinimumBalance(context.Background(), uint64(space))
}

// RequireCode asserts err is an instruction failure with code
func RequireCode(t *testing.T, err error, code runtime.ErrorCode) {
	require.Error(t, err)

	var ixErr *runtime.InstructionError
	require.ErrorAs(t, err, &ixErr, err.Error())
	assert.Equal(t, code, ixErr.Code(), err.Error())
}
