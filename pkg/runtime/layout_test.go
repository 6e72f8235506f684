package runtime

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

type tally struct {
	discriminator string
	Authority     ed25519.PublicKey
	Count         uint64
}

func newTally(name string) *tally {
	return &tally{discriminator: name}
}

func (r *tally) Discriminator() []byte {
	return AccountDiscriminator(r.discriminator)
}

func (r *tally) Size() int {
	return binary.DiscriminatorSize + ed25519.PublicKeySize + 8
}

func (r *tally) Marshal() []byte {
	data := make([]byte, r.Size())

	var offset int
	binary.PutDiscriminator(data[offset:], r.Discriminator(), &offset)
	binary.PutKey32(data[offset:], r.Authority, &offset)
	binary.PutUint64(data[offset:], r.Count, &offset)
	return data
}

func (r *tally) Unmarshal(data []byte) error {
	if len(data) < r.Size() {
		return errors.Errorf("invalid size: %d", len(data))
	}

	offset := binary.DiscriminatorSize
	binary.GetKey32(data[offset:], &r.Authority, &offset)
	binary.GetUint64(data[offset:], &r.Count, &offset)
	return nil
}

func TestRecord_Lifecycle(t *testing.T) {
	env := setup(t, nil)

	var loaded tally
	var created []bool
	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address

		record := newTally("Tally")
		record.Authority = payer
		address, isNew, err := InitRecordIdempotent(ctx, DerivedAddress([]byte("tally")), payer, record)
		if err != nil {
			return err
		}
		created = append(created, isNew)

		record.Count++
		if err := SaveRecord(ctx, address, record); err != nil {
			return err
		}

		loaded = *newTally("Tally")
		return LoadRecord(ctx, address, &loaded)
	})
	address, err := solana.FindProgramAddress(program, []byte("tally"))
	require.NoError(t, err)

	ix := solana.NewInstruction(program, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(address, false))
	_, err = env.execute(ix)
	require.NoError(t, err)
	_, err = env.execute(ix)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, created)
	assert.EqualValues(t, 2, loaded.Count)
	assert.Equal(t, env.payer, loaded.Authority)

	stored := env.data(t, address)
	assert.Equal(t, AccountDiscriminator("Tally"), stored[:binary.DiscriminatorSize])
}

func TestRecord_TypeMismatch(t *testing.T) {
	env := setup(t, nil)

	program := env.register(t, func(ctx *InvocationContext, data []byte) error {
		payer := ctx.Accounts()[0].Address
		address, err := InitRecord(ctx, DerivedAddress(), payer, newTally("Tally"))
		if err != nil {
			return err
		}

		if data[0] == 0 {
			return LoadRecord(ctx, address, newTally("Other"))
		}
		return SaveRecord(ctx, address, newTally("Other"))
	})
	address, err := solana.FindProgramAddress(program)
	require.NoError(t, err)

	for _, op := range []byte{0, 1} {
		_, err = env.execute(solana.NewInstruction(program, []byte{op}, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(address, false)))
		requireCode(t, err, ErrorCodeTypeMismatch)
	}
}

func TestRecord_LoadOwnedBy(t *testing.T) {
	env := setup(t, nil)

	owner := env.register(t, func(ctx *InvocationContext, data []byte) error {
		_, err := InitRecord(ctx, DerivedAddress(), ctx.Accounts()[0].Address, newTally("Tally"))
		return err
	})
	address, err := solana.FindProgramAddress(owner)
	require.NoError(t, err)

	var loaded bool
	reader := env.register(t, func(ctx *InvocationContext, data []byte) error {
		if err := LoadRecordOwnedBy(ctx, address, owner, newTally("Tally")); err != nil {
			return err
		}
		loaded = true
		return LoadRecord(ctx, address, newTally("Tally"))
	})
	readIx := solana.NewInstruction(reader, nil, solana.NewReadonlyAccountMeta(address, false))

	_, err = env.execute(readIx)
	requireCode(t, err, ErrorCodeAccountEmpty)

	_, err = env.execute(solana.NewInstruction(owner, nil, solana.NewAccountMeta(env.payer, true), solana.NewAccountMeta(address, false)))
	require.NoError(t, err)

	_, err = env.execute(readIx)
	requireCode(t, err, ErrorCodeOwnerMismatch)
	assert.True(t, loaded)
}
