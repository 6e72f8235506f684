package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_RoundTrip(t *testing.T) {
	payer := newTestKey(t)
	program := newTestKey(t)
	signer := newTestKey(t)
	writable := newTestKey(t)
	readonly := newTestKey(t)

	tx := NewTransaction(
		payer,
		NewInstruction(
			program,
			[]byte{1, 2, 3},
			NewReadonlyAccountMeta(signer, true),
			NewAccountMeta(writable, false),
			NewReadonlyAccountMeta(readonly, false),
		),
		NewInstruction(
			program,
			nil,
			NewAccountMeta(readonly, false),
			NewReadonlyAccountMeta(payer, true),
		),
	)

	assert.EqualValues(t, 2, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadOnly)
	require.Len(t, tx.Message.Accounts, 5)
	assert.EqualValues(t, payer, tx.Message.Accounts[0])
	assert.EqualValues(t, signer, tx.Message.Accounts[1])
	assert.EqualValues(t, program, tx.Message.Accounts[4])
	assert.Equal(t, []ed25519.PublicKey{payer, signer}, tx.Signers())

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx.Message.Header, decoded.Message.Header)
	assert.Equal(t, tx.Message.Accounts, decoded.Message.Accounts)

	instructions, err := decoded.Instructions()
	require.NoError(t, err)
	require.Len(t, instructions, 2)

	first := instructions[0]
	assert.EqualValues(t, program, first.Program)
	assert.Equal(t, []byte{1, 2, 3}, first.Data)
	require.Len(t, first.Accounts, 3)
	assert.True(t, first.Accounts[0].IsSigner)
	assert.False(t, first.Accounts[0].IsWritable)
	assert.False(t, first.Accounts[1].IsSigner)
	assert.True(t, first.Accounts[1].IsWritable)

	// Permissions are promoted across instructions, since the message only
	// describes each account once.
	assert.True(t, first.Accounts[2].IsWritable)

	second := instructions[1]
	assert.Empty(t, second.Data)
	assert.True(t, second.Accounts[1].IsSigner)
	assert.True(t, second.Accounts[1].IsWritable)
}

func TestTransaction_UnmarshalInvalid(t *testing.T) {
	payer := newTestKey(t)
	program := newTestKey(t)

	tx := NewTransaction(payer, NewInstruction(program, []byte{1}, NewAccountMeta(payer, true)))
	encoded := tx.Marshal()

	var decoded Transaction
	assert.Error(t, decoded.Unmarshal(encoded[:len(encoded)-1]))
	assert.Error(t, decoded.Unmarshal(append(append([]byte{}, encoded...), 0)))
	assert.Error(t, decoded.Unmarshal(nil))

	badIndex := tx
	badIndex.Message.Instructions = []CompiledInstruction{{ProgramIndex: 10}}
	assert.Error(t, decoded.Unmarshal(badIndex.Marshal()))

	badHeader := tx
	badHeader.Message.Header.NumSignatures = 10
	assert.Error(t, decoded.Unmarshal(badHeader.Marshal()))

	duplicate := tx
	duplicate.Message.Accounts = []ed25519.PublicKey{payer, payer}
	assert.Error(t, decoded.Unmarshal(duplicate.Marshal()))
}

func TestInstruction_Clone(t *testing.T) {
	ix := NewInstruction(newTestKey(t), []byte{1, 2}, NewAccountMeta(newTestKey(t), true))
	cloned := ix.Clone()

	cloned.Data[0] = 9
	cloned.Accounts[0].PublicKey[0] ^= 0xff
	cloned.Accounts[0].IsWritable = false

	assert.EqualValues(t, 1, ix.Data[0])
	assert.NotEqual(t, ix.Accounts[0].PublicKey, cloned.Accounts[0].PublicKey)
	assert.True(t, ix.Accounts[0].IsWritable)
}
