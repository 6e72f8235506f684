package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/solana"
)

func TestCreateAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	command := make([]byte, 4)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])
	assert.Equal(t, size, instruction.Data[12:20])
	assert.Equal(t, []byte(keys[2]), instruction.Data[20:52])

	tx := solana.NewTransaction(keys[0], instruction)
	var decoded solana.Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	instructions, err := decoded.Instructions()
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	decompiled, err := DecompileCreateAccount(instructions[0])
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Funder)
	assert.EqualValues(t, keys[1], decompiled.Address)
	assert.EqualValues(t, keys[2], decompiled.Owner)
	assert.EqualValues(t, 12345, decompiled.Lamports)
	assert.EqualValues(t, 67890, decompiled.Size)

	cmd, err := GetCommand(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandCreateAccount, cmd)
}

func TestDecompileNonCreate(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	instruction.Accounts = instruction.Accounts[:1]
	_, err := DecompileCreateAccount(instruction)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	binary.LittleEndian.PutUint32(instruction.Data, uint32(CommandAllocate))
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	_, err = GetCommand(instruction.Data)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileCreateAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestAssign(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Assign(keys[0], keys[1])
	require.Len(t, instruction.Accounts, 1)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)

	decompiled, err := DecompileAssign(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Address)
	assert.EqualValues(t, keys[1], decompiled.Owner)

	_, err = DecompileTransfer(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 5000)
	assert.EqualValues(t, ProgramKey[:], instruction.Program)
	require.Len(t, instruction.Accounts, 2)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	decompiled, err := DecompileTransfer(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.From)
	assert.EqualValues(t, keys[1], decompiled.To)
	assert.EqualValues(t, 5000, decompiled.Lamports)

	instruction.Data = append(instruction.Data, 0)
	_, err = DecompileTransfer(instruction)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid instruction data size"))
}

func TestAllocate(t *testing.T) {
	keys := generateKeys(t, 1)

	decompiled, err := DecompileAllocate(Allocate(keys[0], 64))
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Address)
	assert.EqualValues(t, 64, decompiled.Size)
}

func TestSystemAccount(t *testing.T) {
	assert.True(t, IsSystemAccount(SystemAccount))
	assert.True(t, IsSystemAccount(make([]byte, ed25519.PublicKeySize)))
	assert.False(t, IsSystemAccount(generateKeys(t, 1)[0]))
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
