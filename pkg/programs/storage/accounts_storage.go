package storage

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	storageAccountName = "Storage"

	StorageAccountSize = (binary.DiscriminatorSize +
		8 + // x
		8) // y
)

type StorageAccount struct {
	X uint64
	Y uint64
}

func (a *StorageAccount) Discriminator() []byte {
	return runtime.AccountDiscriminator(storageAccountName)
}

func (a *StorageAccount) Size() int {
	return StorageAccountSize
}

func (a *StorageAccount) Marshal() []byte {
	data := make([]byte, StorageAccountSize)

	var offset int
	binary.PutDiscriminator(data[offset:], a.Discriminator(), &offset)
	binary.PutUint64(data[offset:], a.X, &offset)
	binary.PutUint64(data[offset:], a.Y, &offset)

	return data
}

func (a *StorageAccount) Unmarshal(data []byte) error {
	if len(data) < StorageAccountSize {
		return errors.Errorf("invalid storage account size: %d", len(data))
	}

	offset := binary.DiscriminatorSize
	binary.GetUint64(data[offset:], &a.X, &offset)
	binary.GetUint64(data[offset:], &a.Y, &offset)

	return nil
}

// GetStorageAddress returns the address of the storage record, derived with
// no seeds
func GetStorageAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(ProgramKey)
}
