package counter

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	counterAccountName = "Counter"

	CounterAccountSize = (binary.DiscriminatorSize +
		8) // count
)

type CounterAccount struct {
	Count uint64
}

func (a *CounterAccount) Discriminator() []byte {
	return runtime.AccountDiscriminator(counterAccountName)
}

func (a *CounterAccount) Size() int {
	return CounterAccountSize
}

func (a *CounterAccount) Marshal() []byte {
	data := make([]byte, CounterAccountSize)

	var offset int
	binary.PutDiscriminator(data[offset:], a.Discriminator(), &offset)
	binary.PutUint64(data[offset:], a.Count, &offset)

	return data
}

func (a *CounterAccount) Unmarshal(data []byte) error {
	if len(data) < CounterAccountSize {
		return errors.Errorf("invalid counter account size: %d", len(data))
	}

	offset := binary.DiscriminatorSize
	binary.GetUint64(data[offset:], &a.Count, &offset)

	return nil
}

// GetCounterAddress returns the address of the counter, derived with no seeds
func GetCounterAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(ProgramKey)
}
