package crowdfund

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	fundAccountName = "Fund"

	FundAccountSize = (binary.DiscriminatorSize +
		8 + // total_donated
		8) // total_withdrawn
)

// FundAccount tracks the running totals of the fund. The balance available
// to withdraw is the lamports held above the rent-exempt minimum.
type FundAccount struct {
	TotalDonated   uint64
	TotalWithdrawn uint64
}

func (a *FundAccount) Discriminator() []byte {
	return runtime.AccountDiscriminator(fundAccountName)
}

func (a *FundAccount) Size() int {
	return FundAccountSize
}

func (a *FundAccount) Marshal() []byte {
	data := make([]byte, FundAccountSize)

	var offset int
	binary.PutDiscriminator(data[offset:], a.Discriminator(), &offset)
	binary.PutUint64(data[offset:], a.TotalDonated, &offset)
	binary.PutUint64(data[offset:], a.TotalWithdrawn, &offset)

	return data
}

func (a *FundAccount) Unmarshal(data []byte) error {
	if len(data) < FundAccountSize {
		return errors.Errorf("invalid fund account size: %d", len(data))
	}

	offset := binary.DiscriminatorSize
	binary.GetUint64(data[offset:], &a.TotalDonated, &offset)
	binary.GetUint64(data[offset:], &a.TotalWithdrawn, &offset)

	return nil
}

// GetFundAddress returns the address of the fund, derived with no seeds
func GetFundAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(ProgramKey)
}
