package points

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	playerAccountName = "Player"

	PlayerAccountSize = (binary.DiscriminatorSize +
		4 + // points
		ed25519.PublicKeySize) // authority
)

type PlayerAccount struct {
	Points    uint32
	Authority ed25519.PublicKey
}

func (a *PlayerAccount) Discriminator() []byte {
	return runtime.AccountDiscriminator(playerAccountName)
}

func (a *PlayerAccount) Size() int {
	return PlayerAccountSize
}

func (a *PlayerAccount) Marshal() []byte {
	data := make([]byte, PlayerAccountSize)

	var offset int
	binary.PutDiscriminator(data[offset:], a.Discriminator(), &offset)
	binary.PutUint32(data[offset:], a.Points, &offset)
	binary.PutKey32(data[offset:], a.Authority, &offset)

	return data
}

func (a *PlayerAccount) Unmarshal(data []byte) error {
	if len(data) < PlayerAccountSize {
		return errors.Errorf("invalid player account size: %d", len(data))
	}

	offset := binary.DiscriminatorSize
	binary.GetUint32(data[offset:], &a.Points, &offset)
	binary.GetKey32(data[offset:], &a.Authority, &offset)

	return nil
}

// GetPlayerAddress returns the address of the player record owned by
// authority, derived with the authority key as the only seed
func GetPlayerAddress(authority ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(ProgramKey, authority)
}
