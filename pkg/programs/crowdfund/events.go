package crowdfund

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

const (
	DonatedEventName   = "Donated"
	WithdrawnEventName = "Withdrawn"

	transferEventSize = (ed25519.PublicKeySize + // counterparty
		8) // amount
)

// TransferEvent is the payload of both Donated and Withdrawn events
type TransferEvent struct {
	Counterparty ed25519.PublicKey
	Amount       uint64
}

func (e *TransferEvent) Marshal() []byte {
	data := make([]byte, transferEventSize)

	var offset int
	binary.PutKey32(data[offset:], e.Counterparty, &offset)
	binary.PutUint64(data[offset:], e.Amount, &offset)

	return data
}

// Unmarshal parses event data as emitted, including the event discriminator
func (e *TransferEvent) Unmarshal(name string, data []byte) error {
	if len(data) != binary.DiscriminatorSize+transferEventSize {
		return errors.Errorf("invalid event size: %d", len(data))
	}

	expected := runtime.EventDiscriminator(name)
	for i := range expected {
		if data[i] != expected[i] {
			return errors.Errorf("not a %s event", name)
		}
	}

	offset := binary.DiscriminatorSize
	binary.GetKey32(data[offset:], &e.Counterparty, &offset)
	binary.GetUint64(data[offset:], &e.Amount, &offset)

	return nil
}
