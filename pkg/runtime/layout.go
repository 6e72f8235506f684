package runtime

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

// Record is a typed account layout: an 8 byte discriminator followed by fixed
// width little endian fields in declaration order.
type Record interface {
	// Discriminator returns AccountDiscriminator of the record type name
	Discriminator() []byte

	// Size is the full serialized length, including the discriminator
	Size() int

	// Marshal returns Size bytes, starting with the discriminator
	Marshal() []byte

	// Unmarshal parses data produced by Marshal
	Unmarshal(data []byte) error
}

// InitRecord creates an account owned by the calling program and stores
// record in it
func InitRecord(c *InvocationContext, spec AddressSpec, payer ed25519.PublicKey, record Record, guards ...Guard) (ed25519.PublicKey, error) {
	address, err := c.Create(spec, c.program, uint64(record.Size()), payer, guards...)
	if err != nil {
		return nil, err
	}

	return address, c.Write(address, func(data []byte) error {
		copy(data, record.Marshal())
		return nil
	})
}

// InitRecordIdempotent initializes the record if the account doesn't exist,
// otherwise loads the existing record into record. The bool result reports
// whether the account was created.
func InitRecordIdempotent(c *InvocationContext, spec AddressSpec, payer ed25519.PublicKey, record Record, guards ...Guard) (ed25519.PublicKey, bool, error) {
	if err := checkGuards(guards); err != nil {
		return nil, false, err
	}

	address, _, err := c.resolve(spec)
	if err != nil {
		return nil, false, err
	}

	info, err := c.handle(address)
	if err != nil {
		return nil, false, err
	}

	if !info.acct.isInitialized() {
		address, err = InitRecord(c, spec, payer, record)
		return address, err == nil, err
	}

	if _, err := c.CreateIdempotent(spec, c.program, uint64(record.Size()), payer); err != nil {
		return nil, false, err
	}
	return address, false, LoadRecord(c, address, record)
}

// LoadRecord reads a record from an account owned by the calling program
func LoadRecord(c *InvocationContext, address ed25519.PublicKey, record Record) error {
	return LoadRecordOwnedBy(c, address, c.program, record)
}

// LoadRecordOwnedBy reads a record from an account that must be owned by
// owner. The owner, the emptiness of the account and the discriminator are
// checked on every load.
func LoadRecordOwnedBy(c *InvocationContext, address, owner ed25519.PublicKey, record Record) error {
	info, err := c.handle(address)
	if err != nil {
		return err
	}

	if !info.acct.isOwnedBy(owner) {
		if info.acct.isEmpty() {
			return newError(ErrorCodeAccountEmpty, "%s is empty", info)
		}
		return newError(ErrorCodeOwnerMismatch, "%s is owned by %s, not %s", info, base58.Encode(info.acct.owner), base58.Encode(owner))
	}

	data, err := c.Read(address)
	if err != nil {
		return err
	}

	if err := checkDiscriminator(data, record); err != nil {
		return &Error{Code: ErrorCodeTypeMismatch, Message: info.String(), Cause: err}
	}

	if err := record.Unmarshal(data); err != nil {
		return &Error{Code: ErrorCodeTypeMismatch, Message: info.String(), Cause: err}
	}
	return nil
}

// SaveRecord serializes record over an existing account of the same type
func SaveRecord(c *InvocationContext, address ed25519.PublicKey, record Record, guards ...Guard) error {
	return c.Write(address, func(data []byte) error {
		if err := checkDiscriminator(data, record); err != nil {
			return &Error{Code: ErrorCodeTypeMismatch, Message: base58.Encode(address), Cause: err}
		}

		copy(data, record.Marshal())
		return nil
	}, guards...)
}

func checkDiscriminator(data []byte, record Record) error {
	if len(data) < record.Size() {
		return newError(ErrorCodeTypeMismatch, "expected %d bytes, got %d", record.Size(), len(data))
	}

	if !bytes.Equal(data[:binary.DiscriminatorSize], record.Discriminator()) {
		return newError(ErrorCodeTypeMismatch, "unexpected discriminator %x", data[:binary.DiscriminatorSize])
	}
	return nil
}
