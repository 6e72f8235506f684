package ledger

import (
	"bytes"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/pointer"
)

// Record is the durable form of an account. Nonexistent accounts are never
// stored; a record whose balance and data are both empty is reclaimed on
// commit.
type Record struct {
	Id uint64

	Address string
	Owner   string

	Lamports uint64
	Data     []byte

	// Bump is only set for program-derived addresses
	Bump *uint8

	Version       uint64
	LastUpdatedAt time.Time
}

// Update is a single account write within a Commit.
type Update struct {
	Record *Record

	// ExpectedVersion is the version the writer last observed. Zero means the
	// account must not currently exist.
	ExpectedVersion uint64
}

func (r *Record) Validate() error {
	if err := validateAddress(r.Address); err != nil {
		return errors.Wrap(err, "invalid address")
	}

	if err := validateAddress(r.Owner); err != nil {
		return errors.Wrap(err, "invalid owner")
	}

	return nil
}

// IsReclaimed returns whether the account holds nothing worth persisting
func (r *Record) IsReclaimed() bool {
	return r.Lamports == 0 && len(r.Data) == 0
}

// Equal compares the account state, ignoring store metadata
func (r *Record) Equal(other *Record) bool {
	return r.Address == other.Address &&
		r.Owner == other.Owner &&
		r.Lamports == other.Lamports &&
		bytes.Equal(r.Data, other.Data) &&
		pointer.Uint8Equal(r.Bump, other.Bump)
}

func (r *Record) Clone() Record {
	return Record{
		Id:            r.Id,
		Address:       r.Address,
		Owner:         r.Owner,
		Lamports:      r.Lamports,
		Data:          cloneData(r.Data),
		Bump:          pointer.Uint8Copy(r.Bump),
		Version:       r.Version,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id
	dst.Address = r.Address
	dst.Owner = r.Owner
	dst.Lamports = r.Lamports
	dst.Data = cloneData(r.Data)
	dst.Bump = pointer.Uint8Copy(r.Bump)
	dst.Version = r.Version
	dst.LastUpdatedAt = r.LastUpdatedAt
}

func (r *Record) GetPublicKey() (ed25519.PublicKey, error) {
	return base58.Decode(r.Address)
}

func (r *Record) GetOwner() (ed25519.PublicKey, error) {
	return base58.Decode(r.Owner)
}

// ValidateUpdates checks a commit batch before it is applied
func ValidateUpdates(updates []*Update) error {
	if len(updates) == 0 {
		return errors.New("no updates provided")
	}

	seen := make(map[string]struct{}, len(updates))
	for _, update := range updates {
		if update == nil || update.Record == nil {
			return errors.New("update record is required")
		}

		if err := update.Record.Validate(); err != nil {
			return err
		}

		if _, ok := seen[update.Record.Address]; ok {
			return errors.Errorf("duplicate update for %s", update.Record.Address)
		}
		seen[update.Record.Address] = struct{}{}
	}
	return nil
}

func validateAddress(address string) error {
	decoded, err := base58.Decode(address)
	if err != nil {
		return err
	}
	if len(decoded) != ed25519.PublicKeySize {
		return errors.Errorf("invalid length: %d", len(decoded))
	}
	return nil
}

// cloneData normalizes empty data to nil so that records compare equally
// regardless of which store produced them.
func cloneData(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	return append([]byte(nil), data...)
}
