package query

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is an opaque paging position: the big endian id of the last record
// a caller has seen. An empty cursor starts from the beginning.
type Cursor []byte

func ToCursor(id uint64) Cursor {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

// ParseCursor decodes a cursor from its base58 text form
func ParseCursor(encoded string) (Cursor, error) {
	if len(encoded) == 0 {
		return nil, nil
	}

	decoded, err := base58.Decode(encoded)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCursor, err.Error())
	}

	c := Cursor(decoded)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c Cursor) Validate() error {
	if len(c) != 0 && len(c) != 8 {
		return errors.Wrapf(ErrInvalidCursor, "expected 8 bytes, got %d", len(c))
	}
	return nil
}

// ToUint64 returns the id the cursor points at. The cursor must be valid.
func (c Cursor) ToUint64() uint64 {
	if len(c) == 0 {
		return 0
	}
	return binary.BigEndian.Uint64(c)
}

func (c Cursor) String() string {
	return base58.Encode(c)
}
