// Package shortvec implements the compact length prefix used in the
// transaction wire format: little endian groups of 7 bits, with the high bit
// of each byte set while more bytes follow.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxEncodedBytes is the encoded size of math.MaxUint16
const maxEncodedBytes = 3

// EncodeLen writes the encoding of n to w and returns the bytes written
func EncodeLen(w io.Writer, n int) (int, error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, errors.Errorf("length %d is outside [0, %d]", n, math.MaxUint16)
	}

	var buf [maxEncodedBytes]byte
	size := 0
	for {
		buf[size] = byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			size++
			break
		}
		buf[size] |= 0x80
		size++
	}
	return w.Write(buf[:size])
}

// DecodeLen reads one encoded length from r. Encodings that are longer than
// necessary, or that exceed math.MaxUint16, are rejected.
func DecodeLen(r io.Reader) (int, error) {
	var b [1]byte
	var n int
	for i := 0; i < maxEncodedBytes; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		if i > 0 && b[0] == 0 {
			return 0, errors.New("non-canonical length encoding")
		}

		n |= int(b[0]&0x7f) << (7 * i)
		if b[0]&0x80 != 0 {
			continue
		}

		if n > math.MaxUint16 {
			return 0, errors.Errorf("length exceeds %d", math.MaxUint16)
		}
		return n, nil
	}
	return 0, errors.Errorf("length encoding longer than %d bytes", maxEncodedBytes)
}
