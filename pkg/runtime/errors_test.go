package runtime

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_MatchesByCode(t *testing.T) {
	err := newError(ErrorCodeOwnerMismatch, "owned by someone else")

	assert.True(t, errors.Is(err, ErrOwnerMismatch))
	assert.False(t, errors.Is(err, ErrAccountEmpty))
	assert.True(t, errors.Is(pkgerrors.Wrap(err, "context"), ErrOwnerMismatch))
	assert.Equal(t, "owner_mismatch: owned by someone else", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrorCodeNone, CodeOf(nil))
	assert.Equal(t, ErrorCodeNone, CodeOf(errors.New("io")))
	assert.Equal(t, ErrorCodeTypeMismatch, CodeOf(pkgerrors.Wrap(ErrTypeMismatch, "context")))

	wrapped := invocationFailed("callee", ErrInsufficientFunds)
	assert.Equal(t, ErrorCodeInvocationFailed, CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrInsufficientFunds))

	ixErr := &InstructionError{Index: 2, Err: wrapped}
	assert.Equal(t, ErrorCodeInvocationFailed, ixErr.Code())
	assert.Contains(t, ixErr.Error(), "instruction 2 failed")
}

func TestInvocationFailed_NotDoubleWrapped(t *testing.T) {
	inner := invocationFailed("inner", ErrAccountEmpty)
	outer := invocationFailed("outer", inner)
	assert.Same(t, inner, outer)
}

func TestCustomError(t *testing.T) {
	err := CustomError(3, "transfer failed")
	assert.Equal(t, CustomErrorBase+3, err.Code)
	assert.Equal(t, "custom(3): transfer failed", err.Error())
	assert.True(t, errors.Is(err, CustomError(3, "")))
	assert.False(t, errors.Is(err, CustomError(4, "")))
}

func TestErrorCode_String(t *testing.T) {
	for code := ErrorCodeNone; code <= ErrorCodeArithmeticOverflow; code++ {
		assert.NotEqual(t, "unknown", code.String(), "code %d", code)
	}
	assert.Equal(t, "unknown", ErrorCode(999).String())
}
