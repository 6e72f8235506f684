package runtime

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is the small integer reported to the submitting client when an
// instruction fails.
type ErrorCode uint32

const (
	ErrorCodeNone ErrorCode = iota
	ErrorCodeAlreadyInitialized
	ErrorCodeAccountEmpty
	ErrorCodeOwnerMismatch
	ErrorCodeInsufficientFunds
	ErrorCodeStillRentExempt
	ErrorCodeUnsafeReassignment
	ErrorCodeTypeMismatch
	ErrorCodeSeedTooLong
	ErrorCodeNoValidBumpFound
	ErrorCodeAuthorizationFailed
	ErrorCodeInvocationFailed
	ErrorCodeMissingAccount
	ErrorCodeMissingRequiredSignature
	ErrorCodeReadonlyAccount
	ErrorCodeInvalidSeeds
	ErrorCodeInvalidSpace
	ErrorCodeInvalidInstructionData
	ErrorCodeUnknownProgram
	ErrorCodeCallDepthExceeded
	ErrorCodeReentrancyNotAllowed
	ErrorCodeUnbalancedInstruction
	ErrorCodeArithmeticOverflow
)

// CustomErrorBase is the first code available to programs
const CustomErrorBase ErrorCode = 6000

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeNone:
		return "none"
	case ErrorCodeAlreadyInitialized:
		return "already_initialized"
	case ErrorCodeAccountEmpty:
		return "account_empty"
	case ErrorCodeOwnerMismatch:
		return "owner_mismatch"
	case ErrorCodeInsufficientFunds:
		return "insufficient_funds"
	case ErrorCodeStillRentExempt:
		return "still_rent_exempt"
	case ErrorCodeUnsafeReassignment:
		return "unsafe_reassignment"
	case ErrorCodeTypeMismatch:
		return "type_mismatch"
	case ErrorCodeSeedTooLong:
		return "seed_too_long"
	case ErrorCodeNoValidBumpFound:
		return "no_valid_bump_found"
	case ErrorCodeAuthorizationFailed:
		return "authorization_failed"
	case ErrorCodeInvocationFailed:
		return "invocation_failed"
	case ErrorCodeMissingAccount:
		return "missing_account"
	case ErrorCodeMissingRequiredSignature:
		return "missing_required_signature"
	case ErrorCodeReadonlyAccount:
		return "readonly_account"
	case ErrorCodeInvalidSeeds:
		return "invalid_seeds"
	case ErrorCodeInvalidSpace:
		return "invalid_space"
	case ErrorCodeInvalidInstructionData:
		return "invalid_instruction_data"
	case ErrorCodeUnknownProgram:
		return "unknown_program"
	case ErrorCodeCallDepthExceeded:
		return "call_depth_exceeded"
	case ErrorCodeReentrancyNotAllowed:
		return "reentrancy_not_allowed"
	case ErrorCodeUnbalancedInstruction:
		return "unbalanced_instruction"
	case ErrorCodeArithmeticOverflow:
		return "arithmetic_overflow"
	}

	if c >= CustomErrorBase {
		return fmt.Sprintf("custom(%d)", uint32(c-CustomErrorBase))
	}
	return "unknown"
}

// Error is a failure with a code from the runtime taxonomy. Two errors match
// under errors.Is when their codes are equal.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

var (
	ErrAlreadyInitialized       = &Error{Code: ErrorCodeAlreadyInitialized}
	ErrAccountEmpty             = &Error{Code: ErrorCodeAccountEmpty}
	ErrOwnerMismatch            = &Error{Code: ErrorCodeOwnerMismatch}
	ErrInsufficientFunds        = &Error{Code: ErrorCodeInsufficientFunds}
	ErrStillRentExempt          = &Error{Code: ErrorCodeStillRentExempt}
	ErrUnsafeReassignment       = &Error{Code: ErrorCodeUnsafeReassignment}
	ErrTypeMismatch             = &Error{Code: ErrorCodeTypeMismatch}
	ErrSeedTooLong              = &Error{Code: ErrorCodeSeedTooLong}
	ErrNoValidBumpFound         = &Error{Code: ErrorCodeNoValidBumpFound}
	ErrAuthorizationFailed      = &Error{Code: ErrorCodeAuthorizationFailed}
	ErrInvocationFailed         = &Error{Code: ErrorCodeInvocationFailed}
	ErrMissingAccount           = &Error{Code: ErrorCodeMissingAccount}
	ErrMissingRequiredSignature = &Error{Code: ErrorCodeMissingRequiredSignature}
	ErrReadonlyAccount          = &Error{Code: ErrorCodeReadonlyAccount}
	ErrInvalidSeeds             = &Error{Code: ErrorCodeInvalidSeeds}
	ErrInvalidSpace             = &Error{Code: ErrorCodeInvalidSpace}
	ErrInvalidInstructionData   = &Error{Code: ErrorCodeInvalidInstructionData}
	ErrUnknownProgram           = &Error{Code: ErrorCodeUnknownProgram}
	ErrCallDepthExceeded        = &Error{Code: ErrorCodeCallDepthExceeded}
	ErrReentrancyNotAllowed     = &Error{Code: ErrorCodeReentrancyNotAllowed}
	ErrUnbalancedInstruction    = &Error{Code: ErrorCodeUnbalancedInstruction}
	ErrArithmeticOverflow       = &Error{Code: ErrorCodeArithmeticOverflow}
)

func newError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CustomError returns a program defined error. The code is offset by
// CustomErrorBase.
func CustomError(code uint32, message string) *Error {
	return &Error{
		Code:    CustomErrorBase + ErrorCode(code),
		Message: message,
	}
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if len(e.Message) > 0 {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the outermost error code in err's chain, or ErrorCodeNone
// when err carries no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrorCodeNone
	}

	var runtimeErr *Error
	if errors.As(err, &runtimeErr) {
		return runtimeErr.Code
	}
	return ErrorCodeNone
}

// InstructionError identifies which instruction in a transaction failed
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %s", e.Index, e.Err.Error())
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// Code returns the error code reported to the client
func (e *InstructionError) Code() ErrorCode {
	return CodeOf(e.Err)
}

func invocationFailed(program string, cause error) *Error {
	var runtimeErr *Error
	if errors.As(cause, &runtimeErr) && runtimeErr.Code == ErrorCodeInvocationFailed {
		return runtimeErr
	}

	return &Error{
		Code:    ErrorCodeInvocationFailed,
		Message: fmt.Sprintf("invocation of %s failed", program),
		Cause:   cause,
	}
}
