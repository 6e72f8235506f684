package points

import "github.com/code-payments/code-runtime/pkg/runtime"

var (
	ErrSignerIsNotAuthority = runtime.CustomError(0, "SignerIsNotAuthority")
	ErrInsufficientPoints   = runtime.CustomError(1, "InsufficientPoints")
	ErrSelfTransfer         = runtime.CustomError(2, "SelfTransfer")
)
