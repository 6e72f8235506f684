// Package memo implements the memo program: it records arbitrary UTF-8 text
// in the transaction logs, optionally co-signed by a set of accounts.
package memo

import (
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana/memo"
)

type Program struct{}

func New() *Program {
	return &Program{}
}

// ProgramID implements runtime.Program.ProgramID
func (p *Program) ProgramID() ed25519.PublicKey {
	return memo.ProgramKey
}

// Process implements runtime.Program.Process
func (p *Program) Process(ctx *runtime.InvocationContext, data []byte) error {
	decompiled, err := memo.DecompileMemo(ctx.Instruction())
	if err != nil {
		return &runtime.Error{Code: runtime.ErrorCodeInvalidInstructionData, Cause: err}
	}

	for _, signer := range decompiled.Signers {
		if err := ctx.Require(ctx.RequireSigner(signer)); err != nil {
			return err
		}
		ctx.Log("Signed by %s", base58.Encode(signer))
	}

	if !utf8.Valid(decompiled.Data) {
		return errors.Wrap(runtime.ErrInvalidInstructionData, "memo is not valid utf-8")
	}

	ctx.Log("Memo (len %d): %q", len(decompiled.Data), decompiled.Data)
	return nil
}
