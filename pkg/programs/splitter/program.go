// Package splitter is a program sending the same amount of lamports from the
// signer to every recipient of an instruction.
package splitter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

var ProgramKey = solana.MustParsePublicKey("3Qn7L4CqkZ7xDFKnjVrrsdgwrLfezbpw21bA83g6VgWk")

var ErrTransferFailed = runtime.CustomError(0, "transfer failed")

type Program struct {
	dispatcher *runtime.Dispatcher
}

func New() *Program {
	p := &Program{}
	p.dispatcher = runtime.NewDispatcher().
		Handle(sendSolInstructionName, p.sendSol)
	return p
}

// ProgramID implements runtime.Program.ProgramID
func (p *Program) ProgramID() ed25519.PublicKey {
	return ProgramKey
}

// Process implements runtime.Program.Process
func (p *Program) Process(ctx *runtime.InvocationContext, data []byte) error {
	return p.dispatcher.Dispatch(ctx, data)
}
