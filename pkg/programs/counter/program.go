// Package counter is a program keeping a single counter that is created the
// first time it's incremented.
package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

var ProgramKey = solana.MustParsePublicKey("APPsags78Ff2RYiJc1CEbqcFGdMiWU8t87dc2gyaD7PN")

type Program struct {
	dispatcher *runtime.Dispatcher
}

func New() *Program {
	p := &Program{}
	p.dispatcher = runtime.NewDispatcher().
		Handle(incrementInstructionName, p.increment)
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
