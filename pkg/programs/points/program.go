// Package points is a program keeping a point balance per player. Players
// start with StartingPoints and may transfer them to other players.
package points

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

var ProgramKey = solana.MustParsePublicKey("E6xoLhGESw3cKPmnYzQoszz8wkyXei9kB28FNQZaZ2eY")

const StartingPoints = 10

type Program struct {
	dispatcher *runtime.Dispatcher
}

func New() *Program {
	p := &Program{}
	p.dispatcher = runtime.NewDispatcher().
		Handle(initializeInstructionName, p.initialize).
		Handle(transferPointsInstructionName, p.transferPoints)
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
