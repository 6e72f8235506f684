// Package crowdfund is a program collecting donations into a derived fund
// account. Withdrawals are limited to a configured authority.
package crowdfund

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

var ProgramKey = solana.MustParsePublicKey("BTFq8v83oFKhxoapYNXN7iLZEs3CXHR5dDNQKPpJVqEo")

type Program struct {
	conf       *conf
	dispatcher *runtime.Dispatcher
}

func New(configProvider ConfigProvider) *Program {
	p := &Program{
		conf: configProvider(),
	}
	p.dispatcher = runtime.NewDispatcher().
		Handle(initializeInstructionName, p.initialize).
		Handle(donateInstructionName, p.donate).
		Handle(withdrawInstructionName, p.withdraw)
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
