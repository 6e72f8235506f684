// Package storage is a program managing a single record of two integers,
// exercising every lifecycle operation of the account store.
package storage

import (
	"crypto/ed25519"

	"github.com/code-payments/code-runtime/pkg/runtime"
	"github.com/code-payments/code-runtime/pkg/solana"
)

var ProgramKey = solana.MustParsePublicKey("7Etzn23NXtrU2Kr6WM2919WP4ZCAWogwn5te32oQuigi")

type Program struct {
	dispatcher *runtime.Dispatcher
}

func New() *Program {
	p := &Program{}
	p.dispatcher = runtime.NewDispatcher().
		Handle(initializeInstructionName, p.initialize).
		Handle(setInstructionName, p.set).
		Handle(resizeInstructionName, p.resize).
		Handle(changeOwnerInstructionName, p.changeOwner).
		Handle(eraseInstructionName, p.erase).
		Handle(closeInstructionName, p.close).
		Handle(readOtherInstructionName, p.readOther)
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
