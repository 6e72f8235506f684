package runtime

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/code-payments/code-runtime/pkg/solana/binary"
)

// Program is code that owns and mutates accounts. Process is invoked once per
// instruction targeting ProgramID, and for every nested invocation.
type Program interface {
	ProgramID() ed25519.PublicKey
	Process(ctx *InvocationContext, data []byte) error
}

// Handler processes one operation. args is the instruction data following the
// 8 byte selector.
type Handler func(ctx *InvocationContext, args []byte) error

// Dispatcher routes instruction data to handlers by its 8 byte selector,
// sha256("global:" + name)[:8]
type Dispatcher struct {
	handlers map[[binary.DiscriminatorSize]byte]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[[binary.DiscriminatorSize]byte]Handler),
	}
}

// Handle registers h for the named operation
func (d *Dispatcher) Handle(name string, h Handler) *Dispatcher {
	var selector [binary.DiscriminatorSize]byte
	copy(selector[:], InstructionDiscriminator(name))
	d.handlers[selector] = h
	return d
}

// Dispatch runs the handler selected by data
func (d *Dispatcher) Dispatch(ctx *InvocationContext, data []byte) error {
	if len(data) < binary.DiscriminatorSize {
		return newError(ErrorCodeInvalidInstructionData, "instruction data is missing its selector")
	}

	var selector [binary.DiscriminatorSize]byte
	copy(selector[:], data)

	h, ok := d.handlers[selector]
	if !ok {
		return newError(ErrorCodeInvalidInstructionData, "unknown selector %x", selector)
	}
	return h(ctx, data[binary.DiscriminatorSize:])
}

// InstructionData prefixes args with the named operation's selector
func InstructionData(name string, args []byte) []byte {
	data := make([]byte, 0, binary.DiscriminatorSize+len(args))
	data = append(data, InstructionDiscriminator(name)...)
	return append(data, args...)
}

func InstructionDiscriminator(name string) []byte {
	return discriminator("global:" + name)
}

func AccountDiscriminator(name string) []byte {
	return discriminator("account:" + name)
}

func EventDiscriminator(name string) []byte {
	return discriminator("event:" + name)
}

func discriminator(preimage string) []byte {
	h := sha256.Sum256([]byte(preimage))
	return h[:binary.DiscriminatorSize]
}
