package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-runtime/pkg/solana"
)

// InvocationContext binds one program call to the accounts and arguments it
// was given. It is owned by that call and must not be retained after Process
// returns.
type InvocationContext struct {
	exec *execution
	log  *logrus.Entry

	program  ed25519.PublicKey
	accounts []*AccountInfo
	data     []byte

	depth int
	stack []ed25519.PublicKey

	// poisoned records the first failed invocation made by this call. The
	// call fails with it even if the program ignores the returned error.
	poisoned error
}

func newInvocationContext(exec *execution, program ed25519.PublicKey, data []byte, depth int, stack []ed25519.PublicKey) *InvocationContext {
	callStack := make([]ed25519.PublicKey, len(stack), len(stack)+1)
	copy(callStack, stack)
	callStack = append(callStack, program)

	return &InvocationContext{
		exec:    exec,
		log:     exec.log.WithField("program", base58.Encode(program)),
		program: program,
		data:    append([]byte{}, data...),
		depth:   depth,
		stack:   callStack,
	}
}

// bind adds a handle for address, merging capabilities when the address is
// referenced more than once
func (c *InvocationContext) bind(address ed25519.PublicKey, isSigner, isWritable bool) {
	if existing, ok := c.lookup(address); ok {
		existing.IsSigner = existing.IsSigner || isSigner
		existing.IsWritable = existing.IsWritable || isWritable
		c.accounts = append(c.accounts, existing)
		return
	}

	c.accounts = append(c.accounts, &AccountInfo{
		Address:    address,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		acct:       c.exec.account(address),
	})
}

func (c *InvocationContext) lookup(address ed25519.PublicKey) (*AccountInfo, bool) {
	for _, info := range c.accounts {
		if bytes.Equal(info.Address, address) {
			return info, true
		}
	}
	return nil, false
}

func (c *InvocationContext) handle(address ed25519.PublicKey) (*AccountInfo, error) {
	info, ok := c.lookup(address)
	if !ok {
		return nil, newError(ErrorCodeMissingAccount, "%s was not provided to %s", base58.Encode(address), base58.Encode(c.program))
	}
	return info, nil
}

func (c *InvocationContext) writableHandle(address ed25519.PublicKey) (*AccountInfo, error) {
	info, err := c.handle(address)
	if err != nil {
		return nil, err
	}
	if !info.IsWritable {
		return nil, newError(ErrorCodeReadonlyAccount, "%s is not writable", info)
	}
	return info, nil
}

func (c *InvocationContext) signerHandle(address ed25519.PublicKey) (*AccountInfo, error) {
	info, err := c.writableHandle(address)
	if err != nil {
		return nil, err
	}
	if !info.IsSigner {
		return nil, newError(ErrorCodeMissingRequiredSignature, "%s must sign", info)
	}
	return info, nil
}

func (c *InvocationContext) poison(err error) {
	if c.poisoned == nil {
		c.poisoned = err
	}
}

// Context returns the context of the transaction being executed
func (c *InvocationContext) Context() context.Context {
	return c.exec.ctx
}

// ProgramID returns the program being invoked
func (c *InvocationContext) ProgramID() ed25519.PublicKey {
	return c.program
}

// Accounts returns the account handles in instruction order
func (c *InvocationContext) Accounts() []*AccountInfo {
	return c.accounts
}

// Account returns the handle at index in instruction order
func (c *InvocationContext) Account(index int) (*AccountInfo, error) {
	if index < 0 || index >= len(c.accounts) {
		return nil, newError(ErrorCodeMissingAccount, "expected an account at index %d", index)
	}
	return c.accounts[index], nil
}

// Data returns the instruction data, including any selector
func (c *InvocationContext) Data() []byte {
	return c.data
}

// Depth returns the nesting level, where top level instructions are 0
func (c *InvocationContext) Depth() int {
	return c.depth
}

// CallStack returns the programs on the call stack, outermost first
func (c *InvocationContext) CallStack() []ed25519.PublicKey {
	return append([]ed25519.PublicKey{}, c.stack...)
}

// Rent returns the rent oracle used for every minimum balance check in the
// transaction
func (c *InvocationContext) Rent() RentOracle {
	return c.exec.rent
}

// Clock returns the clock reported to programs, the wall clock unless the
// runtime was built with WithClock
func (c *InvocationContext) Clock() Clock {
	return c.exec.clock
}

// callerID is the program that invoked this one, or nil for a top level
// instruction
func (c *InvocationContext) callerID() ed25519.PublicKey {
	if len(c.stack) < 2 {
		return nil
	}
	return c.stack[len(c.stack)-2]
}

// Log records a message in the transaction result
func (c *InvocationContext) Log(format string, args ...interface{}) {
	c.exec.addLog(fmt.Sprintf("Program log: "+format, args...))
}

// Emit records a program event. The event data is prefixed with
// sha256("event:" + name)[:8]. Events from an invocation that is rolled back
// are discarded.
func (c *InvocationContext) Emit(name string, data []byte) {
	c.exec.events = append(c.exec.events, &Event{
		Program: base58.Encode(c.program),
		Name:    name,
		Data:    append(EventDiscriminator(name), data...),
	})
}

// Instruction rebuilds the instruction this context was invoked with
func (c *InvocationContext) Instruction() solana.Instruction {
	metas := make([]solana.AccountMeta, len(c.accounts))
	for i, info := range c.accounts {
		metas[i] = solana.AccountMeta{
			PublicKey:  info.Address,
			IsSigner:   info.IsSigner,
			IsWritable: info.IsWritable,
		}
	}
	return solana.NewInstruction(c.program, c.data, metas...)
}

// Event is a structured record emitted by a program
type Event struct {
	Program string
	Name    string
	Data    []byte
}
