package runtime

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

// Invoke calls another program with the accounts listed in ix. Each account
// must be held by the caller, and carries the intersection of the caller's
// capabilities and those requested in ix. signerSeeds grants signer
// capability to program derived addresses of the caller, one seed set
// (including the bump) per address.
//
// Effects of a failed call are rolled back. The failure is returned wrapped
// as InvocationFailed, and the calling instruction fails with it even if the
// error is ignored.
func (c *InvocationContext) Invoke(ix solana.Instruction, signerSeeds ...[][]byte) error {
	if err := c.invoke(ix, signerSeeds); err != nil {
		wrapped := invocationFailed(base58.Encode(ix.Program), err)
		c.poison(wrapped)
		return wrapped
	}
	return nil
}

// Transfer moves lamports between accounts through the system program. from
// must sign, or be a program derived address of the caller with its seeds in
// signerSeeds, and must be owned by the system program or by the caller. The
// system program's error is returned as is, and fails the calling instruction
// even if ignored.
func (c *InvocationContext) Transfer(from, to ed25519.PublicKey, amount uint64, signerSeeds ...[][]byte) error {
	if err := c.invoke(system.Transfer(from, to, amount), signerSeeds); err != nil {
		c.poison(err)
		return err
	}
	return nil
}

func (c *InvocationContext) invoke(ix solana.Instruction, signerSeeds [][][]byte) error {
	callee, err := c.calleeContext(ix, signerSeeds)
	if err != nil {
		return err
	}

	snapshot := c.exec.snapshot()
	before := sumLamports(callee.accounts)

	err = c.exec.process(callee)
	if err == nil && callee.poisoned != nil {
		err = callee.poisoned
	}
	if err == nil && !before.equal(sumLamports(callee.accounts)) {
		err = newError(ErrorCodeUnbalancedInstruction, "invocation of %s changed the total balance of its accounts", base58.Encode(ix.Program))
	}

	if err != nil {
		c.exec.restore(snapshot)
		return err
	}
	return nil
}

func (c *InvocationContext) calleeContext(ix solana.Instruction, signerSeeds [][][]byte) (*InvocationContext, error) {
	if _, err := c.exec.program(ix.Program); err != nil {
		return nil, err
	}

	depth := c.depth + 1
	if max := c.exec.maxInvokeDepth; depth > max {
		return nil, newError(ErrorCodeCallDepthExceeded, "invocation depth %d exceeds %d", depth, max)
	}

	if !bytes.Equal(ix.Program, c.program) {
		for _, program := range c.stack {
			if bytes.Equal(program, ix.Program) {
				return nil, newError(ErrorCodeReentrancyNotAllowed, "%s is already on the call stack", base58.Encode(ix.Program))
			}
		}
	}

	pdaSigners := make([]ed25519.PublicKey, 0, len(signerSeeds))
	for _, seeds := range signerSeeds {
		address, err := solana.CreateProgramAddress(c.program, seeds...)
		if err != nil {
			return nil, derivationError(err)
		}
		pdaSigners = append(pdaSigners, address)
	}

	callee := newInvocationContext(c.exec, ix.Program, ix.Data, depth, c.stack)
	for _, meta := range ix.Accounts {
		held, err := c.handle(meta.PublicKey)
		if err != nil {
			return nil, err
		}

		isSigner := meta.IsSigner && (held.IsSigner || containsKey(pdaSigners, meta.PublicKey))
		isWritable := meta.IsWritable && held.IsWritable
		callee.bind(held.Address, isSigner, isWritable)
	}
	return callee, nil
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
