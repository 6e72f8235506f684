package runtime

import (
	"context"
	"crypto/ed25519"
	"math/bits"
	"sort"
	"strconv"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/metrics"
	"github.com/code-payments/code-runtime/pkg/pointer"
	"github.com/code-payments/code-runtime/pkg/solana"
)

// execution is the working set of one transaction attempt. Every account the
// transaction references is loaded up front, and nested invocations can only
// reach those accounts.
type execution struct {
	ctx context.Context
	log *logrus.Entry
	rt  *Runtime

	tracer *metrics.MethodTracer

	rent           RentOracle
	clock          Clock
	maxInvokeDepth int
	maxDataLength  uint64

	keys     []string
	accounts map[string]*account
	original map[string]*account
	versions map[string]uint64
	writable map[string]bool

	logs   []string
	events []*Event
}

type snapshot struct {
	accounts map[string]*account
	events   int
}

func (e *execution) load(message *solana.Message) error {
	e.keys = make([]string, len(message.Accounts))
	e.accounts = make(map[string]*account, len(message.Accounts))
	e.original = make(map[string]*account, len(message.Accounts))
	e.versions = make(map[string]uint64, len(message.Accounts))
	e.writable = make(map[string]bool, len(message.Accounts))

	for i, key := range message.Accounts {
		address := base58.Encode(key)
		e.keys[i] = address
		e.writable[address] = message.IsWritable(i)
		e.accounts[address] = newNonexistentAccount(append(ed25519.PublicKey{}, key...))
	}

	records, err := e.rt.ledger.GetMultiple(e.ctx, e.keys...)
	if err != nil {
		return errors.Wrap(err, "error loading accounts")
	}

	for _, record := range records {
		acct, ok := e.accounts[record.Address]
		if !ok {
			continue
		}

		owner, err := record.GetOwner()
		if err != nil {
			return errors.Wrapf(err, "invalid owner for %s", record.Address)
		}

		acct.owner = owner
		acct.lamports = record.Lamports
		acct.data = append([]byte(nil), record.Data...)
		acct.bump = pointer.Uint8Copy(record.Bump)
		if acct.isInitialized() {
			acct.state = AccountStateInitialized
		}
		e.versions[record.Address] = record.Version
	}

	for address, acct := range e.accounts {
		e.original[address] = acct.clone()
	}
	return nil
}

// run executes each top level instruction with its own snapshot, verifying
// the working set after every instruction
func (e *execution) run(instructions []solana.Instruction) error {
	for i, ix := range instructions {
		log := e.log.WithField("instruction", i)

		before := e.snapshot()

		segment := e.tracer.StartChild("Instruction " + base58.Encode(ix.Program))
		segment.AddAttribute("index", i)

		c := newInvocationContext(e, ix.Program, ix.Data, 0, nil)
		c.log = log.WithField("program", base58.Encode(ix.Program))
		for _, meta := range ix.Accounts {
			c.bind(meta.PublicKey, meta.IsSigner, meta.IsWritable)
		}

		err := e.process(c)
		if err == nil && c.poisoned != nil {
			err = c.poisoned
		}
		if err == nil {
			err = e.verify(before)
		}

		segment.OnError(err)
		segment.End()

		if err != nil {
			log.WithError(err).Debug("instruction failed")
			return &InstructionError{Index: i, Err: err}
		}
	}
	return nil
}

func (e *execution) account(address ed25519.PublicKey) *account {
	return e.accounts[base58.Encode(address)]
}

func (e *execution) program(id ed25519.PublicKey) (Program, error) {
	program, ok := e.rt.program(id)
	if !ok {
		return nil, newError(ErrorCodeUnknownProgram, "%s is not a registered program", base58.Encode(id))
	}
	return program, nil
}

func (e *execution) snapshot() *snapshot {
	s := &snapshot{
		accounts: make(map[string]*account, len(e.accounts)),
		events:   len(e.events),
	}
	for address, acct := range e.accounts {
		s.accounts[address] = acct.clone()
	}
	return s
}

// restore rolls every account back in place, so outstanding handles observe
// the restored state
func (e *execution) restore(s *snapshot) {
	for address, acct := range e.accounts {
		acct.restore(s.accounts[address])
	}
	e.events = e.events[:s.events]
}

func (e *execution) addLog(line string) {
	e.logs = append(e.logs, line)
	e.log.Debug(line)
}

func (e *execution) process(c *InvocationContext) error {
	program, err := e.program(c.program)
	if err != nil {
		return err
	}

	id := base58.Encode(c.program)
	e.addLog("Program " + id + " invoke [" + strconv.Itoa(c.depth+1) + "]")

	err = program.Process(c, c.data)
	if err != nil {
		e.addLog("Program " + id + " failed: " + err.Error())
		return err
	}

	e.addLog("Program " + id + " success")
	return nil
}

// verify checks the invariants every instruction must leave behind
func (e *execution) verify(before *snapshot) error {
	if !e.totalLamports(e.accounts).equal(e.totalLamports(before.accounts)) {
		return newError(ErrorCodeUnbalancedInstruction, "total balance changed")
	}

	for _, address := range e.keys {
		acct := e.accounts[address]
		prev := before.accounts[address]
		if acct.equal(prev) {
			continue
		}

		if !e.writable[address] {
			return newError(ErrorCodeReadonlyAccount, "readonly account %s was modified", address)
		}

		if len(acct.data) > 0 {
			minimum := e.rent.MinimumBalance(uint64(len(acct.data)))
			if acct.lamports < minimum {
				return newError(ErrorCodeInsufficientFunds, "%s holds %d lamports, needs %d to be rent exempt", address, acct.lamports, minimum)
			}
		}

		if acct.closed && !acct.recreated && acct.isInitialized() {
			return newError(ErrorCodeAccountEmpty, "closed account %s can only be reused through create", address)
		}
	}
	return nil
}

// updates returns the ledger writes for every modified account
func (e *execution) updates() []*ledger.Update {
	var res []*ledger.Update
	for _, address := range e.sortedKeys() {
		acct := e.accounts[address]
		if !e.writable[address] || acct.equal(e.original[address]) {
			continue
		}

		record := &ledger.Record{
			Address:  address,
			Owner:    base58.Encode(acct.owner),
			Lamports: acct.lamports,
			Data:     append([]byte(nil), acct.data...),
			Bump:     pointer.Uint8Copy(acct.bump),
		}
		res = append(res, &ledger.Update{
			Record:          record,
			ExpectedVersion: e.versions[address],
		})
	}
	return res
}

func (e *execution) sortedKeys() []string {
	keys := make([]string, 0, len(e.accounts))
	for address := range e.accounts {
		keys = append(keys, address)
	}
	sort.Strings(keys)
	return keys
}

func (e *execution) totalLamports(accounts map[string]*account) lamportTotal {
	var total lamportTotal
	for _, acct := range accounts {
		total.add(acct.lamports)
	}
	return total
}

// lamportTotal is a 128 bit sum, so totals across many accounts can't wrap
type lamportTotal struct {
	hi, lo uint64
}

func (t *lamportTotal) add(v uint64) {
	var carry uint64
	t.lo, carry = bits.Add64(t.lo, v, 0)
	t.hi += carry
}

func (t lamportTotal) equal(other lamportTotal) bool {
	return t == other
}

func sumLamports(infos []*AccountInfo) lamportTotal {
	var total lamportTotal
	seen := make(map[*account]struct{}, len(infos))
	for _, info := range infos {
		if _, ok := seen[info.acct]; ok {
			continue
		}
		seen[info.acct] = struct{}{}
		total.add(info.acct.lamports)
	}
	return total
}
