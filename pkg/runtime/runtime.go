package runtime

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-runtime/pkg/cache"
	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/metrics"
	"github.com/code-payments/code-runtime/pkg/rate"
	"github.com/code-payments/code-runtime/pkg/retry"
	"github.com/code-payments/code-runtime/pkg/retry/backoff"
	"github.com/code-payments/code-runtime/pkg/solana"
	"github.com/code-payments/code-runtime/pkg/solana/system"

	runtimesync "github.com/code-payments/code-runtime/pkg/sync"
)

const (
	metricsStructName = "runtime.runtime"

	executedInstructionsMetricName = "Runtime/instructions_executed"
	failedTransactionsMetricName   = "Runtime/transactions_failed"
	executeDurationMetricName      = "Runtime/execute_duration"
	programEventName               = "RuntimeProgramEvent"

	commitBackoff    = 10 * time.Millisecond
	maxCommitBackoff = 100 * time.Millisecond
)

// ErrRateLimited is returned when the fee payer submits transactions faster
// than the configured payer rate limit
var ErrRateLimited = errors.New("fee payer is rate limited")

// Runtime executes transactions against a ledger.
//
// Transactions touching disjoint accounts run concurrently. Transactions
// sharing a writable account are serialized by a striped lock, and the
// ledger's version checks catch writers outside this process.
type Runtime struct {
	log    *logrus.Entry
	conf   *conf
	ledger ledger.Store
	locks  *runtimesync.StripedLock

	rent    RentOracle
	clock   Clock
	limiter rate.Limiter

	// derivations caches canonical program derived addresses, nil when
	// disabled
	derivations cache.Cache[derivation]

	programsMu sync.RWMutex
	programs   map[string]Program
}

// Option configures a Runtime
type Option func(r *Runtime)

// WithRentOracle overrides the configured rent parameters
func WithRentOracle(rent RentOracle) Option {
	return func(r *Runtime) {
		r.rent = rent
	}
}

// WithClock overrides the wall clock reported to programs
func WithClock(clock Clock) Option {
	return func(r *Runtime) {
		r.clock = clock
	}
}

// WithRateLimiter overrides the configured fee payer rate limit
func WithRateLimiter(limiter rate.Limiter) Option {
	return func(r *Runtime) {
		r.limiter = limiter
	}
}

// New returns a Runtime with the system program registered
func New(store ledger.Store, configProvider ConfigProvider, opts ...Option) *Runtime {
	conf := configProvider()

	r := &Runtime{
		log:      logrus.StandardLogger().WithField("type", "runtime"),
		conf:     conf,
		ledger:   store,
		locks:    runtimesync.NewStripedLock(uint(conf.lockStripes.Get(context.Background()))),
		clock:    systemClock{},
		programs: make(map[string]Program),
	}

	if size := conf.derivationCacheSize.Get(context.Background()); size > 0 {
		r.derivations = cache.New[derivation](int(size))
	}

	if limit := conf.payerRateLimit.Get(context.Background()); limit > 0 {
		r.limiter = rate.NewLocalLimiter(limit, 0)
	} else {
		r.limiter = rate.NoLimiter{}
	}

	for _, opt := range opts {
		opt(r)
	}

	r.Register(systemProgram{})
	return r
}

// Register makes program available to transactions. Registering a program id
// twice replaces the earlier program.
func (r *Runtime) Register(program Program) {
	r.programsMu.Lock()
	r.programs[base58.Encode(program.ProgramID())] = program
	r.programsMu.Unlock()
}

func (r *Runtime) program(id ed25519.PublicKey) (Program, bool) {
	r.programsMu.RLock()
	defer r.programsMu.RUnlock()

	program, ok := r.programs[base58.Encode(id)]
	return program, ok
}

// Result is the outcome of a committed transaction
type Result struct {
	Id     uuid.UUID
	Logs   []string
	Events []*Event

	// ModifiedAccounts are the accounts written by the transaction, in
	// address order. Reclaimed accounts are included with zero lamports and
	// no data.
	ModifiedAccounts []*ledger.Record
}

// ExecuteRaw decodes a wire encoded transaction and executes it
func (r *Runtime) ExecuteRaw(ctx context.Context, raw []byte) (*Result, error) {
	var txn solana.Transaction
	if err := txn.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(err, "error decoding transaction")
	}
	return r.Execute(ctx, &txn)
}

// Execute runs every instruction in txn and commits the result atomically.
//
// Instruction failures are returned as *InstructionError, and nothing is
// committed. Infrastructure failures are returned as is.
func (r *Runtime) Execute(ctx context.Context, txn *solana.Transaction) (result *Result, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	start := time.Now()
	id := uuid.New()
	log := r.log.WithFields(logrus.Fields{
		"method": "Execute",
		"tx":     id.String(),
	})

	tracer.AddAttributes(map[string]interface{}{
		"tx":           id.String(),
		"instructions": len(txn.Message.Instructions),
	})

	defer func() {
		if err != nil {
			tracer.OnError(err)
			metrics.RecordCount(ctx, failedTransactionsMetricName, 1)
			log.WithError(err).Debug("transaction failed")
		}
	}()

	instructions, err := txn.Instructions()
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction")
	}

	signers := txn.Signers()
	if len(signers) == 0 {
		return nil, newError(ErrorCodeMissingRequiredSignature, "transaction has no signers")
	}

	if !r.limiter.Allow(base58.Encode(signers[0])) {
		return nil, ErrRateLimited
	}

	for i, ix := range instructions {
		if _, ok := r.program(ix.Program); !ok {
			return nil, &InstructionError{
				Index: i,
				Err:   newError(ErrorCodeUnknownProgram, "%s is not a registered program", base58.Encode(ix.Program)),
			}
		}
	}

	keys := make([][]byte, len(txn.Message.Accounts))
	writable := make([]bool, len(txn.Message.Accounts))
	for i, key := range txn.Message.Accounts {
		keys[i] = key
		writable[i] = txn.Message.IsWritable(i)
	}

	lockSet := r.locks.LockAll(keys, writable)
	defer lockSet.Unlock()

	rent := r.rentOracle(ctx)

	var exec *execution
	var updates []*ledger.Update
	_, err = retry.RetryWithContext(
		ctx,
		func() error {
			exec = &execution{
				ctx:            ctx,
				log:            log,
				rt:             r,
				tracer:         tracer,
				rent:           rent,
				clock:          r.clock,
				maxInvokeDepth: int(r.conf.maxInvokeDepth.Get(ctx)),
				maxDataLength:  r.conf.maxAccountDataLength.Get(ctx),
			}

			if err := exec.load(&txn.Message); err != nil {
				return err
			}

			if err := exec.run(instructions); err != nil {
				return err
			}

			updates = exec.updates()
			if len(updates) == 0 {
				return nil
			}
			return r.ledger.Commit(ctx, updates...)
		},
		retry.RetriableErrors(ledger.ErrStaleVersion),
		retry.Limit(uint(r.conf.maxCommitAttempts.Get(ctx))),
		retry.BackoffWithJitter(backoff.BinaryExponential(commitBackoff), maxCommitBackoff, 0.1),
	)
	if err != nil {
		return nil, err
	}

	metrics.RecordDuration(ctx, executeDurationMetricName, time.Since(start))
	metrics.RecordCount(ctx, executedInstructionsMetricName, uint64(len(instructions)))
	for _, event := range exec.events {
		metrics.RecordEvent(ctx, programEventName, map[string]interface{}{
			"tx":      id.String(),
			"program": event.Program,
			"name":    event.Name,
		})
	}

	result = &Result{
		Id:     id,
		Logs:   exec.logs,
		Events: exec.events,
	}
	for _, update := range updates {
		result.ModifiedAccounts = append(result.ModifiedAccounts, update.Record)
	}

	log.WithField("modified", len(result.ModifiedAccounts)).Debug("transaction committed")
	return result, nil
}

func (r *Runtime) rentOracle(ctx context.Context) RentOracle {
	if r.rent != nil {
		return r.rent
	}

	return &Rent{
		LamportsPerByteYear:    r.conf.rentLamportsPerByteYear.Get(ctx),
		ExemptionThreshold:     r.conf.rentExemptionThreshold.Get(ctx),
		AccountStorageOverhead: r.conf.rentAccountStorageOverhead.Get(ctx),
	}
}

// MinimumBalance returns the rent exempt balance for space bytes of data
// under the current rent parameters
func (r *Runtime) MinimumBalance(ctx context.Context, space uint64) uint64 {
	return r.rentOracle(ctx).MinimumBalance(space)
}

// GetAccount returns the committed state of address. Accounts that don't exist
// are reported as empty accounts owned by the system program.
func (r *Runtime) GetAccount(ctx context.Context, address ed25519.PublicKey) (*ledger.Record, error) {
	encoded := base58.Encode(address)

	record, err := r.ledger.Get(ctx, encoded)
	if err == ledger.ErrNotFound {
		return &ledger.Record{
			Address: encoded,
			Owner:   base58.Encode(system.SystemAccount),
		}, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "error getting account %s", encoded)
	}
	return record, nil
}
