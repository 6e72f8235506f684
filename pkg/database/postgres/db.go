package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/retry"
	"github.com/code-payments/code-runtime/pkg/retry/backoff"
)

const (
	maxSerializationAttempts = 10
	serializationBackoff     = 5 * time.Millisecond
	maxSerializationBackoff  = 250 * time.Millisecond
)

// ExecuteRetryable runs fn again while it fails with a serialization failure
func ExecuteRetryable(fn func() error) error {
	_, err := retry.Retry(
		fn,
		retry.RetriableFunc(IsSerializationFailure),
		retry.Limit(maxSerializationAttempts),
		retry.BackoffWithJitter(backoff.BinaryExponential(serializationBackoff), maxSerializationBackoff, 0.1),
	)
	return err
}

// ExecuteInTx runs fn inside a new transaction at the given isolation level.
// The transaction commits when fn returns nil and rolls back otherwise.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	if isolation == sql.LevelDefault {
		isolation = sql.LevelReadCommitted
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return errors.Wrap(err, "error starting transaction")
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrapf(err, "rollback also failed: %v", rollbackErr)
		}
		return err
	}
	return tx.Commit()
}

// ExecuteSerializable runs fn in a serializable transaction, retrying the
// whole transaction when it conflicts with a concurrent one
func ExecuteSerializable(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return ExecuteRetryable(func() error {
		return ExecuteInTx(ctx, db, sql.LevelSerializable, fn)
	})
}
