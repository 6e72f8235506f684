package ledger

import (
	"context"
	"errors"

	"github.com/code-payments/code-runtime/pkg/database/query"
)

var (
	ErrNotFound     = errors.New("ledger: account not found")
	ErrStaleVersion = errors.New("ledger: account version is stale")
)

type Store interface {
	// Get returns the account at address.
	//
	// Returns ErrNotFound if the account does not exist.
	Get(ctx context.Context, address string) (*Record, error)

	// GetMultiple returns the subset of addresses that exist. Missing accounts
	// are omitted rather than reported as an error.
	GetMultiple(ctx context.Context, addresses ...string) ([]*Record, error)

	// GetAllByOwner returns a page of accounts owned by owner, ordered by Id.
	//
	// Returns ErrNotFound if no records are found.
	GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// CountByOwner returns the number of accounts owned by owner
	CountByOwner(ctx context.Context, owner string) (uint64, error)

	// Commit atomically applies every update or none of them. Each update's
	// ExpectedVersion must match the stored version, otherwise ErrStaleVersion
	// is returned. Reclaimed records are deleted. On success, each record's
	// Id, Version and LastUpdatedAt are refreshed in place.
	Commit(ctx context.Context, updates ...*Update) error
}
