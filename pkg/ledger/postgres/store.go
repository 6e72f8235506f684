package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-runtime/pkg/database/query"
	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/metrics"
)

const metricsStructName = "ledger.postgres.store"

type store struct {
	db *sqlx.DB
}

// New returns a new postgres backed ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromAccountModel(model), nil
}

// GetMultiple implements ledger.Store.GetMultiple
func (s *store) GetMultiple(ctx context.Context, addresses ...string) ([]*ledger.Record, error) {
	models, err := dbGetMultiple(ctx, s.db, addresses)
	if err != nil {
		return nil, err
	}

	res := make([]*ledger.Record, len(models))
	for i, model := range models {
		res[i] = fromAccountModel(model)
	}
	return res, nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Record, error) {
	if err := cursor.Validate(); err != nil {
		return nil, err
	}
	if err := direction.Validate(); err != nil {
		return nil, err
	}

	models, err := dbGetAllByOwner(ctx, s.db, owner, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*ledger.Record, len(models))
	for i, model := range models {
		res[i] = fromAccountModel(model)
	}
	return res, nil
}

// CountByOwner implements ledger.Store.CountByOwner
func (s *store) CountByOwner(ctx context.Context, owner string) (uint64, error) {
	return dbCountByOwner(ctx, s.db, owner)
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(ctx context.Context, updates ...*ledger.Update) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Commit")
	defer tracer.End()

	err := dbCommit(ctx, s.db, updates)
	tracer.OnError(err)
	return err
}
