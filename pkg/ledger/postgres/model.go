package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/pointer"

	pgutil "github.com/code-payments/code-runtime/pkg/database/postgres"
	q "github.com/code-payments/code-runtime/pkg/database/query"
)

const (
	accountTableName = "runtime__core_account"

	allColumns = `id, address, owner, lamports, data, bump, version, last_updated_at`
)

type accountModel struct {
	Id            sql.NullInt64 `db:"id"`
	Address       string        `db:"address"`
	Owner         string        `db:"owner"`
	Lamports      uint64        `db:"lamports"`
	Data          []byte        `db:"data"`
	Bump          sql.NullInt16 `db:"bump"`
	Version       uint64        `db:"version"`
	LastUpdatedAt time.Time     `db:"last_updated_at"`
}

func toAccountModel(obj *ledger.Record) (*accountModel, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	var bump sql.NullInt16
	if obj.Bump != nil {
		bump = sql.NullInt16{Int16: int16(*obj.Bump), Valid: true}
	}

	return &accountModel{
		Id:            sql.NullInt64{Int64: int64(obj.Id), Valid: obj.Id > 0},
		Address:       obj.Address,
		Owner:         obj.Owner,
		Lamports:      obj.Lamports,
		Data:          data,
		Bump:          bump,
		Version:       obj.Version,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromAccountModel(obj *accountModel) *ledger.Record {
	record := &ledger.Record{
		Id:            uint64(obj.Id.Int64),
		Address:       obj.Address,
		Owner:         obj.Owner,
		Lamports:      obj.Lamports,
		Bump:          pointer.Uint8IfValid(obj.Bump.Valid, uint8(obj.Bump.Int16)),
		Version:       obj.Version,
		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
	}
	if len(obj.Data) > 0 {
		record.Data = obj.Data
	}
	return record
}

// dbInsert creates an account that must not already exist
func (m *accountModel) dbInsert(ctx context.Context, tx *sqlx.Tx) error {
	query := `INSERT INTO ` + accountTableName + `
		(address, owner, lamports, data, bump, version, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		RETURNING ` + allColumns

	err := tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		m.Bump,
		time.Now().UTC(),
	).StructScan(m)
	return pgutil.CheckUniqueViolation(err, ledger.ErrStaleVersion)
}

// dbUpdate overwrites an account at an expected version, advancing the version
func (m *accountModel) dbUpdate(ctx context.Context, tx *sqlx.Tx, expectedVersion uint64) error {
	query := `UPDATE ` + accountTableName + `
		SET owner = $2, lamports = $3, data = $4, bump = $5, version = version + 1, last_updated_at = $6
		WHERE address = $1 AND version = $7
		RETURNING ` + allColumns

	err := tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		m.Bump,
		time.Now().UTC(),
		expectedVersion,
	).StructScan(m)
	return pgutil.CheckNoRows(err, ledger.ErrStaleVersion)
}

// dbDelete removes a reclaimed account at an expected version
func dbDelete(ctx context.Context, tx *sqlx.Tx, address string, expectedVersion uint64) error {
	query := `DELETE FROM ` + accountTableName + `
		WHERE address = $1 AND version = $2`

	res, err := tx.ExecContext(ctx, query, address, expectedVersion)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected != 1 {
		return ledger.ErrStaleVersion
	}
	return nil
}

// dbCheckNotExists is used for reclaimed records that were created and
// destroyed without ever being persisted
func dbCheckNotExists(ctx context.Context, tx *sqlx.Tx, address string) error {
	var count uint64
	query := `SELECT COUNT(*) FROM ` + accountTableName + ` WHERE address = $1`
	if err := tx.GetContext(ctx, &count, query, address); err != nil {
		return err
	}
	if count > 0 {
		return ledger.ErrStaleVersion
	}
	return nil
}

func dbCommit(ctx context.Context, db *sqlx.DB, updates []*ledger.Update) error {
	if err := ledger.ValidateUpdates(updates); err != nil {
		return err
	}

	return pgutil.ExecuteSerializable(ctx, db, func(tx *sqlx.Tx) error {
		for _, update := range updates {
			if err := dbApply(ctx, tx, update); err != nil {
				return err
			}
		}
		return nil
	})
}

func dbApply(ctx context.Context, tx *sqlx.Tx, update *ledger.Update) error {
	record := update.Record

	if record.IsReclaimed() {
		var err error
		if update.ExpectedVersion == 0 {
			err = dbCheckNotExists(ctx, tx, record.Address)
		} else {
			err = dbDelete(ctx, tx, record.Address, update.ExpectedVersion)
		}
		if err != nil {
			return err
		}

		record.Id = 0
		record.Version = 0
		record.LastUpdatedAt = time.Now().UTC()
		return nil
	}

	model, err := toAccountModel(record)
	if err != nil {
		return err
	}

	if update.ExpectedVersion == 0 {
		err = model.dbInsert(ctx, tx)
	} else {
		err = model.dbUpdate(ctx, tx, update.ExpectedVersion)
	}
	if err != nil {
		return err
	}

	saved := fromAccountModel(model)
	record.Id = saved.Id
	record.Version = saved.Version
	record.LastUpdatedAt = saved.LastUpdatedAt
	return nil
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*accountModel, error) {
	res := &accountModel{}

	query := `SELECT ` + allColumns + ` FROM ` + accountTableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrNotFound)
	}
	return res, nil
}

func dbGetMultiple(ctx context.Context, db *sqlx.DB, addresses []string) ([]*accountModel, error) {
	res := []*accountModel{}
	if len(addresses) == 0 {
		return res, nil
	}

	query, args, err := sqlx.In(`SELECT `+allColumns+` FROM `+accountTableName+`
		WHERE address IN (?)`, addresses)
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	err = db.SelectContext(ctx, &res, db.Rebind(query), args...)
	if err != nil && !pgutil.IsNoRows(err) {
		return nil, err
	}
	return res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*accountModel, error) {
	res := []*accountModel{}

	query := `SELECT ` + allColumns + ` FROM ` + accountTableName + `
		WHERE (owner = $1)
	`

	opts := []interface{}{owner}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrNotFound)
	}

	if len(res) == 0 {
		return nil, ledger.ErrNotFound
	}

	return res, nil
}

func dbCountByOwner(ctx context.Context, db *sqlx.DB, owner string) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + accountTableName + ` WHERE owner = $1`
	err := db.GetContext(ctx, &res, query, owner)
	if err != nil {
		return 0, err
	}

	return res, nil
}
