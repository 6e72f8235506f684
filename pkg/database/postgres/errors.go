package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// Code returns the SQLSTATE of the postgres error wrapped by err, or an empty
// string when err didn't come from the server
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsNoRows(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	return Code(err) == pgerrcode.UniqueViolation
}

// IsSerializationFailure reports whether a serializable transaction lost a
// conflict with a concurrent one. The transaction can be retried from the
// start.
func IsSerializationFailure(err error) bool {
	return Code(err) == pgerrcode.SerializationFailure
}

// CheckNoRows replaces sql.ErrNoRows with replacement
func CheckNoRows(err, replacement error) error {
	if IsNoRows(err) {
		return replacement
	}
	return err
}

// CheckUniqueViolation replaces unique constraint violations with replacement
func CheckUniqueViolation(err, replacement error) error {
	if IsUniqueViolation(err) {
		return replacement
	}
	return err
}
