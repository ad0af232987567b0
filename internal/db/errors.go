package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by conditional updates whose WHERE predicate
// matched no row: the operation is inapplicable (wrong owner, wrong status,
// missing id), as opposed to a transport failure.
var ErrNotFound = errors.New("not found")

// ErrInvalidAmounts is returned when a balance write would violate
// 0 <= reserved <= total.
var ErrInvalidAmounts = errors.New("reserved must be between zero and total")

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The users.email constraint is the backstop for the signup
// check-then-insert race, so callers translate this into a conflict.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
