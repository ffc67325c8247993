package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRuleName is returned when a rule name is already taken.
	ErrDuplicateRuleName = errors.New("rule name already exists")

	// ErrLastDefaultRule is returned when a change would leave no active
	// standard ALL_PRODUCTS rule.
	ErrLastDefaultRule = errors.New("cannot remove the last default pricing rule")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
