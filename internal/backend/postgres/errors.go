package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"todo/internal/service"
)

// PostgreSQL error codes
const (
	uniqueViolationCode  = "23505"
	checkViolationCode   = "23514"
	notNullViolationCode = "23502"
	undefinedTableCode   = "42P01"
)

// MapError maps a database error to a service error, wrapping the original.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", service.ErrLocalNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("duplicate task (%s): %w", pgErr.ConstraintName, err)
		case checkViolationCode, notNullViolationCode:
			return fmt.Errorf("invalid task (%s%s): %w", pgErr.ConstraintName, pgErr.ColumnName, err)
		case undefinedTableCode:
			return fmt.Errorf("tasks table missing, migrations not applied: %w", err)
		}
	}

	return err
}
