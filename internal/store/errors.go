package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"absensi/internal/apperr"
)

const pgUniqueViolation = "23505"

// Translate maps driver errors onto the apperr store sentinels, keeping the cause.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", apperr.ErrNoRows, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", apperr.ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}
