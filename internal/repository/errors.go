package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeLockNotAvailable    = "55P03"
	codeQueryCanceled       = "57014"
)

// mapError translates driver errors into the domain taxonomy. Errors that
// already carry a domain sentinel pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Detail)
		case codeForeignKeyViolation, codeCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
		case codeLockNotAvailable, codeDeadlock, codeSerialization, codeQueryCanceled:
			return fmt.Errorf("%w: %w", domain.ErrContentionTimeout, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrContentionTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}
