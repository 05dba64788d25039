package database

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

// PostgreSQL SQLSTATE codes the core distinguishes.
const (
	PgErrNumericOutOfRange    = "22003" // numeric_value_out_of_range
	PgErrForeignKeyViolation  = "23503" // foreign_key_violation
	PgErrUniqueViolation      = "23505" // unique_violation
	PgErrCheckViolation       = "23514" // check_violation
	PgErrNotNullViolation     = "23502" // not_null_violation
	PgErrSerializationFailure = "40001" // serialization_failure
	PgErrDeadlockDetected     = "40P01" // deadlock_detected
	PgErrAdminShutdown        = "57P01" // admin_shutdown
	PgErrCrashShutdown        = "57P02" // crash_shutdown
	PgErrCannotConnectNow     = "57P03" // cannot_connect_now
)

// ClassifyError attaches the matching apperrors sentinel to a storage error so
// callers can branch with errors.Is. Errors that already carry a sentinel, and
// errors with no storage meaning, are returned unchanged.
//
// A foreign key violation is treated as a write naming a missing parent.
// Deletes classify with ClassifyDeleteError instead.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == PgErrForeignKeyViolation:
			return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
		case pgErr.Code == PgErrCheckViolation, pgErr.Code == PgErrNotNullViolation,
			pgErr.Code == PgErrNumericOutOfRange:
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		case pgErr.Code == PgErrUniqueViolation,
			pgErr.Code == PgErrSerializationFailure,
			pgErr.Code == PgErrDeadlockDetected:
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == PgErrAdminShutdown, pgErr.Code == PgErrCrashShutdown, pgErr.Code == PgErrCannotConnectNow:
			return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) ||
		errors.Is(err, pgxpool.ErrClosedPool) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	return err
}

// ClassifyDeleteError classifies an error from a DELETE. A foreign key
// violation there means rows still reference the deleted ones, which is a
// conflict rather than a missing parent.
func ClassifyDeleteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrForeignKeyViolation {
		return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
	}
	return ClassifyError(err)
}
