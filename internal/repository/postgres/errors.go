package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/vkn-server/internal/model"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// isRetryable reports whether err is a conflict with a concurrent transaction.
// Unique violations are included: a concurrent insert raced past the existence checks.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return true
	}
	return false
}

// classify marks retryable errors with model.ErrTxConflict and keeps the cause.
func classify(err error) error {
	if isRetryable(err) {
		return fmt.Errorf("%w: %w", model.ErrTxConflict, err)
	}
	return err
}
