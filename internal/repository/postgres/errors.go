package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"ridehail/internal/repository"
)

// SQLSTATE codes the store reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// sqlState extracts the SQLSTATE from errors of either supported driver.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify maps retryable driver errors onto repository.ErrConflict.
func classify(err error) error {
	if err == nil || errors.Is(err, repository.ErrConflict) {
		return err
	}
	switch sqlState(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	return err
}

// mapWriteError turns unique violations into repository.ErrDuplicate.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if sqlState(err) == codeUniqueViolation {
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}
