// Package storex holds the small shared storage helpers the postgres
// repositories are built on: a transaction runner and translation of driver
// errors into the errx taxonomy.
package storex

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/konnected/identity/pkg/errx"
)

// uniqueViolation is the postgres error code for unique-constraint violations.
const uniqueViolation = "23505"

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx. Repositories
// run against it so the same queries work inside and outside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// RunInTx executes fn inside a transaction, committing on nil and rolling
// back on error or panic.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit transaction", errx.TypeInternal)
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. Two concurrent writers racing on the same key are expected, so
// callers treat this as a recoverable conflict, not a bug.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// UniqueConstraint returns the name of the violated unique constraint, or
// "" when err is not a unique violation.
func UniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

// IsNoRows reports whether err is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
