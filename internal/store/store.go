package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx
type Querier = sqlx.ExtContext

// forUpdate adds a row lock on drivers that have one. SQLite connections are opened
// with _txlock=immediate so the transaction already holds the write lock.
func forUpdate(q Querier, query string) string {
	if q.DriverName() == "postgres" {
		return query + " FOR UPDATE"
	}
	return query
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, bracket.ErrNotFound)
	}
	return err
}

func checkAffectedRows(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
