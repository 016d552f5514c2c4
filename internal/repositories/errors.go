package repositories

import (
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the requesting user. Handlers map both cases to 404 so non-owners
	// never learn whether a record exists.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError wraps unexpected driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique
	// constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx, letting repository writes
// participate in transactions (sale recording touches both the sales and
// inventory tables atomically).
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}
