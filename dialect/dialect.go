package dialect

import "context"

// ExecQuerier wraps the two operations every statement execution needs:
// running a mutating statement and running a row-producing one. Both
// Driver and Tx satisfy it.
type ExecQuerier interface {
	// Exec executes a query that doesn't return rows. v, if non-nil, must
	// be a *sql.Result-shaped destination for the driver to populate.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows. v, if non-nil, is the
	// destination the rows are decoded into (a pointer to a struct, a
	// scalar, or a slice of either).
	Query(ctx context.Context, query string, args, v any) error
}

// Tx describes an in-flight SQLite transaction.
type Tx interface {
	ExecQuerier
	// Commit commits the transaction.
	Commit() error
	// Rollback aborts the transaction.
	Rollback() error
}

// Driver is the SqliteEngine capability WeLite depends on but does not
// define: compile/bind/step/execute plus begin/end and pragma execution,
// expressed at the database/sql granularity this module builds on.
type Driver interface {
	ExecQuerier
	// Tx starts a transaction using the driver's default options.
	Tx(ctx context.Context) (Tx, error)
	// Close releases the underlying connection(s).
	Close() error
	// Dialect reports the dialect tag; always SQLite for this module.
	Dialect() string
}
