// Package dialect defines the capability boundary WeLite depends on but
// does not implement: a SQLite engine binding.
//
// WeLite is SQLite-only (see the module's Non-goals), so this package does
// not carry the multi-dialect abstraction a general SQL toolkit would. It
// exists so the rest of the module (the AST, the query/statement builders,
// the schema lifecycle, and the transaction kernel) can be written and
// tested against a narrow interface instead of a concrete driver, and so a
// test double (e.g. go-sqlmock) can stand in for a real *sql.DB.
//
// # Driver Interface
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # ExecQuerier Interface
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
package dialect

// SQLite is the only dialect tag this module emits or accepts; it is the
// value Driver.Dialect reports.
const SQLite = "sqlite3"
