package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/weliteorg/welite/dialect"
)

// validPragmaNameRe validates a PRAGMA name before it is interpolated
// into a statement (PRAGMA does not accept bound parameters in SQLite).
var validPragmaNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Driver is a dialect.Driver implementation wrapping database/sql over a
// SQLite connection pool (spec.md §6, "dialect.Driver — assumed
// capability, concretely satisfied here").
type Driver struct {
	Conn
}

// NewDriver wraps an existing database/sql handle as a dialect.Driver.
func NewDriver(c Conn) *Driver { return &Driver{Conn: c} }

// Open opens a SQLite database at source using the registered driverName
// (e.g. modernc.org/sqlite's "sqlite").
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(Conn{ExecQuerier: db}), nil
}

// OpenDB wraps an already-open *sql.DB as a Driver.
func OpenDB(db *sql.DB) *Driver { return NewDriver(Conn{ExecQuerier: db}) }

// DB returns the underlying *sql.DB, panicking if this Driver does not
// wrap one directly (e.g. it wraps a *sql.Tx instead).
func (d Driver) DB() *sql.DB { return d.ExecQuerier.(*sql.DB) }

// Dialect always reports SQLite: this module targets no other engine
// (spec.md §1, Non-goals).
func (d Driver) Dialect() string { return dialect.SQLite }

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: Conn{ExecQuerier: tx}}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx over a *sql.Tx.
type Tx struct {
	Conn
}

func (t *Tx) Commit() error   { return t.ExecQuerier.(*sql.Tx).Commit() }
func (t *Tx) Rollback() error { return t.ExecQuerier.(*sql.Tx).Rollback() }

// ctxVarsKey is the key used for attaching and reading context PRAGMAs.
type ctxVarsKey struct{}

type sessionVars struct {
	vars []struct{ name, value string }
}

// WithPragma returns a new context that applies `PRAGMA name = value`
// before every statement executed through it, the SQLite analogue of the
// teacher's session-variable mechanism (per-connection state like
// `foreign_keys` or `busy_timeout` that must be set on the exact
// connection a later statement runs on).
func WithPragma(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars, struct{ name, value string }{name, value})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// PragmaFromContext returns a previously attached pragma value, if any.
func PragmaFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for _, s := range sv.vars {
		if s.name == name {
			return s.value, true
		}
	}
	return "", false
}

// rawExecQuerier is the subset of database/sql's *sql.DB/*sql.Tx/*sql.Conn
// this package drives directly.
type rawExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier over a database/sql handle.
type Conn struct {
	ExecQuerier rawExecQuerier
}

// Exec implements dialect.ExecQuerier.Exec. v, if non-nil, must be
// *sql.Result.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if args != nil && !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.mayApplyPragmas(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: apply pragmas: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	res, err := ex.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if r, ok := v.(*sql.Result); ok {
		*r = res
	}
	return nil
}

// Query implements dialect.ExecQuerier.Query, decoding rows into v via
// ScanRows.
func (c Conn) Query(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if args != nil && !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.mayApplyPragmas(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: apply pragmas: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	if v == nil {
		return rows.Close()
	}
	return ScanRows(rows, v)
}

// mayApplyPragmas checks out a dedicated *sql.Conn (when this Conn wraps
// a pool, not an already-pinned *sql.Tx) and applies any context-attached
// PRAGMA statements to it before handing it back, so they take effect on
// the exact connection the caller's statement will run on.
func (c Conn) mayApplyPragmas(ctx context.Context) (rawExecQuerier, func() error, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(sv.vars) == 0 {
		return c.ExecQuerier, nil, nil
	}
	var (
		ex rawExecQuerier
		cf func() error
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("dialect/sql: unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	for _, s := range sv.vars {
		if !validPragmaNameRe.MatchString(s.name) {
			if cf != nil {
				_ = cf()
			}
			return nil, nil, fmt.Errorf("dialect/sql: invalid pragma name: %q", s.name)
		}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", s.name, s.value)); err != nil {
			if cf != nil {
				err = errors.Join(err, cf())
			}
			return nil, nil, err
		}
	}
	return ex, cf, nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullBool is an alias to sql.NullBool.
	NullBool = sql.NullBool
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullFloat64 is an alias to sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime represents a time.Time that may be null.
	NullTime = sql.NullTime
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)
