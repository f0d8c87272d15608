package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	welsql "github.com/weliteorg/welite/dialect/sql"
	"github.com/weliteorg/welite/welerr"
)

// PragmaOption configures a PRAGMA applied immediately after Open, before
// the engine is returned to the caller.
type PragmaOption struct {
	Name  string
	Value string
}

// ForeignKeys toggles PRAGMA foreign_keys, off by default in SQLite.
func ForeignKeys(on bool) PragmaOption {
	v := "OFF"
	if on {
		v = "ON"
	}
	return PragmaOption{Name: "foreign_keys", Value: v}
}

// JournalMode sets PRAGMA journal_mode, e.g. "WAL".
func JournalMode(mode string) PragmaOption { return PragmaOption{Name: "journal_mode", Value: mode} }

// Synchronous sets PRAGMA synchronous, e.g. "NORMAL".
func Synchronous(mode string) PragmaOption { return PragmaOption{Name: "synchronous", Value: mode} }

// BusyTimeoutMillis sets PRAGMA busy_timeout.
func BusyTimeoutMillis(ms int) PragmaOption {
	return PragmaOption{Name: "busy_timeout", Value: fmt.Sprintf("%d", ms)}
}

// Engine is the concrete SqliteEngine capability (spec.md §6) this module
// ships: a modernc.org/sqlite connection pool fronted by a statement
// cache, giving dialect/sql/schema and the transaction kernel the
// compile/bind/step/execute primitives spec.md assumes but does not
// itself define.
type Engine struct {
	db    *sql.DB
	cache *Cache
}

// Open opens source (a file path, or ":memory:") through modernc.org/sqlite
// and applies pragmas in order before returning. A ":memory:" source is
// served by a single pooled connection.
func Open(source string, pragmas ...PragmaOption) (*Engine, error) {
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, welerr.NewEngineError("open", err)
	}
	if source == ":memory:" {
		// Every connection to ":memory:" opens its own empty database, so
		// the pool is held to one connection that all callers share.
		db.SetMaxOpenConns(1)
	}
	e := &Engine{db: db, cache: NewCache(db)}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA %s = %s", p.Name, p.Value)); err != nil {
			_ = db.Close()
			return nil, welerr.NewEngineError("pragma "+p.Name, err)
		}
	}
	return e, nil
}

// DB returns the underlying *sql.DB for use by dialect/sql.OpenDB, so a
// caller wanting both the cached Engine and the plain dialect.Driver view
// of the same connection pool can have both without opening the database
// twice.
func (e *Engine) DB() *sql.DB { return e.db }

// Close finalises every cached statement then closes the connection
// pool, matching spec.md §4.1's "the cache releases all handles when the
// database closes".
func (e *Engine) Close() error {
	cacheErr := e.cache.Close()
	dbErr := e.db.Close()
	if cacheErr != nil {
		return cacheErr
	}
	return dbErr
}

// ExecuteInsert compiles (or reuses) sqlText, binds values positionally
// against types, executes it, and returns the inserted rowid (spec.md
// §4.8 "executeInsert() → rowId").
func (e *Engine) ExecuteInsert(ctx context.Context, sqlText string, types []welsql.PersistentTypeAny, values []any) (int64, error) {
	args, err := bindArgs(types, values)
	if err != nil {
		return 0, err
	}
	compiled, err := e.cache.GetOrCompile(ctx, sqlText, types)
	if err != nil {
		return 0, err
	}
	res, err := compiled.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, welerr.NewEngineError("insert", err)
	}
	return res.LastInsertId()
}

// ExecuteUpdateDelete compiles (or reuses) sqlText, binds values
// positionally against types, executes it, and returns the number of
// rows changed (spec.md §4.8 "executeUpdateDelete() → rowsChanged").
func (e *Engine) ExecuteUpdateDelete(ctx context.Context, sqlText string, types []welsql.PersistentTypeAny, values []any) (int64, error) {
	args, err := bindArgs(types, values)
	if err != nil {
		return 0, err
	}
	compiled, err := e.cache.GetOrCompile(ctx, sqlText, types)
	if err != nil {
		return 0, err
	}
	res, err := compiled.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, welerr.NewEngineError("exec", err)
	}
	return res.RowsAffected()
}

// Query runs sqlText through the statement cache and decodes the result
// into dest via welsql.ScanRows, for read paths that go through the
// cache rather than a bare *sql.DB.
func (e *Engine) Query(ctx context.Context, sqlText string, types []welsql.PersistentTypeAny, values []any, dest any) error {
	args, err := bindArgs(types, values)
	if err != nil {
		return err
	}
	compiled, err := e.cache.GetOrCompile(ctx, sqlText, types)
	if err != nil {
		return err
	}
	rows, err := compiled.stmt.QueryContext(ctx, args...)
	if err != nil {
		return welerr.NewEngineError("query", err)
	}
	if dest == nil {
		return rows.Close()
	}
	return welsql.ScanRows(rows, dest)
}

// Cache exposes the statement cache for callers needing cache.Len() in
// tests asserting "compiles exactly once".
func (e *Engine) Cache() *Cache { return e.cache }
