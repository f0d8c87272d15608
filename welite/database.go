package welite

import (
	"context"
	"fmt"
	"log/slog"

	welsql "github.com/weliteorg/welite/dialect/sql"

	"github.com/weliteorg/welite/dialect"
	"github.com/weliteorg/welite/dialect/sql/schema"
	"github.com/weliteorg/welite/dialect/sql/sqlitedb"
	"github.com/weliteorg/welite/welerr"
)

// sqlDriverOver wraps engine's *sql.DB as a dialect.Driver, so DDL/
// PRAGMA/integrity-check calls made through db.driver share the exact
// connection pool the statement cache prepares against.
func sqlDriverOver(engine *sqlitedb.Engine) dialect.Driver {
	return welsql.OpenDB(engine.DB())
}

// dbState is one of Opening, Configured, Created, Migrated, Opened, or
// Closed (spec.md §4.9).
type dbState int

const (
	dbOpening dbState = iota
	dbConfigured
	dbCreated
	dbMigrated
	dbOpened
	dbClosed
)

// Creatable is anything the schema layer can emit DDL for and that
// Database.Open can create in dependency order: tables, views, and
// triggers (spec.md §4.7).
type Creatable interface {
	CreateSQL() ([]string, error)
}

// tableCreatable adapts schema.Table's CreateSQL(temporary bool) []string
// to the Creatable contract Database consumes.
type tableCreatable struct{ t *schema.Table }

func (c tableCreatable) CreateSQL() ([]string, error) { return c.t.CreateSQL(false), nil }

// viewCreatable adapts a schema.View.
type viewCreatable struct {
	v             *schema.View
	engineVersion string
}

func (c viewCreatable) CreateSQL() ([]string, error) {
	return []string{c.v.CreateSQL(c.engineVersion)}, nil
}

// triggerCreatable adapts a schema.Trigger.
type triggerCreatable struct{ t *schema.Trigger }

func (c triggerCreatable) CreateSQL() ([]string, error) {
	sql, err := c.t.CreateSQL()
	if err != nil {
		return nil, err
	}
	return []string{sql}, nil
}

// Schema is the full declared schema Open creates fresh (dependency-
// sorted) on first run and, on a version mismatch, drops and recreates
// in full via schema.Recreate (spec.md §4.7).
type Schema struct {
	Tables   []*schema.Table
	Views    []*schema.View
	Triggers []*schema.Trigger
}

// creatablesFor adapts an already dependency-sorted table list plus
// views/triggers into the uniform Creatable contract db.create consumes,
// in an order that respects tables existing before the views/triggers
// that reference them.
func creatablesFor(tables []*schema.Table, views []*schema.View, triggers []*schema.Trigger, engineVersion string) []Creatable {
	out := make([]Creatable, 0, len(tables)+len(views)+len(triggers))
	for _, t := range tables {
		out = append(out, tableCreatable{t: t})
	}
	for _, v := range views {
		out = append(out, viewCreatable{v: v, engineVersion: engineVersion})
	}
	for _, trg := range triggers {
		out = append(out, triggerCreatable{t: trg})
	}
	return out
}

// Database is the top-level handle: database lifecycle (spec.md §4.9)
// plus the dispatcher all reads and writes are required to go through
// (spec.md §5).
type Database struct {
	cfg        *config
	engine     *sqlitedb.Engine
	driver     dialect.Driver
	dispatcher *Dispatcher
	state      dbState
}

// Open opens source (a file path or ":memory:"), runs the configure/
// create-or-migrate/open lifecycle, and returns a ready Database.
func Open(ctx context.Context, source string, sch Schema, opts ...Option) (*Database, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	pragmas := buildPragmas(cfg)
	engine, err := sqlitedb.Open(source, pragmas...)
	if err != nil {
		return nil, err
	}

	db := &Database{
		cfg:        cfg,
		engine:     engine,
		driver:     sqlDriverOver(engine),
		dispatcher: NewDispatcher(cfg.dispatcherPoolSize),
		state:      dbOpening,
	}

	if cfg.onConfigure != nil {
		if err := cfg.onConfigure(ctx, db); err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("welite: onConfigure: %w", err)
		}
	}
	db.state = dbConfigured

	orderedTables, err := schema.TableDependencies(sch.Tables)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	engineVersion, err := db.sqliteVersion(ctx)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	creatables := creatablesFor(orderedTables, sch.Views, sch.Triggers, engineVersion)

	currentVersion, err := db.userVersion(ctx)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}

	switch {
	case currentVersion == 0 && cfg.version != 0:
		if err := db.create(ctx, creatables); err != nil {
			_ = engine.Close()
			return nil, err
		}
		if err := db.setUserVersion(ctx, cfg.version); err != nil {
			_ = engine.Close()
			return nil, err
		}
		db.state = dbCreated
	case currentVersion != 0 && cfg.version != 0 && currentVersion != cfg.version:
		path, err := schema.FindMigrationPath(cfg.migrations, currentVersion, cfg.version, cfg.requireMigration)
		if err != nil {
			_ = engine.Close()
			return nil, err
		}
		// A nil path means no migration was declared and requireMigration
		// was relaxed (WithOptionalMigration): leave the schema and its
		// data exactly as they are, only advance the version pointer.
		if path != nil {
			for _, step := range path {
				slog.InfoContext(ctx, "applying migration", "from", step.FromVersion, "to", step.ToVersion, "describe", step.Describe)
			}
			if err := schema.Recreate(ctx, db.driver, orderedTables, sch.Views, sch.Triggers, engineVersion); err != nil {
				_ = engine.Close()
				return nil, err
			}
		}
		if err := db.setUserVersion(ctx, cfg.version); err != nil {
			_ = engine.Close()
			return nil, err
		}
		db.state = dbMigrated
	case currentVersion == 0 && cfg.version == 0:
		if err := db.create(ctx, creatables); err != nil {
			_ = engine.Close()
			return nil, err
		}
		db.state = dbCreated
	default:
		db.state = dbMigrated
	}

	if cfg.onCreate != nil && db.state == dbCreated {
		if err := cfg.onCreate(ctx, db); err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("welite: onCreate: %w", err)
		}
	}

	if messages, err := schema.IntegrityCheck(ctx, db.driver, 100); err != nil {
		_ = engine.Close()
		return nil, err
	} else if !(len(messages) == 1 && messages[0] == "ok") {
		if cfg.onCorruption != nil {
			cfg.onCorruption(ctx, db, messages)
		} else {
			_ = engine.Close()
			return nil, welerr.NewEngineError("integrity_check", fmt.Errorf("corruption detected: %v", messages))
		}
	}

	if cfg.onOpen != nil {
		if err := cfg.onOpen(ctx, db); err != nil {
			_ = engine.Close()
			return nil, fmt.Errorf("welite: onOpen: %w", err)
		}
	}
	db.state = dbOpened
	return db, nil
}

func (db *Database) create(ctx context.Context, creatables []Creatable) error {
	for _, c := range creatables {
		stmts, err := c.CreateSQL()
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if err := db.driver.Exec(ctx, stmt, nil, nil); err != nil {
				return welerr.NewEngineError("create", err)
			}
		}
	}
	return nil
}

// sqliteVersion reports the connected engine's SQLite version string, used
// both to gate View.CreateSQL's column-alias syntax and to pass through to
// schema.Recreate during a migration.
func (db *Database) sqliteVersion(ctx context.Context) (string, error) {
	var v string
	if err := db.driver.Query(ctx, "SELECT sqlite_version()", nil, &v); err != nil {
		return "", welerr.NewEngineError("sqlite_version", err)
	}
	return v, nil
}

func (db *Database) userVersion(ctx context.Context) (int, error) {
	var v int64
	if err := db.driver.Query(ctx, "PRAGMA user_version", nil, &v); err != nil {
		return 0, welerr.NewEngineError("user_version", err)
	}
	return int(v), nil
}

func (db *Database) setUserVersion(ctx context.Context, version int) error {
	if err := db.driver.Exec(ctx, fmt.Sprintf("PRAGMA user_version = %d", version), nil, nil); err != nil {
		return welerr.NewEngineError("set user_version", err)
	}
	return nil
}

// Close finalises the statement cache, closes the connection pool, and
// stops the dispatcher.
func (db *Database) Close() error {
	db.dispatcher.Close()
	db.state = dbClosed
	return db.engine.Close()
}

// State reports the database's current lifecycle state, exposed mainly
// for tests.
func (db *Database) State() string {
	switch db.state {
	case dbOpening:
		return "Opening"
	case dbConfigured:
		return "Configured"
	case dbCreated:
		return "Created"
	case dbMigrated:
		return "Migrated"
	case dbOpened:
		return "Opened"
	default:
		return "Closed"
	}
}

// Driver returns the dialect.Driver view of this database's connection
// pool, e.g. to hand to schema introspection helpers.
func (db *Database) Driver() dialect.Driver { return db.driver }

// Engine returns the underlying statement-cache-fronted SqliteEngine.
func (db *Database) Engine() *sqlitedb.Engine { return db.engine }

// Transaction switches onto the DB dispatcher (spec.md §5), begins a
// transaction with the requested locking discipline (non-exclusive =
// BEGIN IMMEDIATE, exclusive = BEGIN EXCLUSIVE; spec.md §4.9), and runs
// fn. If fn returns without calling tx.SetSuccessful, the transaction
// rolls back. If ctx is already inside a Transaction closure, the outer
// transaction's handle is reused and exclusive is ignored (spec.md §4.9
// "Nested ongoingTransaction reuses the outer transaction's handle").
func (db *Database) Transaction(ctx context.Context, exclusive bool, fn func(ctx context.Context, tx *Transaction) error) error {
	// A nested call is already running inside a dispatched closure and
	// only reuses the outer transaction's handle (see runTransaction) — it
	// does not need, and must not trigger, the reentrancy assertion a
	// fresh dispatch would apply.
	if _, ok := ctx.Value(txCtxKey{}).(*Transaction); ok {
		return db.runTransaction(ctx, exclusive, fn)
	}
	_, err := db.dispatcher.Dispatch(ctx, db.cfg.allowWorkOnDispatcher, func(dctx context.Context) (any, error) {
		return nil, db.runTransaction(dctx, exclusive, fn)
	})
	return err
}

// Query switches onto the DB dispatcher like Transaction, but never
// starts an underlying SQLite transaction: it is for read paths that
// only need dispatcher serialisation, not atomicity across statements.
func (db *Database) Query(ctx context.Context, fn func(ctx context.Context, q dialect.ExecQuerier) error) error {
	_, err := db.dispatcher.Dispatch(ctx, db.cfg.allowWorkOnDispatcher, func(dctx context.Context) (any, error) {
		return nil, fn(dctx, db.driver)
	})
	return err
}

func (db *Database) runTransaction(ctx context.Context, exclusive bool, fn func(context.Context, *Transaction) error) (rerr error) {
	if outer, ok := ctx.Value(txCtxKey{}).(*Transaction); ok {
		return fn(ctx, outer)
	}

	conn, err := db.engine.DB().Conn(ctx)
	if err != nil {
		return welerr.NewEngineError("begin", err)
	}
	begin := "BEGIN IMMEDIATE"
	if exclusive {
		begin = "BEGIN EXCLUSIVE"
	}
	if _, err := conn.ExecContext(ctx, begin); err != nil {
		_ = conn.Close()
		return welerr.NewEngineError("begin", err)
	}

	tx := &Transaction{
		db:        db,
		ctx:       ctx,
		tx:        &rawTx{Conn: welsql.Conn{ExecQuerier: conn}, conn: conn},
		exclusive: exclusive,
		state:     txActive,
	}
	nestedCtx := context.WithValue(ctx, txCtxKey{}, tx)

	var workErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				workErr = welerr.NewUncaughtError("transaction", fmt.Errorf("panic: %v", r))
			}
		}()
		workErr = fn(nestedCtx, tx)
	}()
	if workErr != nil {
		_ = tx.Rollback()
	}

	closeErr := tx.close(true)
	_ = conn.Close()
	if workErr != nil {
		return workErr
	}
	return closeErr
}

// buildPragmas translates the open-time Options into PRAGMA statements.
// WithLookaside is intentionally not translated here: SQLite's lookaside
// allocator is configured through sqlite3_config/sqlite3_db_config, a
// C API modernc.org/sqlite does not expose through database/sql, so
// there is no PRAGMA equivalent to emit.
func buildPragmas(cfg *config) []sqlitedb.PragmaOption {
	var pragmas []sqlitedb.PragmaOption
	if cfg.foreignKeys != nil {
		pragmas = append(pragmas, sqlitedb.ForeignKeys(*cfg.foreignKeys))
	}
	if cfg.journalMode != nil {
		pragmas = append(pragmas, sqlitedb.JournalMode(string(*cfg.journalMode)))
	}
	if cfg.synchronousMode != nil {
		pragmas = append(pragmas, sqlitedb.Synchronous(string(*cfg.synchronousMode)))
	}
	return pragmas
}
