package welite

import (
	"context"

	"github.com/weliteorg/welite/dialect/sql/schema"
)

// JournalMode is one of SQLite's journal modes (spec.md §6 configuration
// table).
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"
	JournalTruncate JournalMode = "TRUNCATE"
	JournalPersist  JournalMode = "PERSIST"
	JournalMemory   JournalMode = "MEMORY"
	JournalWAL      JournalMode = "WAL"
	JournalOff      JournalMode = "OFF"
)

// SynchronousMode is one of SQLite's synchronous levels.
type SynchronousMode string

const (
	SyncOff    SynchronousMode = "OFF"
	SyncNormal SynchronousMode = "NORMAL"
	SyncFull   SynchronousMode = "FULL"
	SyncExtra  SynchronousMode = "EXTRA"
)

// LookasideSlot configures SQLite's lookaside memory allocator, passed to
// the engine when supported (spec.md §6).
type LookasideSlot struct {
	Size  int
	Count int
}

// OnConfigureFunc runs once, immediately after the engine is opened and
// the pragmas configured via Options (foreign keys, journal mode,
// synchronous mode) have been applied, and before the schema is created
// or migrated and before onCreate/onOpen.
type OnConfigureFunc func(ctx context.Context, db *Database) error

// OnCreateFunc runs right after Open has created the declared tables
// (with their indices), views and triggers, which Open does when the
// database's PRAGMA user_version is 0.
type OnCreateFunc func(ctx context.Context, db *Database) error

// OnOpenFunc runs every time the database transitions into Opened,
// after onCreate or migration has settled the schema.
type OnOpenFunc func(ctx context.Context, db *Database) error

// OnCorruptionFunc runs if an integrity check performed during open
// reports corruption, in place of failing open outright.
type OnCorruptionFunc func(ctx context.Context, db *Database, messages []string)

// config collects every Option into the values Database.Open consults.
type config struct {
	foreignKeys           *bool
	journalMode           *JournalMode
	synchronousMode       *SynchronousMode
	lookaside             *LookasideSlot
	allowWorkOnDispatcher bool
	dispatcherPoolSize    int
	version               int
	migrations            []schema.Migration
	requireMigration      bool
	onConfigure           OnConfigureFunc
	onCreate              OnCreateFunc
	onOpen                OnOpenFunc
	onCorruption          OnCorruptionFunc
}

func defaultConfig() *config {
	return &config{dispatcherPoolSize: 1, requireMigration: true}
}

// Option configures a Database at Open time.
type Option func(*config)

// WithForeignKeys sets PRAGMA foreign_keys at open (spec.md §6
// "enableForeignKeyConstraints").
func WithForeignKeys(on bool) Option {
	return func(c *config) { c.foreignKeys = &on }
}

// WithJournalMode sets the journal mode at open.
func WithJournalMode(mode JournalMode) Option {
	return func(c *config) { c.journalMode = &mode }
}

// WithSynchronous sets the synchronous mode at open.
func WithSynchronous(mode SynchronousMode) Option {
	return func(c *config) { c.synchronousMode = &mode }
}

// WithLookaside records a lookaside-buffer configuration. Open does not
// pass it to the engine, which has no PRAGMA for it (see buildPragmas).
func WithLookaside(slot LookasideSlot) Option {
	return func(c *config) { c.lookaside = &slot }
}

// WithDispatcherPoolSize sets how many goroutines the DB dispatcher runs
// (spec.md §5, "typically a single-threaded pool"). Default 1.
func WithDispatcherPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.dispatcherPoolSize = n
		}
	}
}

// AllowWorkOnDispatcherThread relaxes the reentrancy assertion that
// normally fires ErrWrongThread when Transaction/Query is called from
// code already running on the dispatcher (spec.md §6
// "allowWorkOnUiThread").
func AllowWorkOnDispatcherThread() Option {
	return func(c *config) { c.allowWorkOnDispatcher = true }
}

// WithVersion declares the schema version this open call targets, used
// to select a migration path from the current on-disk version.
func WithVersion(version int, migrations ...schema.Migration) Option {
	return func(c *config) {
		c.version = version
		c.migrations = migrations
	}
}

// WithOptionalMigration allows opening at a version with no discoverable
// migration path from the current on-disk version, leaving the schema
// as-is rather than failing (spec.md §4.7's `findMigrationPath(..., required)`).
func WithOptionalMigration() Option {
	return func(c *config) { c.requireMigration = false }
}

// OnConfigure registers the onConfigure lifecycle callback.
func OnConfigure(f OnConfigureFunc) Option { return func(c *config) { c.onConfigure = f } }

// OnCreate registers the onCreate lifecycle callback.
func OnCreate(f OnCreateFunc) Option { return func(c *config) { c.onCreate = f } }

// OnOpen registers the onOpen lifecycle callback.
func OnOpen(f OnOpenFunc) Option { return func(c *config) { c.onOpen = f } }

// OnCorruption registers the onCorruption lifecycle callback.
func OnCorruption(f OnCorruptionFunc) Option { return func(c *config) { c.onCorruption = f } }
