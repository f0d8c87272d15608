package welite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weliteorg/welite/dialect"
	welsql "github.com/weliteorg/welite/dialect/sql"
	"github.com/weliteorg/welite/dialect/sql/schema"
	"github.com/weliteorg/welite/welerr"
)

func usersTable() *schema.Table {
	t := schema.NewTable("users")
	schema.AddColumn(t, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	schema.AddColumn(t, welsql.NewColumn("name", welsql.String))
	return t
}

func usersSchema() Schema {
	return Schema{Tables: []*schema.Table{usersTable()}}
}

func TestOpenCreatesFreshDatabase(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, ":memory:", usersSchema(), WithForeignKeys(true), WithVersion(1))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "Opened", db.State())

	err = db.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ada"}, nil)
	})
	require.NoError(t, err)
}

func TestOpenRunsLifecycleCallbacksInOrder(t *testing.T) {
	ctx := context.Background()
	var calls []string

	db, err := Open(ctx, ":memory:", usersSchema(),
		WithVersion(1),
		OnConfigure(func(ctx context.Context, db *Database) error {
			calls = append(calls, "configure")
			return nil
		}),
		OnCreate(func(ctx context.Context, db *Database) error {
			calls = append(calls, "create")
			return nil
		}),
		OnOpen(func(ctx context.Context, db *Database) error {
			calls = append(calls, "open")
			return nil
		}),
	)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, []string{"configure", "create", "open"}, calls)
}

func TestOpenSkipsOnCreateOnSecondOpen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/skip-create.db"

	createCount := 0
	db1, err := Open(ctx, path, usersSchema(), WithVersion(1),
		OnCreate(func(ctx context.Context, db *Database) error {
			createCount++
			return nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, createCount)
	require.NoError(t, db1.Close())

	db2, err := Open(ctx, path, usersSchema(), WithVersion(1),
		OnCreate(func(ctx context.Context, db *Database) error {
			createCount++
			return nil
		}),
	)
	require.NoError(t, err)
	defer db2.Close()
	assert.Equal(t, 1, createCount, "onCreate must not re-run once the schema already exists")
	assert.Equal(t, "Migrated", db2.State())
}

func TestOpenFindsMigrationPathAndRecreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/migrate.db"

	db1, err := Open(ctx, path, usersSchema(), WithVersion(1))
	require.NoError(t, err)
	err = db1.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ada"}, nil)
	})
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	migrations := []schema.Migration{{FromVersion: 1, ToVersion: 2, Describe: "add index"}}
	db2, err := Open(ctx, path, usersSchema(), WithVersion(2, migrations...))
	require.NoError(t, err)
	defer db2.Close()

	assert.Equal(t, "Migrated", db2.State())

	// The migration path was declared, so Open must have run the full
	// drop/recreate sequence: the table exists again (freshly created by
	// Recreate) but the row inserted before the migration is gone.
	var count int64
	err = db2.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Query(ctx, "SELECT COUNT(*) FROM users", nil, &count)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "Recreate drops and rebuilds every table from the declared schema")
}

func TestOpenMissingMigrationPathFails(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/missing-migration.db"

	db1, err := Open(ctx, path, usersSchema(), WithVersion(1))
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	_, err = Open(ctx, path, usersSchema(), WithVersion(5))
	require.Error(t, err)
	assert.True(t, welerr.IsMigrationMissing(err))
}

func TestOpenOptionalMigrationWithNoPathLeavesDataIntact(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/optional-migration.db"

	db1, err := Open(ctx, path, usersSchema(), WithVersion(1))
	require.NoError(t, err)
	err = db1.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ada"}, nil)
	})
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := Open(ctx, path, usersSchema(), WithVersion(5), WithOptionalMigration())
	require.NoError(t, err)
	defer db2.Close()

	assert.Equal(t, "Migrated", db2.State())

	var count int64
	err = db2.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Query(ctx, "SELECT COUNT(*) FROM users", nil, &count)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "no migration path was found, so the schema and its data were left untouched")
}

func TestOpenOnCorruptionCallback(t *testing.T) {
	ctx := context.Background()

	var gotMessages []string
	db, err := Open(ctx, ":memory:", usersSchema(), WithVersion(1),
		OnCorruption(func(ctx context.Context, db *Database, messages []string) {
			gotMessages = messages
		}),
	)
	require.NoError(t, err)
	defer db.Close()
	assert.Empty(t, gotMessages, "a freshly created in-memory database should pass its integrity check")
}

func TestDatabaseTransactionCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", usersSchema(), WithVersion(1))
	require.NoError(t, err)
	defer db.Close()

	err = db.Transaction(ctx, false, func(ctx context.Context, tx *Transaction) error {
		if err := tx.ExecQuerier().Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ada"}, nil); err != nil {
			return err
		}
		return tx.SetSuccessful()
	})
	require.NoError(t, err)

	var count int64
	err = db.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Query(ctx, "SELECT COUNT(*) FROM users", nil, &count)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDatabaseTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", usersSchema(), WithVersion(1))
	require.NoError(t, err)
	defer db.Close()

	boom := assert.AnError
	err = db.Transaction(ctx, false, func(ctx context.Context, tx *Transaction) error {
		if err := tx.ExecQuerier().Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ada"}, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	err = db.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Query(ctx, "SELECT COUNT(*) FROM users", nil, &count)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDatabaseTransactionUncommittedIsUnmarked(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", usersSchema(), WithVersion(1))
	require.NoError(t, err)
	defer db.Close()

	err = db.Transaction(ctx, false, func(ctx context.Context, tx *Transaction) error {
		return nil
	})
	require.Error(t, err)
	assert.True(t, welerr.IsUnmarkedTransaction(err))
}

func TestDatabaseNestedTransactionReusesOuterHandle(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", usersSchema(), WithVersion(1))
	require.NoError(t, err)
	defer db.Close()

	err = db.Transaction(ctx, false, func(ctx context.Context, outer *Transaction) error {
		if err := outer.ExecQuerier().Exec(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ada"}, nil); err != nil {
			return err
		}
		// Marking the nested handle successful marks the outer one too,
		// since a nested call reuses the exact same *Transaction rather
		// than opening a second underlying transaction.
		return db.Transaction(ctx, false, func(ctx context.Context, inner *Transaction) error {
			assert.Same(t, outer, inner, "a nested Transaction call must reuse the outer handle")
			return inner.SetSuccessful()
		})
	})
	require.NoError(t, err)

	var count int64
	err = db.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return q.Query(ctx, "SELECT COUNT(*) FROM users", nil, &count)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDatabaseQueryAndTransactionReentrancyGuard(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:", usersSchema(), WithVersion(1))
	require.NoError(t, err)
	defer db.Close()

	err = db.Query(ctx, func(ctx context.Context, q dialect.ExecQuerier) error {
		return db.Query(ctx, func(ctx context.Context, q2 dialect.ExecQuerier) error {
			return nil
		})
	})
	require.Error(t, err)
	assert.True(t, welerr.IsWrongThread(err))
}
