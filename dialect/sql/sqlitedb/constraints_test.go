package sqlitedb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	welsql "github.com/weliteorg/welite/dialect/sql"
)

func TestForeignKeyConstraintIsClassified(t *testing.T) {
	e, err := Open(":memory:", ForeignKeys(true))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	ctx := context.Background()

	_, err = e.db.ExecContext(ctx, `CREATE TABLE parents (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = e.db.ExecContext(ctx, `CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parents(id))`)
	require.NoError(t, err)

	_, err = e.ExecuteInsert(ctx, "INSERT INTO children (parent_id) VALUES (?)",
		[]welsql.PersistentTypeAny{welsql.Long}, []any{int64(999)})
	require.Error(t, err)
	require.True(t, IsForeignKeyConstraintError(err))
	require.True(t, IsConstraintError(err))
	require.False(t, IsUniqueConstraintError(err))
}

func TestCheckConstraintIsClassified(t *testing.T) {
	e, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	ctx := context.Background()

	_, err = e.db.ExecContext(ctx, `CREATE TABLE t (age INTEGER CHECK (age >= 0))`)
	require.NoError(t, err)

	_, err = e.ExecuteInsert(ctx, "INSERT INTO t (age) VALUES (?)",
		[]welsql.PersistentTypeAny{welsql.Long}, []any{int64(-1)})
	require.Error(t, err)
	require.True(t, IsCheckConstraintError(err))
	require.True(t, IsConstraintError(err))
}

func TestNotNullConstraintIsClassified(t *testing.T) {
	e, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	ctx := context.Background()

	_, err = e.db.ExecContext(ctx, `CREATE TABLE t (name TEXT NOT NULL)`)
	require.NoError(t, err)

	_, err = e.ExecuteInsert(ctx, "INSERT INTO t (name) VALUES (?)",
		[]welsql.PersistentTypeAny{welsql.NullableType(welsql.String)}, []any{nil})
	require.Error(t, err)
	require.True(t, IsNotNullConstraintError(err))
	require.True(t, IsConstraintError(err))
}

func TestIsConstraintErrorFalseForNilAndUnrelatedErrors(t *testing.T) {
	require.False(t, IsConstraintError(nil))
	require.False(t, IsUniqueConstraintError(nil))
}
