package sqlitedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	welsql "github.com/weliteorg/welite/dialect/sql"
)

func TestBindArgsDispatchesThroughPersistentType(t *testing.T) {
	args, err := bindArgs(
		[]welsql.PersistentTypeAny{welsql.Long, welsql.String, welsql.Bool},
		[]any{int64(7), "ada", true},
	)
	require.NoError(t, err)
	require.Equal(t, []any{int64(7), "ada", int64(1)}, args)
}

func TestBindArgsRejectsTypeMismatch(t *testing.T) {
	_, err := bindArgs([]welsql.PersistentTypeAny{welsql.Long}, []any{"not a long"})
	require.Error(t, err)
}

func TestBindArgsAcceptsNullableNil(t *testing.T) {
	args, err := bindArgs([]welsql.PersistentTypeAny{welsql.NullableType(welsql.String)}, []any{nil})
	require.NoError(t, err)
	require.Equal(t, []any{nil}, args)
}

func TestStmtBinderOutOfBoundsOnEveryBindMethod(t *testing.T) {
	b := newBinder(1)
	assert.Error(t, b.BindNull(5))
	assert.Error(t, b.BindLong(5, 1))
	assert.Error(t, b.BindDouble(5, 1))
	assert.Error(t, b.BindString(5, "x"))
	assert.Error(t, b.BindBlob(5, nil))
	assert.Error(t, b.BindLong(-1, 1))
}

func TestStmtBinderSetDispatchesThroughPersistentType(t *testing.T) {
	b := newBinder(1)
	require.NoError(t, b.Set(0, welsql.String, "ada"))
	assert.Equal(t, "ada", b.args[0])
}
