package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	welsql "github.com/weliteorg/welite/dialect/sql"
	_ "modernc.org/sqlite"

	"github.com/weliteorg/welite/welerr"
)

func TestFindMigrationPathSameVersionIsNoop(t *testing.T) {
	path, err := FindMigrationPath(nil, 3, 3, true)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindMigrationPathSingleHop(t *testing.T) {
	migrations := []Migration{{FromVersion: 1, ToVersion: 2}}
	path, err := FindMigrationPath(migrations, 1, 2, true)
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, 2, path[0].ToVersion)
}

func TestFindMigrationPathMultiHop(t *testing.T) {
	migrations := []Migration{
		{FromVersion: 1, ToVersion: 2},
		{FromVersion: 2, ToVersion: 3},
	}
	path, err := FindMigrationPath(migrations, 1, 3, true)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, 2, path[0].ToVersion)
	assert.Equal(t, 3, path[1].ToVersion)
}

func TestFindMigrationPathPrefersFewerHops(t *testing.T) {
	migrations := []Migration{
		{FromVersion: 1, ToVersion: 2},
		{FromVersion: 2, ToVersion: 3},
		{FromVersion: 1, ToVersion: 3},
	}
	path, err := FindMigrationPath(migrations, 1, 3, true)
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, 3, path[0].ToVersion)
}

func TestFindMigrationPathMissingRequiredFails(t *testing.T) {
	_, err := FindMigrationPath(nil, 1, 2, true)
	require.Error(t, err)
	assert.True(t, welerr.IsMigrationMissing(err))
}

func TestFindMigrationPathMissingOptionalReturnsNil(t *testing.T) {
	path, err := FindMigrationPath(nil, 1, 2, false)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestNewRecreateIDIsUnique(t *testing.T) {
	a := NewRecreateID()
	b := NewRecreateID()
	assert.NotEqual(t, a, b)
}

func TestRecreateRebuildsDeclaredSchema(t *testing.T) {
	ctx := context.Background()
	driver, err := welsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer driver.Close()

	users := NewTable("users")
	AddColumn(users, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	for _, stmt := range users.CreateSQL(false) {
		require.NoError(t, driver.Exec(ctx, stmt, nil, nil))
	}
	require.NoError(t, driver.Exec(ctx, "INSERT INTO users (id) VALUES (1)", nil, nil))

	err = Recreate(ctx, driver, []*Table{users}, nil, nil, "3.40.0")
	require.NoError(t, err)

	exists, err := users.Exists(ctx, driver)
	require.NoError(t, err)
	assert.True(t, exists)

	var count int64
	require.NoError(t, driver.Query(ctx, "SELECT COUNT(*) FROM users", nil, &count))
	assert.Equal(t, int64(0), count, "Recreate drops and recreates tables, losing their rows")
}
