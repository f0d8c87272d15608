package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	welsql "github.com/weliteorg/welite/dialect/sql"
	_ "modernc.org/sqlite"
)

func openMemoryDriverWithUsers(t *testing.T) *welsql.Driver {
	t.Helper()
	driver, err := welsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	users := NewTable("users")
	AddColumn(users, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	for _, stmt := range users.CreateSQL(false) {
		require.NoError(t, driver.Exec(context.Background(), stmt, nil, nil))
	}
	return driver
}

func TestIntegrityCheckReportsOkOnFreshDatabase(t *testing.T) {
	driver := openMemoryDriverWithUsers(t)
	lines, err := IntegrityCheck(context.Background(), driver, 100)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "ok", lines[0])
}

func TestListObjectsFindsCreatedTable(t *testing.T) {
	driver := openMemoryDriverWithUsers(t)
	objs, err := ListObjects(context.Background(), driver)
	require.NoError(t, err)

	var found bool
	for _, o := range objs {
		if o.Type == "table" && o.Name == "users" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTableExistsReflectsCreation(t *testing.T) {
	driver := openMemoryDriverWithUsers(t)
	users := NewTable("users")
	exists, err := users.Exists(context.Background(), driver)
	require.NoError(t, err)
	assert.True(t, exists)

	ghost := NewTable("ghost")
	exists, err = ghost.Exists(context.Background(), driver)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestForeignKeyListReflectsDeclaredReferences(t *testing.T) {
	driver, err := welsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer driver.Close()
	ctx := context.Background()

	users := NewTable("users")
	AddColumn(users, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	for _, stmt := range users.CreateSQL(false) {
		require.NoError(t, driver.Exec(ctx, stmt, nil, nil))
	}

	posts := NewTable("posts")
	AddColumn(posts, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	AddColumn(posts, welsql.NewColumn("author_id", welsql.Long).
		References("users", "id", welsql.NoAction, welsql.NoAction))
	for _, stmt := range posts.CreateSQL(false) {
		require.NoError(t, driver.Exec(ctx, stmt, nil, nil))
	}

	fks, err := ForeignKeyList(ctx, driver, "posts")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "users", fks[0].Table)
	assert.Equal(t, "author_id", fks[0].From)
}
