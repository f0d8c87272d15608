package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	welsql "github.com/weliteorg/welite/dialect/sql"
)

func simpleTable(name string) *Table {
	t := NewTable(name)
	AddColumn(t, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	return t
}

func TestValidateTableNoPrimaryKeyWarns(t *testing.T) {
	tbl := NewTable("orphans")
	AddColumn(tbl, welsql.NewColumn("name", welsql.String))
	result := ValidateTable(tbl)
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidateTableCompositePrimaryKeySuppressesWarning(t *testing.T) {
	tbl := NewTable("memberships")
	AddColumn(tbl, welsql.NewColumn("org_id", welsql.Long))
	AddColumn(tbl, welsql.NewColumn("user_id", welsql.Long))
	tbl.WithCompositePrimaryKey("org_id", "user_id")
	result := ValidateTable(tbl)
	assert.False(t, result.HasWarnings())
}

func TestValidateTableDuplicateColumnIsError(t *testing.T) {
	tbl := NewTable("dupes")
	AddColumn(tbl, welsql.NewColumn("id", welsql.Long).PrimaryKey())
	AddColumn(tbl, welsql.NewColumn("id", welsql.Long))
	result := ValidateTable(tbl)
	assert.True(t, result.HasErrors())
}

func TestValidateTableIndexOnMissingColumnIsError(t *testing.T) {
	tbl := simpleTable("users")
	tbl.WithIndex(NewIndex("", false, "missing_col"))
	result := ValidateTable(tbl)
	assert.True(t, result.HasErrors())
}

func TestValidateTableForeignKeyToMissingColumnIsError(t *testing.T) {
	tbl := simpleTable("posts")
	AddColumn(tbl, welsql.NewColumn("author_id", welsql.Long).
		References("users", "missing_col", welsql.NoAction, welsql.NoAction))
	result := ValidateTable(tbl)
	assert.True(t, result.HasErrors())
}

func TestValidateSchemaDuplicateTableNameIsError(t *testing.T) {
	result := ValidateSchema([]*Table{simpleTable("users"), simpleTable("users")})
	assert.True(t, result.HasErrors())
}

func TestValidateSchemaMissingReferencedTableIsError(t *testing.T) {
	posts := simpleTable("posts")
	AddColumn(posts, welsql.NewColumn("author_id", welsql.Long).
		References("users", "id", welsql.NoAction, welsql.NoAction))
	result := ValidateSchema([]*Table{posts})
	assert.True(t, result.HasErrors())
}

func TestValidateSchemaCyclicDependencyIsError(t *testing.T) {
	a := simpleTable("a")
	AddColumn(a, welsql.NewColumn("b_id", welsql.Long).References("b", "id", welsql.NoAction, welsql.NoAction))
	b := simpleTable("b")
	AddColumn(b, welsql.NewColumn("a_id", welsql.Long).References("a", "id", welsql.NoAction, welsql.NoAction))

	result := ValidateSchema([]*Table{a, b})
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())
}

func TestValidateSchemaCleanSchemaHasNoIssues(t *testing.T) {
	users := simpleTable("users")
	posts := simpleTable("posts")
	AddColumn(posts, welsql.NewColumn("author_id", welsql.Long).
		References("users", "id", welsql.NoAction, welsql.NoAction))

	result := ValidateSchema([]*Table{users, posts})
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())
	assert.Equal(t, "No issues found", result.String())
}

func TestValidateDiffDroppedTableIsErrorUnlessAllowed(t *testing.T) {
	current := []*Table{simpleTable("users"), simpleTable("legacy")}
	desired := []*Table{simpleTable("users")}

	result := ValidateDiff(current, desired)
	assert.True(t, result.HasErrors())

	result = ValidateDiff(current, desired, AllowDropTable())
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidateDiffDroppedColumnIsErrorUnlessAllowed(t *testing.T) {
	current := simpleTable("users")
	AddColumn(current, welsql.NewColumn("nickname", welsql.String))
	desired := simpleTable("users")

	result := ValidateDiff([]*Table{current}, []*Table{desired})
	assert.True(t, result.HasErrors())

	result = ValidateDiff([]*Table{current}, []*Table{desired}, AllowDropColumn())
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidateDiffNullToNotNullIsErrorUnlessAllowed(t *testing.T) {
	current := simpleTable("users")
	nullableName := welsql.NewColumn("name", welsql.NullableType(welsql.String))
	AddColumn(current, nullableName)

	desired := simpleTable("users")
	AddColumn(desired, welsql.NewColumn("name", welsql.String))

	result := ValidateDiff([]*Table{current}, []*Table{desired})
	assert.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())

	result = ValidateDiff([]*Table{current}, []*Table{desired}, AllowNullToNotNull())
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidateDiffNewNotNullColumnWithoutDefaultWarns(t *testing.T) {
	current := simpleTable("users")
	desired := simpleTable("users")
	AddColumn(desired, welsql.NewColumn("name", welsql.String))

	result := ValidateDiff([]*Table{current}, []*Table{desired})
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidateDiffDroppedIndexIsErrorUnlessAllowed(t *testing.T) {
	current := simpleTable("users")
	AddColumn(current, welsql.NewColumn("email", welsql.String))
	current.WithIndex(NewIndex("", false, "email"))
	desired := simpleTable("users")
	AddColumn(desired, welsql.NewColumn("email", welsql.String))

	result := ValidateDiff([]*Table{current}, []*Table{desired})
	assert.True(t, result.HasErrors())

	result = ValidateDiff([]*Table{current}, []*Table{desired}, AllowDropIndex())
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
}

func TestValidationErrorStringIncludesColumn(t *testing.T) {
	err := &ValidationError{Table: "users", Column: "email", Message: "bad thing"}
	assert.Equal(t, "users.email: bad thing", err.Error())
}

func TestValidationErrorStringWithoutColumn(t *testing.T) {
	err := &ValidationError{Table: "users", Message: "bad thing"}
	assert.Equal(t, "users: bad thing", err.Error())
}
