// Package schema declares the DDL-side model (tables, views, triggers,
// indices), their dependency ordering, and the migration/introspection
// operations that run against a live database (spec.md §4.7).
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/weliteorg/welite/dialect"
	welsql "github.com/weliteorg/welite/dialect/sql"
	"github.com/weliteorg/welite/welerr"
)

// ColumnDecl is the DDL-facing view of a declared column: enough to emit
// its fragment of CREATE TABLE without the compile-time type parameter,
// since a Table holds heterogeneous Column[T]s in one slice.
type ColumnDecl struct {
	Name         string
	Affinity     welsql.Affinity
	Nullable     bool
	PrimaryKey   bool
	Unique       bool
	Collation    string
	DefaultLit   string
	HasDefault   bool
	References   *ForeignKeyDecl
}

// ForeignKeyDecl is a column's REFERENCES target, DDL-side.
type ForeignKeyDecl struct {
	Column   string
	RefTable string
	RefCol   string
	OnUpdate welsql.ForeignKeyAction
	OnDelete welsql.ForeignKeyAction
}

// Table is a declared base relation: its column list, composite primary
// key (if any), and indices.
type Table struct {
	Name        string
	Columns     []ColumnDecl
	CompositePK []string
	Indices     []*Index
}

// NewTable declares an empty table named name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column declaration built from a welsql.Column[T], for
// use by callers building a Table from typed column values:
//
//	t := schema.NewTable("users")
//	schema.AddColumn(t, sql.NewColumn("id", sql.Long).PrimaryKey())
func AddColumn[T any](t *Table, c welsql.Column[T]) *Table {
	decl := ColumnDecl{
		Name:       c.Name().Name(),
		Affinity:   c.PersistentType().SQLType(),
		Nullable:   c.PersistentType().Nullable(),
		PrimaryKey: c.IsPrimaryKey(),
		Unique:     c.IsUnique(),
	}
	if def, ok := c.DefaultValue(); ok {
		lit, err := c.PersistentType().ValueToString(def, true)
		if err == nil {
			decl.DefaultLit = lit
			decl.HasDefault = true
		}
	}
	if fk, ok := c.ForeignKey(); ok {
		decl.References = &ForeignKeyDecl{
			Column:   decl.Name,
			RefTable: fk.Table.Name(),
			RefCol:   fk.Column.Name(),
			OnUpdate: fk.OnUpdate,
			OnDelete: fk.OnDelete,
		}
	}
	t.Columns = append(t.Columns, decl)
	return t
}

// WithCompositePrimaryKey declares a table-level composite PRIMARY KEY.
func (t *Table) WithCompositePrimaryKey(cols ...string) *Table {
	t.CompositePK = append([]string{}, cols...)
	return t
}

// WithIndex attaches an index declaration.
func (t *Table) WithIndex(idx *Index) *Table {
	t.Indices = append(t.Indices, idx)
	return t
}

// columnDDL renders the column and table-level-constraint fragments described
// in spec.md §4.7.
func (t *Table) columnDDL(c ColumnDecl) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%q %s", c.Name, c.Affinity)
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if c.PrimaryKey && len(t.CompositePK) == 0 {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.Unique {
		sb.WriteString(" UNIQUE")
	}
	if c.Collation != "" {
		fmt.Fprintf(&sb, " COLLATE %s", c.Collation)
	}
	if c.HasDefault {
		fmt.Fprintf(&sb, " DEFAULT %s", c.DefaultLit)
	}
	return sb.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateSQL renders CREATE TABLE IF NOT EXISTS and any attached indices,
// in execution order. temporary requests a TEMP table (spec.md §4.7,
// "both create(temporary=true) and create(temporary=false)").
func (t *Table) CreateSQL(temporary bool) []string {
	var sb strings.Builder
	sb.WriteString("CREATE ")
	if temporary {
		sb.WriteString("TEMP ")
	}
	fmt.Fprintf(&sb, "TABLE IF NOT EXISTS %s (", quoteIdent(t.Name))

	parts := make([]string, 0, len(t.Columns)+len(t.Columns)+1)
	for _, c := range t.Columns {
		parts = append(parts, t.columnDDL(c))
	}
	if len(t.CompositePK) > 0 {
		quoted := make([]string, len(t.CompositePK))
		for i, c := range t.CompositePK {
			quoted[i] = quoteIdent(c)
		}
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)",
			quoteIdent("pk_"+t.Name), strings.Join(quoted, ", ")))
	}
	for _, c := range t.Columns {
		if c.References == nil {
			continue
		}
		fk := c.References
		constraint := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
			quoteIdent(fmt.Sprintf("fk_%s_%s_%s", t.Name, fk.Column, fk.RefCol)),
			quoteIdent(fk.Column), quoteIdent(fk.RefTable), quoteIdent(fk.RefCol))
		if fk.OnUpdate != "" {
			constraint += " ON UPDATE " + string(fk.OnUpdate)
		}
		if fk.OnDelete != "" {
			constraint += " ON DELETE " + string(fk.OnDelete)
		}
		parts = append(parts, constraint)
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(")")

	stmts := []string{sb.String()}
	for _, idx := range t.Indices {
		stmts = append(stmts, idx.CreateSQL(t.Name))
	}
	return stmts
}

// Exists reports whether t has a matching row in sqlite_master
// (spec.md §4.7, "Creatable.exists").
func (t *Table) Exists(ctx context.Context, q dialect.ExecQuerier) (bool, error) {
	return objectExists(ctx, q, "table", t.Name)
}

func wrapEngineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return welerr.NewEngineError(op, err)
}
