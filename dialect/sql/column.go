package sql

// Column is a typed reference to a table/view/alias column: both an
// Expression[T] (so it can appear inside larger expressions) and the
// declaration record a schema Table uses to emit its DDL (spec.md §4.1,
// §4.4).
type Column[T any] struct {
	typed[T]
	name       Identity
	owner      Identity
	pt         PersistentType[T]
	primaryKey bool
	unique     bool
	defaultVal *T
	references *ForeignKeyRef[T]
}

// ForeignKeyRef records a column's REFERENCES target for DDL emission and
// for schema/dependency.go's topological sort.
type ForeignKeyRef[T any] struct {
	Table  Identity
	Column Identity
	OnDelete ForeignKeyAction
	OnUpdate ForeignKeyAction
}

// ForeignKeyAction is one of SQLite's ON DELETE/ON UPDATE actions.
type ForeignKeyAction string

const (
	NoAction   ForeignKeyAction = ""
	Cascade    ForeignKeyAction = "CASCADE"
	SetNull    ForeignKeyAction = "SET NULL"
	SetDefault ForeignKeyAction = "SET DEFAULT"
	Restrict   ForeignKeyAction = "RESTRICT"
)

// NewColumn declares a column named name with persistent type pt. It is
// unowned until a Table/View/Alias binds it via Bind.
func NewColumn[T any](name string, pt PersistentType[T]) Column[T] {
	return Column[T]{name: NewIdentity(name), pt: pt}
}

// Bind returns a copy of c scoped to owner (a table/alias name), used when
// a ColumnSet exposes its declared columns (spec.md §4.4, "Table.column
// returns a bound Column").
func (c Column[T]) Bind(owner Identity) Column[T] {
	c.owner = owner
	return c
}

// PrimaryKey marks the column as (part of) the table's primary key.
func (c Column[T]) PrimaryKey() Column[T] {
	c.primaryKey = true
	return c
}

// Unique marks the column with a UNIQUE constraint.
func (c Column[T]) Unique() Column[T] {
	c.unique = true
	return c
}

// Default sets the column's DEFAULT value.
func (c Column[T]) Default(v T) Column[T] {
	c.defaultVal = &v
	return c
}

// References sets the column's REFERENCES target.
func (c Column[T]) References(table, column string, onDelete, onUpdate ForeignKeyAction) Column[T] {
	c.references = &ForeignKeyRef[T]{
		Table:    NewIdentity(table),
		Column:   NewIdentity(column),
		OnDelete: onDelete,
		OnUpdate: onUpdate,
	}
	return c
}

// Name returns the column's bare (unqualified) identity.
func (c Column[T]) Name() Identity { return c.name }

// Owner returns the table/alias identity this column is bound to, or a
// zero Identity if unbound.
func (c Column[T]) Owner() Identity { return c.owner }

// PersistentType returns the column's declared persistent type.
func (c Column[T]) PersistentType() PersistentType[T] { return c.pt }

// IsPrimaryKey reports whether PrimaryKey() was set.
func (c Column[T]) IsPrimaryKey() bool { return c.primaryKey }

// IsUnique reports whether Unique() was set.
func (c Column[T]) IsUnique() bool { return c.unique }

// DefaultValue returns the column's declared DEFAULT, if any.
func (c Column[T]) DefaultValue() (T, bool) {
	if c.defaultVal == nil {
		var zero T
		return zero, false
	}
	return *c.defaultVal, true
}

// ForeignKey returns the column's REFERENCES target, if any.
func (c Column[T]) ForeignKey() (*ForeignKeyRef[T], bool) {
	return c.references, c.references != nil
}

func (c Column[T]) appendTo(b *SqlBuilder) {
	if c.owner.Name() != "" {
		b.AppendIdentity(c.owner).Append(".")
	}
	b.AppendIdentity(c.name)
}

// ---- Column-as-predicate convenience methods, mirroring the teacher's
// generic Field[P] surface but returning this package's own Predicate
// directly rather than a generated predicate.Func wrapper. ----

func (c Column[T]) EQ(v T) Predicate        { return Eq[T](c, Literal(c.pt, v)) }
func (c Column[T]) NEQ(v T) Predicate       { return Neq[T](c, Literal(c.pt, v)) }
func (c Column[T]) LT(v T) Predicate        { return Less[T](c, Literal(c.pt, v)) }
func (c Column[T]) LTE(v T) Predicate       { return LessEq[T](c, Literal(c.pt, v)) }
func (c Column[T]) GT(v T) Predicate        { return Greater[T](c, Literal(c.pt, v)) }
func (c Column[T]) GTE(v T) Predicate       { return GreaterEq[T](c, Literal(c.pt, v)) }
func (c Column[T]) IsNull() Predicate       { return IsNull(c) }
func (c Column[T]) NotNull() Predicate      { return IsNotNull(c) }

// In returns c IN (vs...), collapsing per inListOp's empty/singleton rules.
func (c Column[T]) In(vs ...T) Predicate {
	lits := make([]Expression[T], len(vs))
	for i, v := range vs {
		lits[i] = Literal(c.pt, v)
	}
	return In(c, lits...)
}

// NotIn returns c NOT IN (vs...).
func (c Column[T]) NotIn(vs ...T) Predicate {
	lits := make([]Expression[T], len(vs))
	for i, v := range vs {
		lits[i] = Literal(c.pt, v)
	}
	return NotIn(c, lits...)
}

// Between returns c BETWEEN from AND to.
func (c Column[T]) Between(from, to T) Predicate {
	return Between[T](c, Literal(c.pt, from), Literal(c.pt, to))
}

// EQCol returns c = other (a column-to-column comparison, e.g. a JOIN
// condition), as opposed to EQ which compares against a literal value.
func (c Column[T]) EQCol(other Column[T]) Predicate { return Eq[T](c, other) }
