package sql

// ColumnSet is anything a query can select FROM or JOIN: a base Table, a
// derived Alias, a Join, or a View. A CompoundSelect is not itself a
// ColumnSet; it is selected from through SubqueryAs (spec.md §4.4, "ColumnSet —
// the common capability of everything that can sit in a FROM clause").
type ColumnSet interface {
	// alias is the name this source is addressed by in a FROM/JOIN clause
	// and in any column qualifier (the table's own name, or an explicit
	// alias set via As).
	alias() Identity
	// appendSource renders this source's FROM-clause fragment (its own
	// name/subquery plus any JOIN chain already attached).
	appendSource(b *SqlBuilder)
}

// ---- Table ----

// Table is a base relation: either a schema-declared table (created via
// schema.Table) or a bare reference to an existing one built with
// NewTable for use in query construction alone.
type Table struct {
	name Identity
}

// NewTable returns a ColumnSet referencing an existing table by name.
func NewTable(name string) *Table { return &Table{name: NewIdentity(name)} }

func (t *Table) alias() Identity { return t.name }

func (t *Table) appendSource(b *SqlBuilder) { b.AppendIdentity(t.name) }

// Join attaches a table by name to this source via INNER/LEFT JOIN ...
// ON cond, returning a new ColumnSet representing the combined source.
func (t *Table) Join(other ColumnSet, on Predicate) ColumnSet {
	return &joinSet{left: t, right: other, kind: "JOIN", on: on}
}

// LeftJoin is Join with LEFT JOIN.
func (t *Table) LeftJoin(other ColumnSet, on Predicate) ColumnSet {
	return &joinSet{left: t, right: other, kind: "LEFT JOIN", on: on}
}

// ---- Join ----

type joinSet struct {
	left, right ColumnSet
	kind        string
	on          Predicate
}

func (j *joinSet) alias() Identity { return j.left.alias() }

func (j *joinSet) appendSource(b *SqlBuilder) {
	j.left.appendSource(b)
	b.Append(" ").Append(j.kind).Append(" ")
	j.right.appendSource(b)
	b.Append(" ON ")
	j.on.appendTo(b)
}

// Join chains another join off the combined source.
func (j *joinSet) Join(other ColumnSet, on Predicate) ColumnSet {
	return &joinSet{left: j, right: other, kind: "JOIN", on: on}
}

// LeftJoin chains a LEFT JOIN off the combined source.
func (j *joinSet) LeftJoin(other ColumnSet, on Predicate) ColumnSet {
	return &joinSet{left: j, right: other, kind: "LEFT JOIN", on: on}
}

// ---- Alias ----

// Alias is a derived ColumnSet bound to a new name: either a renamed base
// table/view or a subquery's result set (spec.md §4.4, "derived table
// aliasing").
type Alias struct {
	name   Identity
	source ColumnSet
	sub    Subquery
}

// AliasTable renames source under alias (a bare "FROM table AS alias").
func AliasTable(source ColumnSet, alias string) *Alias {
	return &Alias{name: NewIdentity(alias), source: source}
}

// SubqueryAs binds a subquery's rendered seed under alias (a "FROM (SELECT
// ...) AS alias" derived table).
func SubqueryAs(sub Subquery, alias string) *Alias {
	return &Alias{name: NewIdentity(alias), sub: sub}
}

func (a *Alias) alias() Identity { return a.name }

func (a *Alias) appendSource(b *SqlBuilder) {
	if a.sub != nil {
		seed, err := a.sub.seed()
		if err != nil {
			b.SetError(err)
			return
		}
		b.Append("(").Append(seed.SQL).Append(") ").AppendIdentity(a.name)
		b.types = append(b.types, seed.Types...)
		return
	}
	a.source.appendSource(b)
	b.Append(" ").AppendIdentity(a.name)
}

// Join attaches a table to this aliased source.
func (a *Alias) Join(other ColumnSet, on Predicate) ColumnSet {
	return &joinSet{left: a, right: other, kind: "JOIN", on: on}
}

// LeftJoin attaches a table to this aliased source via LEFT JOIN.
func (a *Alias) LeftJoin(other ColumnSet, on Predicate) ColumnSet {
	return &joinSet{left: a, right: other, kind: "LEFT JOIN", on: on}
}

// ---- CompoundSelect ----

// SetOperator is one of SQLite's compound-select connectors.
type SetOperator string

const (
	Union        SetOperator = "UNION"
	UnionAll     SetOperator = "UNION ALL"
	Intersect    SetOperator = "INTERSECT"
	SetExcept    SetOperator = "EXCEPT"
)

// CompoundSelect chains two subqueries with a set operator, producing a
// single combined result set (spec.md §4.4).
type CompoundSelect struct {
	op          SetOperator
	left, right Subquery
}

// Compound returns left <op> right.
func Compound(op SetOperator, left, right Subquery) *CompoundSelect {
	return &CompoundSelect{op: op, left: left, right: right}
}

func (c *CompoundSelect) seed() (QuerySeed, error) {
	leftSeed, err := c.left.seed()
	if err != nil {
		return QuerySeed{}, err
	}
	rightSeed, err := c.right.seed()
	if err != nil {
		return QuerySeed{}, err
	}
	sql := leftSeed.SQL + " " + string(c.op) + " " + rightSeed.SQL
	types := append(append([]PersistentTypeAny{}, leftSeed.Types...), rightSeed.Types...)
	return QuerySeed{SQL: sql, Types: types, Fields: leftSeed.Fields}, nil
}

// ---- View ----

// View is a named, queryable ColumnSet backed by a CREATE VIEW definition
// (the schema layer owns the DDL; this is the query-side handle used when
// SELECTing from the view).
type View struct {
	name Identity
}

// NewView returns a ColumnSet referencing an existing view by name.
func NewView(name string) *View { return &View{name: NewIdentity(name)} }

func (v *View) alias() Identity { return v.name }

func (v *View) appendSource(b *SqlBuilder) { b.AppendIdentity(v.name) }
