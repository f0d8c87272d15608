package sql

import "github.com/weliteorg/welite/welerr"

// ConflictPolicy is one of SQLite's INSERT OR <policy> conflict
// resolutions (spec.md §4.6).
type ConflictPolicy string

const (
	ConflictAbort   ConflictPolicy = "ABORT"
	ConflictFail    ConflictPolicy = "FAIL"
	ConflictIgnore  ConflictPolicy = "IGNORE"
	ConflictReplace ConflictPolicy = "REPLACE"
	ConflictRollback ConflictPolicy = "ROLLBACK"
)

// ColumnValues is an ordered, type-checked (column, value-expression) list
// shared by Insert and Update (spec.md §4.6, "ColumnValues — the common
// column/value payload of INSERT and UPDATE").
type ColumnValues struct {
	cols []AnyExpression
	vals []AnyExpression
	err  error
}

// NewColumnValues returns an empty ColumnValues builder.
func NewColumnValues() *ColumnValues { return &ColumnValues{} }

// Err returns the first error recorded against cv, e.g. a duplicate column
// rejected by Set. Seed() on the builders that consume a ColumnValues
// surface this before attempting to render.
func (cv *ColumnValues) Err() error { return cv.err }

// namedColumn is the subset of Column[T]'s method set Set needs to detect a
// repeat entry for the same column without depending on T.
type namedColumn interface {
	Name() Identity
	Owner() Identity
}

// Set registers column = value. The value may be a Literal, a
// BindPlaceholder, a DefaultValueMarker, or any other Expression[T]
// producing expression. A second Set call for the same column is rejected
// with a DuplicateColumnError: ColumnValues holds at most one entry per
// column (spec.md:65).
func Set[T any](cv *ColumnValues, col Column[T], value Expression[T]) *ColumnValues {
	if cv.err != nil {
		return cv
	}
	for _, existing := range cv.cols {
		if nc, ok := existing.(namedColumn); ok && nc.Name().Equal(col.Name()) && nc.Owner().Equal(col.Owner()) {
			cv.err = welerr.NewDuplicateColumnError(col.Name().Name())
			return cv
		}
	}
	cv.cols = append(cv.cols, col)
	cv.vals = append(cv.vals, value)
	return cv
}

// SetValue is Set's shorthand for binding a plain Go value through col's
// own persistent type.
func SetValue[T any](cv *ColumnValues, col Column[T], v T) *ColumnValues {
	return Set(cv, col, Literal(col.PersistentType(), v))
}

// SetBind is Set's shorthand for a `?` placeholder bound to col's type.
func SetBind[T any](cv *ColumnValues, col Column[T]) *ColumnValues {
	return Set(cv, col, BindPlaceholder(col.PersistentType()))
}

// SetDefault is Set's shorthand for assigning col's declared DEFAULT (or
// NULL, if col has none) via a DefaultValueMarker.
func SetDefault[T any](cv *ColumnValues, col Column[T]) *ColumnValues {
	return Set(cv, col, DefaultValueMarker(col))
}

func (cv *ColumnValues) columnNames(b *SqlBuilder) {
	AppendEach(b, cv.cols, ", ", "(", ")", func(b *SqlBuilder, e AnyExpression) { e.appendTo(b) })
}

func (cv *ColumnValues) valueList(b *SqlBuilder) {
	AppendEach(b, cv.vals, ", ", "(", ")", func(b *SqlBuilder, e AnyExpression) { e.appendTo(b) })
}

// ---- DefaultValueMarker ----

// defaultValueMarker is a value-expression placeholder for "leave this
// column at its declared default" (spec.md:180), distinct from a Literal
// carrying the default spelled out by the caller: it defers to whatever
// the column's own Default() declares, re-resolving it at render time.
type defaultValueMarker[T any] struct {
	typed[T]
	col Column[T]
}

func (n defaultValueMarker[T]) appendTo(b *SqlBuilder) {
	if v, ok := n.col.DefaultValue(); ok {
		s, err := n.col.PersistentType().ValueToString(v, true)
		if err != nil {
			b.SetError(err)
			return
		}
		b.Append(s)
		return
	}
	b.Append("NULL")
}

// DefaultValueMarker returns a value-expression for col that renders col's
// declared DEFAULT, or the bare NULL keyword if col has none.
func DefaultValueMarker[T any](col Column[T]) Expression[T] {
	return defaultValueMarker[T]{col: col}
}

// ---- INSERT ----

// InsertBuilder assembles an INSERT [OR <policy>] INTO ... VALUES (...)
// [RETURNING ...] statement (spec.md §4.6).
type InsertBuilder struct {
	into     ColumnSet
	values   *ColumnValues
	policy   ConflictPolicy
	returning []AnyExpression
}

// InsertInto starts an INSERT over table with the given column/value set.
func InsertInto(table ColumnSet, values *ColumnValues) *InsertBuilder {
	return &InsertBuilder{into: table, values: values}
}

// OrConflict sets the conflict-resolution policy (INSERT OR <policy>).
func (ib *InsertBuilder) OrConflict(policy ConflictPolicy) *InsertBuilder {
	c := *ib
	c.policy = policy
	return &c
}

// Returning adds a RETURNING clause.
func (ib *InsertBuilder) Returning(exprs ...AnyExpression) *InsertBuilder {
	c := *ib
	c.returning = exprs
	return &c
}

// Seed renders the INSERT into a StatementSeed.
func (ib *InsertBuilder) Seed() (StatementSeed, error) {
	if ib.values.err != nil {
		return StatementSeed{}, ib.values.err
	}
	return BuildSql(func(b *SqlBuilder) {
		b.Append("INSERT")
		if ib.policy != "" {
			b.Append(" OR ").Append(string(ib.policy))
		}
		b.Append(" INTO ")
		ib.into.appendSource(b)
		b.Append(" ")
		if len(ib.values.cols) == 0 {
			b.Append("DEFAULT VALUES")
		} else {
			ib.values.columnNames(b)
			b.Append(" VALUES ")
			ib.values.valueList(b)
		}
		if len(ib.returning) > 0 {
			b.Append(" RETURNING ")
			AppendEach(b, ib.returning, ", ", "", "", func(b *SqlBuilder, e AnyExpression) { e.appendTo(b) })
		}
	})
}

// ---- UPDATE ----

// UpdateBuilder assembles an UPDATE ... SET ... WHERE statement.
type UpdateBuilder struct {
	table  ColumnSet
	values *ColumnValues
	where  Predicate
	policy ConflictPolicy
}

// Update starts an UPDATE over table assigning the given column/value set.
func Update(table ColumnSet, values *ColumnValues) *UpdateBuilder {
	return &UpdateBuilder{table: table, values: values}
}

// OrConflict sets the conflict-resolution policy.
func (ub *UpdateBuilder) OrConflict(policy ConflictPolicy) *UpdateBuilder {
	c := *ub
	c.policy = policy
	return &c
}

// Where attaches the UPDATE's WHERE clause.
func (ub *UpdateBuilder) Where(pred Predicate) *UpdateBuilder {
	c := *ub
	if c.where == nil {
		c.where = pred
	} else {
		c.where = And(c.where, pred)
	}
	return &c
}

// Seed renders the UPDATE into a StatementSeed.
func (ub *UpdateBuilder) Seed() (StatementSeed, error) {
	if ub.values.err != nil {
		return StatementSeed{}, ub.values.err
	}
	return BuildSql(func(b *SqlBuilder) {
		b.Append("UPDATE")
		if ub.policy != "" {
			b.Append(" OR ").Append(string(ub.policy))
		}
		b.Append(" ")
		ub.table.appendSource(b)
		b.Append(" SET ")
		for i := range ub.values.cols {
			if i > 0 {
				b.Append(", ")
			}
			ub.values.cols[i].appendTo(b)
			b.Append(" = ")
			ub.values.vals[i].appendTo(b)
		}
		if ub.where != nil {
			b.Append(" WHERE ")
			ub.where.appendTo(b)
		}
	})
}

// ---- DELETE ----

// DeleteBuilder assembles a DELETE FROM ... WHERE statement.
type DeleteBuilder struct {
	from  ColumnSet
	where Predicate
}

// DeleteFrom starts a DELETE over table.
func DeleteFrom(table ColumnSet) *DeleteBuilder {
	return &DeleteBuilder{from: table}
}

// Where attaches the DELETE's WHERE clause. Omitting Where deletes every
// row, matching bare SQL DELETE semantics (spec.md §8, "a DELETE with no
// WHERE clause is not rejected; it clears the table").
func (db *DeleteBuilder) Where(pred Predicate) *DeleteBuilder {
	c := *db
	if c.where == nil {
		c.where = pred
	} else {
		c.where = And(c.where, pred)
	}
	return &c
}

// Seed renders the DELETE into a StatementSeed.
func (db *DeleteBuilder) Seed() (StatementSeed, error) {
	return BuildSql(func(b *SqlBuilder) {
		b.Append("DELETE FROM ")
		db.from.appendSource(b)
		if db.where != nil {
			b.Append(" WHERE ")
			db.where.appendTo(b)
		}
	})
}
