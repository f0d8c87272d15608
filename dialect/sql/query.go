package sql

// QueryBuilder assembles a SELECT statement over a ColumnSet via fluent
// combinators, each returning a new QueryBuilder value so a base query can
// be safely reused as a template for several variants (spec.md §4.5,
// "QueryBuilder is immutable; every combinator returns a new value").
type QueryBuilder struct {
	source     ColumnSet
	distinct   bool
	fields     []AnyExpression
	where      Predicate
	groupBy    []AnyExpression
	having     Predicate
	orderBy    []orderTerm
	limit      *int64
	offset     *int64
}

type orderTerm struct {
	expr AnyExpression
	desc bool
}

// SelectFrom starts a new query over source, selecting fields (an empty
// fields list selects *, matching SQLite's implicit column list).
func SelectFrom(source ColumnSet, fields ...AnyExpression) *QueryBuilder {
	return &QueryBuilder{source: source, fields: fields}
}

func (q *QueryBuilder) clone() *QueryBuilder {
	c := *q
	return &c
}

// Distinct marks the query SELECT DISTINCT.
func (q *QueryBuilder) Distinct() *QueryBuilder {
	c := q.clone()
	c.distinct = true
	return c
}

// Where attaches (AND-ing with any existing condition) a WHERE predicate.
func (q *QueryBuilder) Where(pred Predicate) *QueryBuilder {
	c := q.clone()
	if c.where == nil {
		c.where = pred
	} else {
		c.where = And(c.where, pred)
	}
	return c
}

// GroupBy sets the GROUP BY expression list.
func (q *QueryBuilder) GroupBy(exprs ...AnyExpression) *QueryBuilder {
	c := q.clone()
	c.groupBy = exprs
	return c
}

// Having attaches a HAVING predicate.
func (q *QueryBuilder) Having(pred Predicate) *QueryBuilder {
	c := q.clone()
	if c.having == nil {
		c.having = pred
	} else {
		c.having = And(c.having, pred)
	}
	return c
}

// OrderBy appends an ascending ORDER BY term.
func (q *QueryBuilder) OrderBy(expr AnyExpression) *QueryBuilder {
	c := q.clone()
	c.orderBy = append(append([]orderTerm{}, c.orderBy...), orderTerm{expr: expr})
	return c
}

// OrderByDesc appends a descending ORDER BY term.
func (q *QueryBuilder) OrderByDesc(expr AnyExpression) *QueryBuilder {
	c := q.clone()
	c.orderBy = append(append([]orderTerm{}, c.orderBy...), orderTerm{expr: expr, desc: true})
	return c
}

// Limit sets the LIMIT clause. A negative n omits the clause entirely
// (SQLite's own convention for "no limit"); Limit(0) renders LIMIT 0,
// matching SQLite's literal interpretation of a zero limit as "return no
// rows" rather than treating it as unset (spec.md §9, Open Question:
// Limit(-1) vs Limit(0)).
func (q *QueryBuilder) Limit(n int64) *QueryBuilder {
	c := q.clone()
	if n < 0 {
		c.limit = nil
		return c
	}
	c.limit = &n
	return c
}

// Offset sets the OFFSET clause.
func (q *QueryBuilder) Offset(n int64) *QueryBuilder {
	c := q.clone()
	c.offset = &n
	return c
}

// seed renders the query into a QuerySeed, implementing the Subquery seam
// used by Exists/CompoundSelect/Alias's subquery form.
func (q *QueryBuilder) seed() (QuerySeed, error) {
	return BuildQuerySql(DefaultPool, q)
}

// Seed is the exported form of seed, for callers (the executor, tests)
// that need the rendered (sql, types, fields) directly.
func (q *QueryBuilder) Seed() (QuerySeed, error) { return q.seed() }

// Count returns a query over the same source/WHERE clause that projects
// COUNT(*) instead of the original field list, discarding GROUP BY/ORDER
// BY/LIMIT/OFFSET (spec.md §4.5, "Count() reuses the filter, not the
// shape, of the query it is derived from").
func (q *QueryBuilder) Count() *QueryBuilder {
	return &QueryBuilder{
		source: q.source,
		where:  q.where,
		fields: []AnyExpression{CountStar()},
	}
}

// BuildQuerySql renders q against pool, producing its QuerySeed.
func BuildQuerySql(pool *Pool, q *QueryBuilder) (QuerySeed, error) {
	b := pool.Get()
	defer pool.Put(b)

	b.Append("SELECT ")
	if q.distinct {
		b.Append("DISTINCT ")
	}
	if len(q.fields) == 0 {
		b.Append("*")
	} else {
		AppendEach(b, q.fields, ", ", "", "", func(b *SqlBuilder, e AnyExpression) { e.appendTo(b) })
	}
	b.Append(" FROM ")
	q.source.appendSource(b)

	if q.where != nil {
		b.Append(" WHERE ")
		q.where.appendTo(b)
	}
	if len(q.groupBy) > 0 {
		b.Append(" GROUP BY ")
		AppendEach(b, q.groupBy, ", ", "", "", func(b *SqlBuilder, e AnyExpression) { e.appendTo(b) })
	}
	if q.having != nil {
		b.Append(" HAVING ")
		q.having.appendTo(b)
	}
	if len(q.orderBy) > 0 {
		b.Append(" ORDER BY ")
		AppendEach(b, q.orderBy, ", ", "", "", func(b *SqlBuilder, t orderTerm) {
			t.expr.appendTo(b)
			if t.desc {
				b.Append(" DESC")
			}
		})
	}
	if q.limit != nil {
		b.Append(" LIMIT ").AppendLong(*q.limit)
		if q.offset != nil {
			b.Append(" OFFSET ").AppendLong(*q.offset)
		}
	} else if q.offset != nil {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		b.Append(" LIMIT -1 OFFSET ").AppendLong(*q.offset)
	}

	if b.err != nil {
		return QuerySeed{}, b.err
	}
	types := make([]PersistentTypeAny, len(b.types))
	copy(types, b.types)
	fields := make([]AnyExpression, len(q.fields))
	copy(fields, q.fields)
	return QuerySeed{SQL: b.String(), Types: types, Fields: fields, Source: q.source}, nil
}
