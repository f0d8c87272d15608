package sql

// AnyExpression is the type-erased AST node interface every expression
// satisfies: it knows how to serialise itself into a SqlBuilder
// (spec.md §3, "Expression<T> — pure AST node with append_to(builder)").
type AnyExpression interface {
	appendTo(b *SqlBuilder)
}

// typed carries a phantom Go type T through the interface method set so
// Expression[T] is not structurally interchangeable across different T
// (see Expression[T] below). It has no runtime behaviour.
type typed[T any] struct{}

func (typed[T]) sqlValueType() (zero T) { return }

// Expression is a typed SQL expression: an AnyExpression tagged with the
// Go value shape it evaluates to. Concrete node types implement both
// appendTo and sqlValueType (the latter via embedding typed[T]) and are
// therefore directly usable wherever Expression[T] is expected.
type Expression[T any] interface {
	AnyExpression
	sqlValueType() T
}

// Predicate is a boolean-valued expression: a WHERE/HAVING/ON/WHEN
// condition.
type Predicate = Expression[bool]

// ---- LiteralOp ----

type literalOp[T any] struct {
	typed[T]
	pt PersistentType[T]
	v  T
}

func (n literalOp[T]) appendTo(b *SqlBuilder) {
	s, err := n.pt.ValueToString(n.v, true)
	if err != nil {
		b.SetError(err)
		return
	}
	b.Append(s)
}

// Literal returns a LiteralOp<T>: an inlined SQL literal for v, rendered
// via pt.ValueToString(v, inline=true).
func Literal[T any](pt PersistentType[T], v T) Expression[T] {
	return literalOp[T]{pt: pt, v: v}
}

// ---- QueryParameter / BindPlaceholder ----

type queryParameter[T any] struct {
	typed[T]
	pt PersistentType[T]
}

func (n queryParameter[T]) appendTo(b *SqlBuilder) {
	b.RegisterBindable(n.pt)
}

// Param returns a QueryParameter<T>: emits `?` and registers pt as the
// next placeholder's type.
func Param[T any](pt PersistentType[T]) Expression[T] {
	return queryParameter[T]{pt: pt}
}

// BindPlaceholder is the explicit-bindArg() sibling of Param; it renders
// identically (`?` + registered type) but is used by ColumnValues'
// WithBindPlaceholder entries to distinguish caller-intent in seeds that
// inspect their own structure (e.g. tests asserting argument order).
func BindPlaceholder[T any](pt PersistentType[T]) Expression[T] {
	return queryParameter[T]{pt: pt}
}

// ---- Column reference is defined in column.go (Column[T]) ----

// ---- CustomFunction ----

type customFunction[T any] struct {
	typed[T]
	name string
	args []AnyExpression
}

func (n customFunction[T]) appendTo(b *SqlBuilder) {
	b.Append(n.name).AppendByte('(')
	AppendEach(b, n.args, ", ", "", "", func(b *SqlBuilder, e AnyExpression) { e.appendTo(b) })
	b.AppendByte(')')
}

// Func returns a CustomFunction node: NAME(a1, a2, ...).
func Func[T any](name string, args ...AnyExpression) Expression[T] {
	return customFunction[T]{name: name, args: args}
}

// Lower, Upper, and Trim are the named single-argument function wrappers
// spec.md §4.3 lists explicitly; Substr follows below.
func Lower(e Expression[string]) Expression[string] { return Func[string]("LOWER", e) }
func Upper(e Expression[string]) Expression[string] { return Func[string]("UPPER", e) }
func Trim(e Expression[string]) Expression[string]  { return Func[string]("TRIM", e) }

// Substr returns substr(expr, start[, length]).
func Substr(e Expression[string], start Expression[int64], length *Expression[int64]) Expression[string] {
	args := []AnyExpression{e, start}
	if length != nil {
		args = append(args, *length)
	}
	return Func[string]("substr", args...)
}

// ---- Concat ----

type concatOp struct {
	typed[string]
	sep   string
	hasSep bool
	exprs []AnyExpression
}

func (n concatOp) appendTo(b *SqlBuilder) {
	// Emits the expression list exactly once. The source this spec was
	// distilled from calls appendTo twice on the same list inside Concat,
	// duplicating the concatenation in the generated SQL; spec.md §9
	// records that as an upstream bug and mandates a single emission.
	for i, e := range n.exprs {
		if i > 0 {
			if n.hasSep {
				b.Append(" || ").Append(quoteStringLiteral(n.sep)).Append(" || ")
			} else {
				b.Append(" || ")
			}
		}
		e.appendTo(b)
	}
}

// Concat returns e1 || e2 || ... with no separator.
func Concat(exprs ...AnyExpression) Expression[string] {
	return concatOp{exprs: exprs}
}

// ConcatSep returns e1 || 'sep' || e2 || 'sep' || ... .
func ConcatSep(sep string, exprs ...AnyExpression) Expression[string] {
	return concatOp{sep: sep, hasSep: true, exprs: exprs}
}

// ---- GROUP_CONCAT ----

type groupConcat struct {
	typed[string]
	expr AnyExpression
	sep  *string
}

func (n groupConcat) appendTo(b *SqlBuilder) {
	b.Append("GROUP_CONCAT(")
	n.expr.appendTo(b)
	if n.sep != nil {
		b.Append(", ").Append(quoteStringLiteral(*n.sep))
	}
	b.AppendByte(')')
}

// GroupConcat returns GROUP_CONCAT(expr[, 'sep']).
func GroupConcat(expr AnyExpression, sep *string) Expression[string] {
	return groupConcat{expr: expr, sep: sep}
}

// ---- Aggregates ----

type aggregate[T any] struct {
	typed[T]
	name     string
	distinct bool
	star     bool
	expr     AnyExpression
}

func (n aggregate[T]) appendTo(b *SqlBuilder) {
	b.Append(n.name).AppendByte('(')
	if n.star {
		b.Append("*")
	} else {
		if n.distinct {
			b.Append("DISTINCT ")
		}
		n.expr.appendTo(b)
	}
	b.AppendByte(')')
}

func aggOf[T any](name string, distinct bool, expr AnyExpression) Expression[T] {
	return aggregate[T]{name: name, distinct: distinct, expr: expr}
}

// Min, Max, Avg, Sum mirror spec.md §4.3's MIN/MAX/AVG/SUM(expr[, DISTINCT]).
func Min[T any](expr Expression[T]) Expression[T]               { return aggOf[T]("MIN", false, expr) }
func Max[T any](expr Expression[T]) Expression[T]               { return aggOf[T]("MAX", false, expr) }
func Avg(expr AnyExpression) Expression[float64]                { return aggOf[float64]("AVG", false, expr) }
func Sum[T any](expr Expression[T]) Expression[T]                { return aggOf[T]("SUM", false, expr) }
func SumDistinct[T any](expr Expression[T]) Expression[T]        { return aggOf[T]("SUM", true, expr) }

// Count returns COUNT(expr) or, with distinct, COUNT(DISTINCT expr).
func Count(expr AnyExpression, distinct bool) Expression[int64] {
	return aggregate[int64]{name: "COUNT", distinct: distinct, expr: expr}
}

// CountStar returns COUNT(*), the special-cased aggregate spec.md §4.3
// calls out explicitly.
func CountStar() Expression[int64] {
	return aggregate[int64]{name: "COUNT", star: true}
}

// ---- CAST ----

type castOp[T any] struct {
	typed[T]
	expr    AnyExpression
	sqlType Affinity
}

func (n castOp[T]) appendTo(b *SqlBuilder) {
	b.Append("CAST(")
	n.expr.appendTo(b)
	b.Append(" AS ").Append(string(n.sqlType)).AppendByte(')')
}

// Cast returns CAST(expr AS <sqlType>), with sqlType taken from target's
// affinity.
func Cast[T any](expr AnyExpression, target PersistentType[T]) Expression[T] {
	return castOp[T]{expr: expr, sqlType: target.SQLType()}
}

// ---- Comparisons ----

type comparisonOp struct {
	typed[bool]
	op       string
	lhs, rhs AnyExpression
}

func (n comparisonOp) appendTo(b *SqlBuilder) {
	n.lhs.appendTo(b)
	b.Append(" ").Append(n.op).Append(" ")
	n.rhs.appendTo(b)
}

func cmp(op string, lhs, rhs AnyExpression) Predicate { return comparisonOp{op: op, lhs: lhs, rhs: rhs} }

func Eq[T any](lhs, rhs Expression[T]) Predicate        { return cmp("=", lhs, rhs) }
func Neq[T any](lhs, rhs Expression[T]) Predicate       { return cmp("<>", lhs, rhs) }
func Less[T any](lhs, rhs Expression[T]) Predicate      { return cmp("<", lhs, rhs) }
func LessEq[T any](lhs, rhs Expression[T]) Predicate    { return cmp("<=", lhs, rhs) }
func Greater[T any](lhs, rhs Expression[T]) Predicate   { return cmp(">", lhs, rhs) }
func GreaterEq[T any](lhs, rhs Expression[T]) Predicate { return cmp(">=", lhs, rhs) }

// ---- LIKE ----

type likeOp struct {
	typed[bool]
	not     bool
	lhs     AnyExpression
	pattern AnyExpression
}

func (n likeOp) appendTo(b *SqlBuilder) {
	n.lhs.appendTo(b)
	if n.not {
		b.Append(" NOT LIKE ")
	} else {
		b.Append(" LIKE ")
	}
	n.pattern.appendTo(b)
}

func Like(lhs Expression[string], pattern Expression[string]) Predicate {
	return likeOp{lhs: lhs, pattern: pattern}
}

func NotLike(lhs Expression[string], pattern Expression[string]) Predicate {
	return likeOp{not: true, lhs: lhs, pattern: pattern}
}

// ---- IS NULL / IS NOT NULL ----

type isNullOp struct {
	typed[bool]
	not  bool
	expr AnyExpression
}

func (n isNullOp) appendTo(b *SqlBuilder) {
	n.expr.appendTo(b)
	if n.not {
		b.Append(" IS NOT NULL")
	} else {
		b.Append(" IS NULL")
	}
}

func IsNull(expr AnyExpression) Predicate    { return isNullOp{expr: expr} }
func IsNotNull(expr AnyExpression) Predicate { return isNullOp{not: true, expr: expr} }

// ---- NOT ----

type notOp struct {
	typed[bool]
	expr Predicate
}

func (n notOp) appendTo(b *SqlBuilder) {
	b.Append("NOT (")
	n.expr.appendTo(b)
	b.AppendByte(')')
}

func Not(expr Predicate) Predicate { return notOp{expr: expr} }

// ---- AND / OR (flattened compounds) ----

type compoundKind int

const (
	compoundAnd compoundKind = iota
	compoundOr
)

type compoundOp struct {
	typed[bool]
	kind  compoundKind
	parts []Predicate
}

func (n compoundOp) appendTo(b *SqlBuilder) {
	joiner := " AND "
	if n.kind == compoundOr {
		joiner = " OR "
	}
	for i, p := range n.parts {
		if i > 0 {
			b.Append(joiner)
		}
		if other, ok := p.(compoundOp); ok && other.kind != n.kind {
			b.AppendByte('(')
			other.appendTo(b)
			b.AppendByte(')')
		} else {
			p.appendTo(b)
		}
	}
}

// flatten merges any directly-nested compound of the same kind into a
// single parts list (spec.md §4.3/§8 "flattening merges adjacent
// same-kind compounds").
func flatten(kind compoundKind, preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if c, ok := p.(compoundOp); ok && c.kind == kind {
			out = append(out, c.parts...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

// And returns a flattened AND of preds.
func And(preds ...Predicate) Predicate {
	return compoundOp{kind: compoundAnd, parts: flatten(compoundAnd, preds)}
}

// Or returns a flattened OR of preds.
func Or(preds ...Predicate) Predicate {
	return compoundOp{kind: compoundOr, parts: flatten(compoundOr, preds)}
}

// ---- Arithmetic ----

type arithmeticOp[T any] struct {
	typed[T]
	op       string
	lhs, rhs AnyExpression
}

func (n arithmeticOp[T]) appendTo(b *SqlBuilder) {
	b.AppendByte('(')
	n.lhs.appendTo(b)
	b.Append(" ").Append(n.op).Append(" ")
	n.rhs.appendTo(b)
	b.AppendByte(')')
}

func Plus[T any](lhs, rhs Expression[T]) Expression[T]  { return arithmeticOp[T]{op: "+", lhs: lhs, rhs: rhs} }
func Minus[T any](lhs, rhs Expression[T]) Expression[T] { return arithmeticOp[T]{op: "-", lhs: lhs, rhs: rhs} }
func Times[T any](lhs, rhs Expression[T]) Expression[T] { return arithmeticOp[T]{op: "*", lhs: lhs, rhs: rhs} }
func Divide[T any](lhs, rhs Expression[T]) Expression[T] {
	return arithmeticOp[T]{op: "/", lhs: lhs, rhs: rhs}
}
func Mod[T any](lhs, rhs Expression[T]) Expression[T] { return arithmeticOp[T]{op: "%", lhs: lhs, rhs: rhs} }

// ---- IN / NOT IN ----

type inListOp[T any] struct {
	typed[bool]
	not  bool
	expr Expression[T]
	vals []Expression[T]
}

func (n inListOp[T]) appendTo(b *SqlBuilder) {
	switch len(n.vals) {
	case 0:
		// spec.md §4.3/§8: empty list collapses to FALSE (IN) / TRUE (NOT IN).
		if n.not {
			b.Append("TRUE")
		} else {
			b.Append("FALSE")
		}
	case 1:
		if n.not {
			Neq(n.expr, n.vals[0]).appendTo(b)
		} else {
			Eq(n.expr, n.vals[0]).appendTo(b)
		}
	default:
		n.expr.appendTo(b)
		if n.not {
			b.Append(" NOT IN (")
		} else {
			b.Append(" IN (")
		}
		for i, v := range n.vals {
			if i > 0 {
				b.Append(", ")
			}
			v.appendTo(b)
		}
		b.AppendByte(')')
	}
}

// In returns expr IN (vals...) with the empty/singleton collapses spec.md
// §4.3/§8 requires.
func In[T any](expr Expression[T], vals ...Expression[T]) Predicate {
	return inListOp[T]{expr: expr, vals: vals}
}

// NotIn returns expr NOT IN (vals...).
func NotIn[T any](expr Expression[T], vals ...Expression[T]) Predicate {
	return inListOp[T]{not: true, expr: expr, vals: vals}
}

// ---- BETWEEN ----

type betweenOp[T any] struct {
	typed[bool]
	expr     Expression[T]
	from, to Expression[T]
}

func (n betweenOp[T]) appendTo(b *SqlBuilder) {
	n.expr.appendTo(b)
	b.Append(" BETWEEN ")
	n.from.appendTo(b)
	b.Append(" AND ")
	n.to.appendTo(b)
}

// Between returns expr BETWEEN from AND to.
func Between[T any](expr, from, to Expression[T]) Predicate {
	return betweenOp[T]{expr: expr, from: from, to: to}
}

// ---- RAISE ----

// RaiseAction is one of SQLite's trigger RAISE actions.
type RaiseAction string

const (
	RaiseRollback RaiseAction = "ROLLBACK"
	RaiseAbort    RaiseAction = "ABORT"
	RaiseFail     RaiseAction = "FAIL"
	RaiseIgnore   RaiseAction = "IGNORE"
)

type raiseOp struct {
	typed[any]
	action  RaiseAction
	message string
}

func (n raiseOp) appendTo(b *SqlBuilder) {
	if n.action == RaiseIgnore {
		b.Append("RAISE(IGNORE)")
		return
	}
	b.Append("RAISE(").Append(string(n.action)).Append(", ").Append(quoteStringLiteral(n.message)).AppendByte(')')
}

// Raise returns RAISE(IGNORE) or RAISE(action, 'msg') (only ROLLBACK,
// ABORT, FAIL take a message, per spec.md §4.3).
func Raise(action RaiseAction, message string) Expression[any] {
	return raiseOp{action: action, message: message}
}

// ---- CASE/WHEN ----

// CaseWhenBuilder builds a CASE [value] WHEN ... THEN ... [ELSE ...] END
// expression.
type CaseWhenBuilder[V, R any] struct {
	value    *Expression[V]
	whens    []whenClause[V, R]
	elseExpr *Expression[R]
}

type whenClause[V, R any] struct {
	cond Predicate
	val  *Expression[V]
	then Expression[R]
}

// Case starts a CASE expression with no base value (the predicate form:
// CASE WHEN pred THEN ... END).
func Case[R any]() *CaseWhenBuilder[struct{}, R] {
	return &CaseWhenBuilder[struct{}, R]{}
}

// CaseValue starts a CASE value WHEN ... form.
func CaseValue[V, R any](value Expression[V]) *CaseWhenBuilder[V, R] {
	return &CaseWhenBuilder[V, R]{value: &value}
}

// When (predicate form) adds a WHEN pred THEN then clause.
func (c *CaseWhenBuilder[V, R]) When(pred Predicate, then Expression[R]) *CaseWhenBuilder[V, R] {
	c.whens = append(c.whens, whenClause[V, R]{cond: pred, then: then})
	return c
}

// WhenValue (value form) adds a WHEN val THEN then clause.
func (c *CaseWhenBuilder[V, R]) WhenValue(val Expression[V], then Expression[R]) *CaseWhenBuilder[V, R] {
	c.whens = append(c.whens, whenClause[V, R]{val: &val, then: then})
	return c
}

// Else sets the ELSE clause.
func (c *CaseWhenBuilder[V, R]) Else(expr Expression[R]) *CaseWhenBuilder[V, R] {
	c.elseExpr = &expr
	return c
}

// End finalises the CASE expression.
func (c *CaseWhenBuilder[V, R]) End() Expression[R] {
	return caseWhenOp[V, R]{value: c.value, whens: c.whens, elseExpr: c.elseExpr}
}

type caseWhenOp[V, R any] struct {
	typed[R]
	value    *Expression[V]
	whens    []whenClause[V, R]
	elseExpr *Expression[R]
}

func (n caseWhenOp[V, R]) appendTo(b *SqlBuilder) {
	b.Append("CASE")
	if n.value != nil {
		b.AppendByte(' ')
		(*n.value).appendTo(b)
	}
	for _, w := range n.whens {
		b.Append(" WHEN ")
		if w.val != nil {
			(*w.val).appendTo(b)
		} else {
			w.cond.appendTo(b)
		}
		b.Append(" THEN ")
		w.then.appendTo(b)
	}
	if n.elseExpr != nil {
		b.Append(" ELSE ")
		(*n.elseExpr).appendTo(b)
	}
	b.Append(" END")
}

// ---- EXISTS ----

// Subquery is the minimal view of QueryBuilder this package needs without
// creating an import cycle with query.go (same package, but kept as an
// explicit seam since Exists takes a rendered seed, not a live builder).
type Subquery interface {
	seed() (QuerySeed, error)
}

type existsOp struct {
	typed[bool]
	q Subquery
}

func (n existsOp) appendTo(b *SqlBuilder) {
	seed, err := n.q.seed()
	if err != nil {
		b.SetError(err)
		return
	}
	b.Append("EXISTS (").Append(seed.SQL).AppendByte(')')
	b.types = append(b.types, seed.Types...)
}

// Exists returns EXISTS (<subquery>).
func Exists(q Subquery) Predicate { return existsOp{q: q} }

// ---- Alias ----

type exprAlias[T any] struct {
	typed[T]
	expr  AnyExpression
	alias Identity
	bare  bool
}

func (n exprAlias[T]) appendTo(b *SqlBuilder) {
	if n.bare {
		b.AppendIdentity(n.alias)
		return
	}
	n.expr.appendTo(b)
	b.Append(" ").AppendIdentity(n.alias)
}

// As returns expr aliased, rendered "<expr> <alias>" in a result-column
// list, or bare "<alias>" when referenced from elsewhere in the same
// query (spec.md §4.3, ExpressionAlias/SqlTypeExpressionAlias).
func As[T any](expr Expression[T], alias string) Expression[T] {
	return exprAlias[T]{expr: expr, alias: NewIdentity(alias)}
}

// AliasRef returns a bare reference to a previously-declared alias.
func AliasRef[T any](alias string) Expression[T] {
	return exprAlias[T]{alias: NewIdentity(alias), bare: true}
}
