package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func render(e AnyExpression) string {
	return BuildStr(func(b *SqlBuilder) { e.appendTo(b) })
}

func TestLiteralInlinesValue(t *testing.T) {
	assert.Equal(t, "'ada'", render(Literal(String, "ada")))
	assert.Equal(t, "1", render(Literal(Bool, true)))
}

func TestParamEmitsPlaceholderAndRegistersType(t *testing.T) {
	b := &SqlBuilder{}
	Param(Long).appendTo(b)
	assert.Equal(t, "?", b.String())
	assert.Equal(t, []PersistentTypeAny{Long}, b.Types())
}

func TestFuncRendersNameAndArgs(t *testing.T) {
	assert.Equal(t, "LOWER(name)", render(Func[string]("LOWER", rawIdent("name"))))
}

func TestConcatEmitsEachOperandOnce(t *testing.T) {
	got := render(Concat(rawIdent("first"), rawIdent("last")))
	assert.Equal(t, "first || last", got)
}

func TestConcatSepInsertsSeparatorLiteral(t *testing.T) {
	got := render(ConcatSep(" ", rawIdent("first"), rawIdent("last")))
	assert.Equal(t, "first || ' ' || last", got)
}

func TestGroupConcatWithAndWithoutSeparator(t *testing.T) {
	assert.Equal(t, "GROUP_CONCAT(name)", render(GroupConcat(rawIdent("name"), nil)))
	sep := ","
	assert.Equal(t, "GROUP_CONCAT(name, ',')", render(GroupConcat(rawIdent("name"), &sep)))
}

func TestAggregatesRenderDistinctAndStar(t *testing.T) {
	assert.Equal(t, "SUM(amount)", render(Sum[int64](rawIdentTyped[int64]("amount"))))
	assert.Equal(t, "SUM(DISTINCT amount)", render(SumDistinct[int64](rawIdentTyped[int64]("amount"))))
	assert.Equal(t, "COUNT(*)", render(CountStar()))
	assert.Equal(t, "COUNT(DISTINCT id)", render(Count(rawIdent("id"), true)))
}

func TestCastRendersTargetAffinity(t *testing.T) {
	assert.Equal(t, "CAST(age AS INTEGER)", render(Cast[int64](rawIdent("age"), Long)))
}

func TestComparisonOperators(t *testing.T) {
	lhs := rawIdentTyped[int64]("age")
	rhs := Literal(Long, int64(18))
	assert.Equal(t, "age = 18", render(Eq[int64](lhs, rhs)))
	assert.Equal(t, "age <> 18", render(Neq[int64](lhs, rhs)))
	assert.Equal(t, "age < 18", render(Less[int64](lhs, rhs)))
	assert.Equal(t, "age <= 18", render(LessEq[int64](lhs, rhs)))
	assert.Equal(t, "age > 18", render(Greater[int64](lhs, rhs)))
	assert.Equal(t, "age >= 18", render(GreaterEq[int64](lhs, rhs)))
}

func TestLikeAndNotLike(t *testing.T) {
	name := rawIdentTyped[string]("name")
	pattern := Literal(String, "A%")
	assert.Equal(t, "name LIKE 'A%'", render(Like(name, pattern)))
	assert.Equal(t, "name NOT LIKE 'A%'", render(NotLike(name, pattern)))
}

func TestIsNullAndIsNotNull(t *testing.T) {
	assert.Equal(t, "name IS NULL", render(IsNull(rawIdent("name"))))
	assert.Equal(t, "name IS NOT NULL", render(IsNotNull(rawIdent("name"))))
}

func TestNotWrapsInParens(t *testing.T) {
	assert.Equal(t, "NOT (name IS NULL)", render(Not(IsNull(rawIdent("name")))))
}

func TestAndOrFlattenAdjacentSameKind(t *testing.T) {
	a := Eq[int64](rawIdentTyped[int64]("a"), Literal(Long, int64(1)))
	b := Eq[int64](rawIdentTyped[int64]("b"), Literal(Long, int64(2)))
	c := Eq[int64](rawIdentTyped[int64]("c"), Literal(Long, int64(3)))

	nested := And(And(a, b), c)
	assert.Equal(t, "a = 1 AND b = 2 AND c = 3", render(nested))
}

func TestAndOrParenthesizeMixedKinds(t *testing.T) {
	a := Eq[int64](rawIdentTyped[int64]("a"), Literal(Long, int64(1)))
	b := Eq[int64](rawIdentTyped[int64]("b"), Literal(Long, int64(2)))
	c := Eq[int64](rawIdentTyped[int64]("c"), Literal(Long, int64(3)))

	got := render(And(Or(a, b), c))
	assert.Equal(t, "(a = 1 OR b = 2) AND c = 3", got)
}

func TestArithmeticOperatorsWrapInParens(t *testing.T) {
	lhs := rawIdentTyped[int64]("x")
	rhs := Literal(Long, int64(2))
	assert.Equal(t, "(x + 2)", render(Plus[int64](lhs, rhs)))
	assert.Equal(t, "(x - 2)", render(Minus[int64](lhs, rhs)))
	assert.Equal(t, "(x * 2)", render(Times[int64](lhs, rhs)))
	assert.Equal(t, "(x / 2)", render(Divide[int64](lhs, rhs)))
	assert.Equal(t, "(x % 2)", render(Mod[int64](lhs, rhs)))
}

func TestInCollapsesEmptyAndSingleton(t *testing.T) {
	col := rawIdentTyped[int64]("id")
	assert.Equal(t, "FALSE", render(In[int64](col)))
	assert.Equal(t, "TRUE", render(NotIn[int64](col)))
	assert.Equal(t, "id = 1", render(In[int64](col, Literal(Long, int64(1)))))
	assert.Equal(t, "id <> 1", render(NotIn[int64](col, Literal(Long, int64(1)))))
}

func TestInRendersListForMultipleValues(t *testing.T) {
	col := rawIdentTyped[int64]("id")
	got := render(In[int64](col, Literal(Long, int64(1)), Literal(Long, int64(2)), Literal(Long, int64(3))))
	assert.Equal(t, "id IN (1, 2, 3)", got)
}

func TestBetween(t *testing.T) {
	col := rawIdentTyped[int64]("age")
	got := render(Between[int64](col, Literal(Long, int64(18)), Literal(Long, int64(65))))
	assert.Equal(t, "age BETWEEN 18 AND 65", got)
}

func TestRaiseVariants(t *testing.T) {
	assert.Equal(t, "RAISE(IGNORE)", render(Raise(RaiseIgnore, "")))
	assert.Equal(t, "RAISE(ABORT, 'stop')", render(Raise(RaiseAbort, "stop")))
}

func TestCaseWhenPredicateForm(t *testing.T) {
	e := Case[string]().
		When(IsNull(rawIdent("name")), Literal(String, "anon")).
		Else(rawIdentTyped[string]("name")).
		End()
	assert.Equal(t, "CASE WHEN name IS NULL THEN 'anon' ELSE name END", render(e))
}

func TestCaseWhenValueForm(t *testing.T) {
	e := CaseValue[int64, string](rawIdentTyped[int64]("status")).
		WhenValue(Literal(Long, int64(1)), Literal(String, "active")).
		WhenValue(Literal(Long, int64(0)), Literal(String, "inactive")).
		End()
	assert.Equal(t, "CASE status WHEN 1 THEN 'active' WHEN 0 THEN 'inactive' END", render(e))
}

func TestAsAndAliasRef(t *testing.T) {
	aliased := As[int64](rawIdentTyped[int64]("total"), "t")
	assert.Equal(t, "total t", render(aliased))
	assert.Equal(t, "t", render(AliasRef[int64]("t")))
}

// rawIdent/rawIdentTyped are minimal AnyExpression/Expression[T] stand-ins
// used in place of a full Column when a test only needs an identifier to
// appear verbatim in rendered SQL.
type rawIdentNode string

func (n rawIdentNode) appendTo(b *SqlBuilder) { b.Append(string(n)) }

func rawIdent(name string) AnyExpression { return rawIdentNode(name) }

type rawIdentTypedNode[T any] struct {
	typed[T]
	rawIdentNode
}

func rawIdentTyped[T any](name string) Expression[T] {
	return rawIdentTypedNode[T]{rawIdentNode: rawIdentNode(name)}
}
