package sql

// StatementSeed is the pure, immutable (sql, types) pair produced by any
// builder (insert/update/delete/select/DDL) before execution (spec.md §3).
type StatementSeed struct {
	SQL   string
	Types []PersistentTypeAny
}

// QuerySeed is a StatementSeed additionally carrying the selected fields
// (for result-column typed decoding) and the ColumnSet the query reads
// from (spec.md §3).
type QuerySeed struct {
	Fields   []AnyExpression
	SQL      string
	Types    []PersistentTypeAny
	Source   ColumnSet
}
