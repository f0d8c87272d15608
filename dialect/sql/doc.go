// Package sql is the SQLite-only SQL generation layer: a closed
// expression AST, a column/table algebra, and fluent SELECT/INSERT/
// UPDATE/DELETE builders that render to a (sql, positional-types) pair
// rather than hand-assembled strings.
//
// # Layering
//
//   - PersistentType[T] (types.go) binds a Go value shape to a SQLite
//     storage affinity, a literal renderer, and a bind primitive.
//   - SqlBuilder and Pool (builder.go) are the append-only text buffer
//     every AST node serialises into, reused via a bounded pool.
//   - Expression[T] (expr.go) is the closed AST: literals, parameters,
//     columns, functions, comparisons, boolean compounds, arithmetic,
//     CASE/EXISTS/RAISE.
//   - Column[T] (column.go) and ColumnSet (columnset.go) are the typed
//     field/table algebra queries and DDL are built over.
//   - QueryBuilder (query.go) and InsertBuilder/UpdateBuilder/
//     DeleteBuilder (dml.go) assemble complete statements.
//
// # Example
//
//	users := sql.NewTable("users")
//	id := sql.NewColumn("id", sql.Long).PrimaryKey().Bind(sql.NewIdentity("users"))
//	name := sql.NewColumn("name", sql.String).Bind(sql.NewIdentity("users"))
//
//	q := sql.SelectFrom(users, id, name).
//		Where(sql.Like(name, sql.Literal(sql.String, "A%"))).
//		OrderBy(id).
//		Limit(10)
//	seed, err := q.Seed()
//
// This package emits SQLite syntax only; it has no multi-dialect
// abstraction (see the dialect package for the execution boundary it
// assumes).
package sql
