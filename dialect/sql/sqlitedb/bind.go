// Package sqlitedb is the concrete SqliteEngine capability boundary
// (spec.md §6/§4.8): a compiled-statement cache, a positional binder, and
// a modernc.org/sqlite-backed engine that dialect/sql and dialect/sql/schema
// assume but do not implement themselves.
package sqlitedb

import (
	welsql "github.com/weliteorg/welite/dialect/sql"
	"github.com/weliteorg/welite/welerr"
)

// stmtBinder adapts a *sql.Stmt's positional args slice to
// welsql.Binder, so PersistentType.BindAny can write into slot i without
// knowing it is accumulating a []any rather than calling a native C bind
// function. Index i is validated against argCount before every call
// (spec.md §4.8, "every bind call checks 0 ≤ i < argCount").
type stmtBinder struct {
	args     []any
	argCount int
}

func newBinder(argCount int) *stmtBinder {
	return &stmtBinder{args: make([]any, argCount), argCount: argCount}
}

func (b *stmtBinder) checkIndex(i int) error {
	if i < 0 || i >= b.argCount {
		return welerr.NewOutOfBoundsBindError(i, b.argCount)
	}
	return nil
}

func (b *stmtBinder) BindNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.args[i] = nil
	return nil
}

func (b *stmtBinder) BindLong(i int, v int64) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.args[i] = v
	return nil
}

func (b *stmtBinder) BindDouble(i int, v float64) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.args[i] = v
	return nil
}

func (b *stmtBinder) BindString(i int, v string) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.args[i] = v
	return nil
}

func (b *stmtBinder) BindBlob(i int, v []byte) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.args[i] = v
	return nil
}

// Set dispatches through pt's own Bind method, matching spec.md §4.8's
// `set(i, v)` which "dispatches through types[i].bind(this, i, v)".
func (b *stmtBinder) Set(i int, pt welsql.PersistentTypeAny, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	return pt.BindAny(b, i, v)
}

// clearBindings resets every slot to nil, matching spec.md §4.8's
// `clearBindings()` call before each execution of a reused compiled
// statement.
func (b *stmtBinder) clearBindings() {
	for i := range b.args {
		b.args[i] = nil
	}
}

var _ welsql.Binder = (*stmtBinder)(nil)

// bindArgs binds values positionally against types, returning the []any
// ready to pass to database/sql.
func bindArgs(types []welsql.PersistentTypeAny, values []any) ([]any, error) {
	b := newBinder(len(types))
	for i, pt := range types {
		if err := b.Set(i, pt, values[i]); err != nil {
			return nil, err
		}
	}
	return b.args, nil
}
