package welite

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	welsql "github.com/weliteorg/welite/dialect/sql"

	"github.com/weliteorg/welite/dialect"
	"github.com/weliteorg/welite/welerr"
)

// txState is one of Active, Successful, RolledBack, or Closed (spec.md
// §4.9).
type txState int

const (
	txActive txState = iota
	txSuccessful
	txRolledBack
	txClosed
)

// CommitHook is called after a transaction's underlying commit succeeds.
// A panic raised by a hook is recovered and logged, never propagated to
// the committer (spec.md §4.9 "onCommit... exceptions from
// callbacks are caught and logged").
type CommitHook func(ctx context.Context)

// Transaction is a scoped unit of work over a Database (spec.md §4.9,
// §5). All reads and writes happen through a Transaction's ExecQuerier,
// never directly against the database handle.
type Transaction struct {
	db        *Database
	ctx       context.Context
	tx        dialect.Tx
	exclusive bool

	mu       sync.Mutex
	state    txState
	onCommit []CommitHook
}

// ExecQuerier exposes this transaction's execution surface.
func (t *Transaction) ExecQuerier() dialect.ExecQuerier { return t.tx }

// Context returns the context this transaction runs under.
func (t *Transaction) Context() context.Context { return t.ctx }

// SetSuccessful marks the transaction for commit. Allowed once; repeat
// calls in the Active state are no-ops. Fails if the transaction is
// already RolledBack or Closed (spec.md §4.9).
func (t *Transaction) SetSuccessful() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case txActive, txSuccessful:
		t.state = txSuccessful
		return nil
	case txRolledBack:
		return welerr.NewSchemaError("transaction", "cannot mark successful: already rolled back")
	default:
		return welerr.NewSchemaError("transaction", "cannot mark successful: already closed")
	}
}

// Rollback marks the transaction RolledBack. Fails if already Closed.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == txClosed {
		return welerr.NewSchemaError("transaction", "cannot roll back: already closed")
	}
	t.state = txRolledBack
	return nil
}

// OnCommit queues a callback fired only if this transaction's underlying
// commit succeeds, in registration order (spec.md §5 "Commit-callbacks
// fire in registration order after the underlying commit succeeds").
func (t *Transaction) OnCommit(hook CommitHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCommit = append(t.onCommit, hook)
}

// close ends the underlying transaction: commits iff Successful,
// otherwise rolls back. If neither SetSuccessful nor Rollback was
// called, it logs and — when throwIfNoChoice is true — returns
// UnmarkedTransactionError (spec.md §4.9). A nested call never reaches
// here: Database.runTransaction hands a nested closure the same
// *Transaction the outer call already owns, so close only ever runs once
// per underlying handle.
func (t *Transaction) close(throwIfNoChoice bool) error {
	t.mu.Lock()
	state := t.state
	hooks := append([]CommitHook(nil), t.onCommit...)
	t.state = txClosed
	t.mu.Unlock()

	var unmarked error
	if state == txActive {
		slog.WarnContext(t.ctx, "transaction closed without success or rollback", "exclusive", t.exclusive)
		if throwIfNoChoice {
			unmarked = welerr.NewUnmarkedTransactionError("transaction")
		}
	}

	var err error
	if state == txSuccessful {
		err = t.tx.Commit()
	} else {
		err = t.tx.Rollback()
	}
	if err != nil {
		return err
	}
	if unmarked != nil {
		return unmarked
	}

	if state == txSuccessful {
		for _, hook := range hooks {
			runHookSafely(t.ctx, hook)
		}
	}
	return nil
}

// txCtxKey marks a context as already running inside a Transaction
// closure, so a nested Database.Transaction call can detect and reuse
// the outer handle instead of opening a second underlying transaction
// (spec.md §4.9 "Nested ongoingTransaction reuses the outer
// transaction's handle").
type txCtxKey struct{}

// rawTx issues the literal BEGIN IMMEDIATE/BEGIN EXCLUSIVE/COMMIT/
// ROLLBACK statements SQLite's locking discipline needs (spec.md §4.9),
// which database/sql's own Tx does not expose a way to select between.
// It pins a single *sql.Conn checked out of the pool for the
// transaction's lifetime and drives it directly.
type rawTx struct {
	welsql.Conn
	conn *sql.Conn
}

func (t *rawTx) Commit() error {
	_, err := t.conn.ExecContext(context.Background(), "COMMIT")
	return err
}

func (t *rawTx) Rollback() error {
	_, err := t.conn.ExecContext(context.Background(), "ROLLBACK")
	return err
}

var _ dialect.Tx = (*rawTx)(nil)

func runHookSafely(ctx context.Context, hook CommitHook) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "commit hook panicked", "panic", r)
		}
	}()
	hook(ctx)
}
