// Package welite is the transaction kernel and database lifecycle layer
// (L8): opening a database, running its create-or-migrate sequence, and
// scoping all reads and writes to a Transaction or a dispatcher-bound
// Query, never to the raw connection pool directly.
//
// # Lifecycle
//
// Open drives the database through Opening, Configured (after
// onConfigure), Created or Migrated (after onCreate or a migration
// path), and finally Opened (after onOpen), matching the state machine
// spec.md §4.9 describes.
//
// # Example
//
//	users := schema.NewTable("users")
//	schema.AddColumn(users, welsql.NewColumn("id", welsql.Long).PrimaryKey())
//
//	db, err := welite.Open(ctx, "app.db", welite.Schema{Tables: []*schema.Table{users}},
//		welite.WithForeignKeys(true),
//		welite.WithVersion(1),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.Transaction(ctx, false, func(ctx context.Context, tx *welite.Transaction) error {
//		if err := tx.ExecQuerier().Exec(ctx, "INSERT INTO users (id) VALUES (?)", []any{1}, nil); err != nil {
//			return err
//		}
//		return tx.SetSuccessful()
//	})
//
// # Concurrency
//
// Every Transaction and Query call is dispatched onto a Dispatcher (a
// fixed worker pool, size 1 by default) before it runs, the Go analogue
// of spec.md §5's "switch onto the DB dispatcher". A closure that calls
// back into Transaction/Query while already running on the dispatcher
// fails with ErrWrongThread unless AllowWorkOnDispatcherThread was set.
// The exception is a Transaction call made inside another Transaction's
// closure: it reuses the outer transaction instead of dispatching again.
package welite
