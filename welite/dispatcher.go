package welite

import (
	"context"
	"sync"

	"github.com/weliteorg/welite/welerr"
)

// job is a unit of dispatched work: a closure and the channel its result
// is delivered on.
type job struct {
	ctx    context.Context
	fn     func(ctx context.Context) (any, error)
	result chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// dispatcherKey marks a context as already running inside a Dispatch
// call, so a closure that calls back into Dispatch can be recognised as
// reentrant without inspecting goroutine identity.
type dispatcherKey struct{}

// Dispatcher serialises database access onto a fixed pool of worker
// goroutines (spec.md §5, "the DB dispatcher... typically a
// single-threaded pool"). Transaction and Query both switch onto the
// dispatcher before running their closure and block until it completes,
// the Go reading of "suspend at the boundary of dispatched tasks."
type Dispatcher struct {
	jobs    chan job
	wg      sync.WaitGroup
	closeCh chan struct{}
	once    sync.Once
}

// NewDispatcher starts a Dispatcher with poolSize worker goroutines.
// poolSize < 1 is treated as 1.
func NewDispatcher(poolSize int) *Dispatcher {
	if poolSize < 1 {
		poolSize = 1
	}
	d := &Dispatcher{
		jobs:    make(chan job),
		closeCh: make(chan struct{}),
	}
	for i := 0; i < poolSize; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case j, ok := <-d.jobs:
			if !ok {
				return
			}
			v, err := j.fn(j.ctx)
			j.result <- jobResult{value: v, err: err}
		case <-d.closeCh:
			return
		}
	}
}

// Dispatch runs fn on the worker pool and returns its result, failing
// with ErrWrongThread if ctx is already inside a Dispatch call and
// allowReentrant is false — the reentrant case that would deadlock a
// size-1 pool (spec.md §6 "allowWorkOnUiThread").
func (d *Dispatcher) Dispatch(ctx context.Context, allowReentrant bool, fn func(ctx context.Context) (any, error)) (any, error) {
	if already, _ := ctx.Value(dispatcherKey{}).(bool); already {
		if !allowReentrant {
			return nil, welerr.NewWrongThreadError("dispatch")
		}
		// Already on the dispatcher and reentrancy is allowed: run inline
		// rather than sending to the pool, since a size-1 pool blocked on
		// this very call could never service the nested request.
		return fn(ctx)
	}

	innerCtx := context.WithValue(ctx, dispatcherKey{}, true)
	j := job{ctx: innerCtx, fn: fn, result: make(chan jobResult, 1)}
	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.closeCh:
		return nil, welerr.NewWrongThreadError("dispatch on closed dispatcher")
	}
	select {
	case r := <-j.result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting work and waits for in-flight jobs to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.closeCh)
	})
	d.wg.Wait()
}
