// Package execution runs independent column operations concurrently.
//
// A Context accepts units of work and hands back their results. Callers
// check IsActive at their own decision points, typically before starting each
// independent unit of a bulk operation; an inactive context refuses new work
// with an error of type errors.ErrorTypeAborted and never runs it. Units that
// already started always run to completion.
//
// Errors returned by work reach the caller unchanged, so a validation error
// raised while building a column is still a validation error after it crossed
// the pool. Both Pool and Inline turn a panic in work into an internal error;
// a panic value that is an error stays reachable through errors.As.
package execution

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// Work is a unit of work. ctx is cancelled when the executing context is
// cancelled; work may ignore it.
type Work func(ctx context.Context) (any, error)

// Context is the execution service used by bulk column operations.
type Context interface {
	// IsActive reports whether the context still accepts work.
	IsActive() bool
	// Submit schedules work and returns a handle to its result. It fails with
	// an aborted error when the context is inactive.
	Submit(work Work) (*Future, error)
	// Call runs work and waits for its result.
	Call(work Work) (any, error)
}

// Future is the handle of submitted work.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(value any, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Done is closed once the work has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Get waits for the work and returns its result.
func (f *Future) Get() (any, error) {
	<-f.done
	return f.value, f.err
}

// Wait is Get bounded by ctx. When ctx ends first the result is an aborted
// error; the work itself keeps running.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeAborted, "interrupted while waiting for work")
	}
}

// CallContext submits work to c and waits for it until ctx ends. An
// interrupted wait is an aborted error; the work itself keeps running.
func CallContext(ctx context.Context, c Context, work Work) (any, error) {
	future, err := c.Submit(work)
	if err != nil {
		return nil, err
	}
	return future.Wait(ctx)
}

// panicError converts a recovered panic value into an internal error.
func panicError(r any) *errors.Error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, errors.ErrorTypeInternal, "work panicked")
	}
	return errors.Newf(errors.ErrorTypeInternal, "work panicked: %v", r)
}

// Aborted returns the error used to refuse work on an inactive context.
func Aborted() *errors.Error {
	return errors.New(errors.ErrorTypeAborted, "execution context is not active")
}

// CallTyped runs work on c and asserts its result to T.
func CallTyped[T any](c Context, work func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Call(func(ctx context.Context) (any, error) { return work(ctx) })
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

// CallAll runs every unit of works on c and returns the results in order.
// Activity is checked before each unit starts; after the first failure no
// further units start and the first error is returned.
func CallAll[T any](ctx context.Context, c Context, works []func(ctx context.Context) (T, error)) ([]T, error) {
	results := make([]T, len(works))
	g, gctx := errgroup.WithContext(ctx)
	for i, work := range works {
		if !c.IsActive() {
			g.Go(func() error { return Aborted() })
			break
		}
		if gctx.Err() != nil {
			break
		}
		future, err := c.Submit(func(ctx context.Context) (any, error) { return work(ctx) })
		if err != nil {
			g.Go(func() error { return err })
			break
		}
		g.Go(func() error {
			v, err := future.Wait(gctx)
			if err != nil {
				return err
			}
			if v != nil {
				results[i] = v.(T)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAborted, "bulk call cancelled")
	}
	return results, nil
}
