package execution

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/testutil"
)

func newTestPool(t *testing.T, workers int) *Pool {
	t.Helper()
	testutil.UseTestLogger(t)
	p := NewPool(context.Background(), Config{Name: t.Name(), Workers: workers})
	t.Cleanup(p.Close)
	return p
}

func TestPoolCall(t *testing.T) {
	p := newTestPool(t, 2)
	assert.True(t, p.IsActive())

	v, err := p.Call(func(ctx context.Context) (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	n, err := CallTyped(p, func(ctx context.Context) (string, error) { return "col", nil })
	require.NoError(t, err)
	assert.Equal(t, "col", n)
}

func TestWorkErrorsKeepTheirType(t *testing.T) {
	for name, c := range map[string]Context{"pool": newTestPool(t, 1), "inline": Inline{}} {
		t.Run(name, func(t *testing.T) {
			original := errors.New(errors.ErrorTypeValidation, "bad size")
			_, err := c.Call(func(ctx context.Context) (any, error) { return nil, original })
			assert.Same(t, original, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.False(t, errors.IsAborted(err))
		})
	}
}

func TestPanicBecomesInternalError(t *testing.T) {
	p := newTestPool(t, 1)
	_, err := p.Call(func(ctx context.Context) (any, error) { panic("comparator exploded") })
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "comparator exploded")

	// The worker slot was released.
	v, err := p.Call(func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

type compareError struct{ column string }

func (e *compareError) Error() string { return "cannot compare values of " + e.column }

func TestPanicKeepsErrorValue(t *testing.T) {
	for name, c := range map[string]Context{"pool": newTestPool(t, 1), "inline": Inline{}} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Call(func(ctx context.Context) (any, error) {
				panic(&compareError{column: "price"})
			})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))

			var cause *compareError
			require.True(t, stderrors.As(err, &cause))
			assert.Equal(t, "price", cause.column)
		})
	}
}

func TestInlinePanicBecomesInternalError(t *testing.T) {
	future, err := Inline{}.Submit(func(ctx context.Context) (any, error) { panic("bad comparator") })
	require.NoError(t, err)
	_, err = future.Get()
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "bad comparator")
}

func TestCallContextInterrupted(t *testing.T) {
	p := newTestPool(t, 1)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := CallContext(ctx, p, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	assert.True(t, errors.IsAborted(err))

	v, err := CallContext(context.Background(), Inline{}, func(ctx context.Context) (any, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestInactiveContextRefusesWork(t *testing.T) {
	p := NewPool(context.Background(), Config{Workers: 1})
	p.Close()
	assert.False(t, p.IsActive())

	var ran atomic.Bool
	_, err := p.Submit(func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	})
	assert.True(t, errors.IsAborted(err))
	_, err = p.Call(func(ctx context.Context) (any, error) { return nil, nil })
	assert.True(t, errors.IsAborted(err))
	assert.False(t, ran.Load())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Inline{Ctx: ctx}.Call(func(ctx context.Context) (any, error) { return nil, nil })
	assert.True(t, errors.IsAborted(err))
}

func TestStartedWorkFinishesAfterCancel(t *testing.T) {
	p := newTestPool(t, 1)
	started := make(chan struct{})
	release := make(chan struct{})

	future, err := p.Submit(func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "done", nil
	})
	require.NoError(t, err)
	<-started

	p.Cancel()
	assert.False(t, p.IsActive())
	close(release)

	testutil.AssertEventually(t, func() bool {
		select {
		case <-future.Done():
			return true
		default:
			return false
		}
	}, time.Second, "started work did not finish")
	v, err := future.Get()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestWaitInterrupted(t *testing.T) {
	p := newTestPool(t, 1)
	release := make(chan struct{})
	defer close(release)

	future, err := p.Submit(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = future.Wait(ctx)
	assert.True(t, errors.IsAborted(err))
}

func TestCallAll(t *testing.T) {
	p := newTestPool(t, 3)
	works := make([]func(context.Context) (int, error), 20)
	for i := range works {
		works[i] = func(ctx context.Context) (int, error) { return i * i, nil }
	}

	results, err := CallAll(context.Background(), p, works)
	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestCallAllReturnsFirstFailure(t *testing.T) {
	p := newTestPool(t, 1)
	failure := errors.New(errors.ErrorTypeBounds, "row 7 out of bounds")
	var started atomic.Int32

	works := []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { started.Add(1); return 0, failure },
	}
	for i := 0; i < 50; i++ {
		works = append(works, func(ctx context.Context) (int, error) {
			started.Add(1)
			time.Sleep(time.Millisecond)
			return 1, nil
		})
	}

	_, err := CallAll(context.Background(), p, works)
	assert.Same(t, failure, err)
	assert.Less(t, int(started.Load()), len(works))
}

func TestCallAllOnInactiveContext(t *testing.T) {
	p := NewPool(context.Background(), Config{Workers: 2})
	p.Close()

	var ran atomic.Bool
	_, err := CallAll(context.Background(), p, []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { ran.Store(true); return 1, nil },
	})
	assert.True(t, errors.IsAborted(err))
	assert.False(t, ran.Load())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CallAll(ctx, Inline{}, []func(context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 1, nil },
	})
	assert.True(t, errors.IsAborted(err))
}
