package execution

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/metrics"
	"github.com/ajitpratap0/colframe/pkg/observability"
)

// Config configures a Pool.
type Config struct {
	Name    string `yaml:"name" json:"name"`
	Workers int    `yaml:"workers" json:"workers"` // 0 = runtime.NumCPU()
}

// DefaultConfig returns a pool configuration sized to the machine.
func DefaultConfig() Config {
	return Config{Name: "default", Workers: runtime.NumCPU()}
}

// Pool is a Context running work on goroutines, at most Workers at a time.
// Submit blocks while every worker is busy. Work submitted from inside
// running work can deadlock a saturated pool.
type Pool struct {
	name   string
	logger *zap.Logger
	sem    *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	submitted int64
	completed int64
}

// NewPool creates a pool that stays active until parent is done or Close is
// called.
func NewPool(parent context.Context, config Config) *Pool {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Name == "" {
		config.Name = "default"
	}
	ctx, cancel := context.WithCancel(parent)
	p := &Pool{
		name:   config.Name,
		logger: logger.With(zap.String("pool", config.Name)),
		sem:    semaphore.NewWeighted(int64(config.Workers)),
		ctx:    ctx,
		cancel: cancel,
	}
	p.logger.Debug("execution pool started", zap.Int("workers", config.Workers))
	return p
}

// IsActive reports whether the pool accepts work.
func (p *Pool) IsActive() bool { return p.ctx.Err() == nil }

// Cancel stops accepting work. Running units finish; their contexts are
// cancelled.
func (p *Pool) Cancel() { p.cancel() }

// Close cancels the pool and waits for running units.
func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
	p.logger.Debug("execution pool closed",
		zap.Int64("submitted", atomic.LoadInt64(&p.submitted)),
		zap.Int64("completed", atomic.LoadInt64(&p.completed)))
}

// Submit schedules work, waiting for a free worker.
func (p *Pool) Submit(work Work) (*Future, error) {
	if !p.IsActive() {
		return nil, p.refuse()
	}
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return nil, p.refuse()
	}

	atomic.AddInt64(&p.submitted, 1)
	future := newFuture()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		future.complete(p.run(work))
		atomic.AddInt64(&p.completed, 1)
	}()
	return future, nil
}

// Call submits work and waits for its result. The wait cannot be
// interrupted; use CallContext to bound it.
func (p *Pool) Call(work Work) (any, error) {
	future, err := p.Submit(work)
	if err != nil {
		return nil, err
	}
	return future.Get()
}

func (p *Pool) refuse() error {
	metrics.ExecutionUnits.WithLabelValues("aborted").Inc()
	p.logger.Warn("work refused by inactive execution pool")
	return Aborted()
}

// run executes work in a span, converting panics into internal errors.
func (p *Pool) run(work Work) (value any, err error) {
	ctx, span := observability.NewSpan(p.ctx, "execution.unit")
	span.SetAttribute("pool", p.name)
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = panicError(r).WithDetail("pool", p.name)
			metrics.ExecutionUnits.WithLabelValues("panic").Inc()
			p.logger.Error("work panicked", zap.Any("panic", r))
		} else if err != nil {
			metrics.ExecutionUnits.WithLabelValues("error").Inc()
		} else {
			metrics.ExecutionUnits.WithLabelValues("success").Inc()
		}
		span.Finish(err)
	}()
	return work(ctx)
}

// Inline is a Context running work on the calling goroutine. It is active
// until its context is done.
type Inline struct {
	Ctx context.Context
}

// IsActive reports whether the inline context accepts work.
func (c Inline) IsActive() bool { return c.context().Err() == nil }

func (c Inline) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Submit runs work immediately and returns its completed future.
func (c Inline) Submit(work Work) (*Future, error) {
	if !c.IsActive() {
		return nil, Aborted()
	}
	future := newFuture()
	future.complete(c.run(work))
	return future, nil
}

// Call runs work immediately.
func (c Inline) Call(work Work) (any, error) {
	if !c.IsActive() {
		return nil, Aborted()
	}
	return c.run(work)
}

func (c Inline) run(work Work) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, panicError(r)
			logger.Error("work panicked", zap.Any("panic", r))
		}
	}()
	return work(c.context())
}
