package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned for commands submitted after Close.
var ErrClosed = errors.New("bridge closed")

type result struct {
	val any
	err error
}

type job struct {
	ctx    context.Context
	name   string
	id     string
	fn     func(context.Context) (any, error)
	result chan result
}

// executor runs jobs one at a time, in arrival order, on a single worker
// goroutine. At most maxPending callers hold a slot; the rest wait on
// their own context.
type executor struct {
	jobs   chan job
	slots  *semaphore.Weighted
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newExecutor(maxPending int, logger *zap.Logger) *executor {
	if maxPending <= 0 {
		maxPending = 16
	}
	e := &executor{
		jobs:   make(chan job),
		slots:  semaphore.NewWeighted(int64(maxPending)),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go e.run()
	return e
}

// submit queues fn and waits for its result. A caller whose ctx ends
// while queued abandons the request; the worker skips it.
func (e *executor) submit(ctx context.Context, name, id string, fn func(context.Context) (any, error)) (any, error) {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.slots.Release(1)

	j := job{ctx: ctx, name: name, id: id, fn: fn, result: make(chan result, 1)}
	select {
	case e.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.quit:
		return nil, ErrClosed
	}

	select {
	case r := <-j.result:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *executor) run() {
	defer close(e.done)
	for {
		select {
		case j := <-e.jobs:
			j.result <- e.exec(j)
		case <-e.quit:
			return
		}
	}
}

func (e *executor) exec(j job) (r result) {
	if err := j.ctx.Err(); err != nil {
		e.logger.Debug("skipping abandoned command", zap.String("command", j.name), zap.String("request", j.id))
		return result{err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("command panicked",
				zap.String("command", j.name),
				zap.String("request", j.id),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()))
			r = result{err: newError(KindInternal, fmt.Sprintf("%s panicked", j.name), fmt.Errorf("%v", p))}
		}
	}()
	v, err := j.fn(j.ctx)
	return result{val: v, err: err}
}

// close stops the worker after the job in flight, if any, finishes.
func (e *executor) close() {
	e.once.Do(func() {
		close(e.quit)
		<-e.done
	})
}
