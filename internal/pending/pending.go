// Package pending bridges a platform callback into a bounded synchronous
// wait. A Cell is settled exactly once: by the callback, by its timeout,
// or by the waiter's context. Whatever loses the race is a no-op.
package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is the settled error of a Cell whose wait elapsed first.
var ErrTimeout = errors.New("timed out waiting for platform callback")

// Cell is a single-assignment result slot.
type Cell[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns an unsettled cell.
func New[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Resolve settles the cell with v. It reports false if the cell was
// already settled, in which case v was not stored and ownership of any
// resource it holds stays with the caller.
func (c *Cell[T]) Resolve(v T) bool {
	return c.settle(v, nil)
}

// Reject settles the cell with err. It reports false if the cell was
// already settled.
func (c *Cell[T]) Reject(err error) bool {
	var zero T
	return c.settle(zero, err)
}

func (c *Cell[T]) settle(v T, err error) bool {
	won := false
	c.once.Do(func() {
		c.val, c.err = v, err
		close(c.done)
		won = true
	})
	return won
}

// Result blocks until the cell is settled and returns what it holds.
func (c *Cell[T]) Result() (T, error) {
	<-c.done
	return c.val, c.err
}

// Done is closed once the cell is settled.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cell settles, timeout elapses, or ctx is done.
// On timeout the cell settles itself with ErrTimeout; on cancellation
// with ctx.Err(). Either way, a callback that arrives later is ignored.
func (c *Cell[T]) Wait(ctx context.Context, timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.done:
	case <-timer.C:
		c.Reject(ErrTimeout)
	case <-ctx.Done():
		c.Reject(ctx.Err())
	}
	// A callback may have won the race against the timer; the settled
	// value is authoritative either way.
	return c.Result()
}
