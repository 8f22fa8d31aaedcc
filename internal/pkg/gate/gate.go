package gate

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

//DefaultCapacity is the number of jobs allowed to run at once if not configured
const DefaultCapacity = 10

//Gate bounds the number of concurrently running jobs.
// Waiters are woken in FIFO order
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    int64
}

//New creates a gate with the capacity
func New(capacity int) (*Gate, error) {
	if capacity < 1 {
		return nil, errors.Errorf("wrong gate capacity %d, must be >= 1", capacity)
	}
	return &Gate{sem: semaphore.NewWeighted(int64(capacity)), capacity: int64(capacity)}, nil
}

//Acquire waits for a free slot. Returns ctx.Err() if ctx is done before the slot is taken
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "can't enter gate")
	}
	atomic.AddInt64(&g.inUse, 1)
	return nil
}

//Release frees the slot taken by Acquire, never blocks.
//A release with no slot taken is ignored
func (g *Gate) Release() {
	for {
		n := atomic.LoadInt64(&g.inUse)
		if n <= 0 {
			return
		}
		if atomic.CompareAndSwapInt64(&g.inUse, n, n-1) {
			g.sem.Release(1)
			return
		}
	}
}

//Do runs f holding a slot. The slot is released on every exit path, a panic is passed to the caller
func (g *Gate) Do(ctx context.Context, f func(context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return f(ctx)
}

//InUse returns the number of taken slots
func (g *Gate) InUse() int {
	return int(atomic.LoadInt64(&g.inUse))
}

//Capacity returns the max number of slots
func (g *Gate) Capacity() int {
	return int(g.capacity)
}
