package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/stretchr/testify/assert"
)

type testExecutor struct {
	done  int32
	delay time.Duration
	ctx   context.Context
}

func (e *testExecutor) Execute(ctx context.Context, j *job.Job) job.Outcome {
	e.ctx = ctx
	time.Sleep(e.delay)
	atomic.AddInt32(&e.done, 1)
	return &job.Success{Result: &job.Result{}}
}

func TestScheduler_SubmitDoesNotWait(t *testing.T) {
	e := &testExecutor{delay: 50 * time.Millisecond}
	s := NewScheduler(context.Background(), e)

	st := time.Now()
	s.Submit(&job.Job{})
	s.Submit(&job.Job{})
	assert.Less(t, int64(time.Since(st)), int64(40*time.Millisecond))

	assert.True(t, s.Wait(time.Second))
	assert.Equal(t, int32(2), atomic.LoadInt32(&e.done))
}

func TestScheduler_WaitTimeout(t *testing.T) {
	e := &testExecutor{delay: 200 * time.Millisecond}
	s := NewScheduler(context.Background(), e)

	s.Submit(&job.Job{})

	assert.False(t, s.Wait(10*time.Millisecond))
	assert.True(t, s.Wait(time.Second))
}

func TestScheduler_UsesOwnContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	e := &testExecutor{}
	s := NewScheduler(ctx, e)

	s.Submit(&job.Job{})
	s.Wait(time.Second)

	assert.Equal(t, "v", e.ctx.Value(key{}))
}
