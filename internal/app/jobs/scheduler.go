package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/job"
)

//Executor runs a job to completion
type Executor interface {
	Execute(ctx context.Context, j *job.Job) job.Outcome
}

//Scheduler runs submitted jobs in the background, off the request path
type Scheduler struct {
	executor Executor
	ctx      context.Context
	wg       sync.WaitGroup
}

//NewScheduler creates the scheduler, jobs get ctx, not the request context
func NewScheduler(ctx context.Context, executor Executor) *Scheduler {
	return &Scheduler{executor: executor, ctx: ctx}
}

//Submit starts the job and returns immediately
func (s *Scheduler) Submit(j *job.Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executor.Execute(s.ctx, j)
	}()
}

//Wait waits for the running jobs to finish, false on timeout
func (s *Scheduler) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		cmdapp.Log.Warn("Timeout waiting for running jobs")
		return false
	}
}
