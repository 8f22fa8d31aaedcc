package jobs

import (
	"context"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/gate"
	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/airenas/asrjobs/internal/pkg/status"
	"github.com/pkg/errors"
)

//Sink persists successful results
type Sink interface {
	Store(ctx context.Context, spec *job.Spec, result *job.Result) bool
}

//Notifier reports the job outcome to the job owner
type Notifier interface {
	Notify(ctx context.Context, spec *job.Spec, outcome job.Outcome)
}

//Runner executes a job to its terminal outcome. It is the only caller of Sink and Notifier
type Runner struct {
	processor job.Processor
	gate      *gate.Gate

	Sink        Sink
	Notifier    Notifier
	StatusSaver status.Saver

	metrics *serviceMetrics
}

//NewRunner creates the runner, optional collaborators are set through the fields
func NewRunner(processor job.Processor, g *gate.Gate) (*Runner, error) {
	if processor == nil {
		return nil, errors.New("No processor")
	}
	if g == nil {
		return nil, errors.New("No gate")
	}
	return &Runner{processor: processor, gate: g}, nil
}

//Run processes the job holding a gate slot. No retries are done
func (r *Runner) Run(ctx context.Context, j *job.Job) job.Outcome {
	start := time.Now()
	res := r.run(ctx, j, nil)
	r.metrics.observeJob(modeSync, res, time.Since(start))
	return res
}

//Execute runs the job and completes it: stores the result, saves the status and notifies
func (r *Runner) Execute(ctx context.Context, j *job.Job) job.Outcome {
	start := time.Now()
	res := r.run(ctx, j, func() { r.saveStatus(ctx, j, status.Processing, "") })
	r.Complete(ctx, j, res)
	r.metrics.observeJob(modeAsync, res, time.Since(start))
	return res
}

func (r *Runner) run(ctx context.Context, j *job.Job, started func()) job.Outcome {
	var res *job.Result
	err := r.gate.Do(ctx, func(ctx context.Context) error {
		if started != nil {
			started()
		}
		var err error
		res, err = r.safeProcess(ctx, j)
		return err
	})
	return toOutcome(res, err)
}

func (r *Runner) safeProcess(ctx context.Context, j *job.Job) (res *job.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, errors.Errorf("panic: %v", rec)
		}
	}()
	res, err = r.processor.Process(ctx, &j.Spec, &j.Audio)
	if err == nil && res == nil {
		err = errors.New("no result")
	}
	return res, err
}

func toOutcome(res *job.Result, err error) job.Outcome {
	if err == nil {
		return &job.Success{Result: res}
	}
	var pe *job.ProcessError
	if errors.As(err, &pe) {
		return &job.Failure{Source: pe.Source, Message: pe.Message}
	}
	return &job.Failure{Source: job.SourceUnknown, Message: err.Error()}
}

//Complete stores the result before the notification, each is invoked at most once.
// Storage failure does not change the outcome
func (r *Runner) Complete(ctx context.Context, j *job.Job, outcome job.Outcome) {
	log := cmdapp.Log.WithField("job_name", j.Spec.JobName)
	switch o := outcome.(type) {
	case *job.Success:
		log.Info("Job finished")
		res := o.Result.WithSpec(j.Spec)
		outcome = &job.Success{Result: res}
		if j.SendToStorage {
			if r.Sink == nil {
				log.Warn("No storage configured, result is not saved")
			} else if !r.Sink.Store(ctx, &j.Spec, res) {
				log.Warn("Result is not saved")
			}
		}
		r.saveStatus(ctx, j, status.Finished, "")
	case *job.Failure:
		log.Error(o.Text())
		r.saveStatus(ctx, j, status.Error, o.Text())
	default:
		log.Errorf("Unknown outcome %T", outcome)
		return
	}
	if j.SendToWebhook {
		if r.Notifier == nil {
			log.Warn("No notifier configured")
			return
		}
		r.Notifier.Notify(ctx, &j.Spec, outcome)
	}
}

func (r *Runner) saveStatus(ctx context.Context, j *job.Job, st status.Status, errStr string) {
	if r.StatusSaver == nil {
		return
	}
	var err error
	if st == status.Error {
		err = r.StatusSaver.SaveError(ctx, j.Spec.JobName, errStr)
	} else {
		err = r.StatusSaver.Save(ctx, j.Spec.JobName, j.Spec.TaskToken, st)
	}
	cmdapp.LogIf(err)
}
