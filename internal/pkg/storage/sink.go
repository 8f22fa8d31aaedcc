package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
)

const resultExt = "json"

//Sink archives job results. Failures are logged only
type Sink struct {
	saver   Saver
	retries uint64
}

//NewSink creates the sink, retries is the count of additional attempts for a failed write
func NewSink(saver Saver, retries int) (*Sink, error) {
	if saver == nil {
		return nil, errors.New("No saver")
	}
	if retries < 0 {
		retries = 0
	}
	return &Sink{saver: saver, retries: uint64(retries)}, nil
}

//Key returns the storage key of the job result
func Key(spec *job.Spec) string {
	return fmt.Sprintf("responses/%s_%s.%s", spec.TaskToken, spec.JobName, resultExt)
}

//Store saves the result, returns false on failure
func (s *Sink) Store(ctx context.Context, spec *job.Spec, result *job.Result) bool {
	key := Key(spec)
	if err := s.store(ctx, key, result); err != nil {
		cmdapp.Log.WithField("job_name", spec.JobName).Error(errors.Wrap(err, "Can't store result"))
		return false
	}
	return true
}

func (s *Sink) store(ctx context.Context, key string, result *job.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "Can't marshal result")
	}
	try := 0
	op := func() error {
		try++
		err := s.saver.Save(ctx, key, data)
		if err != nil && uint64(try) <= s.retries {
			cmdapp.Log.Warnf("Save %s failed (%d), will retry: %v", key, try, err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(newBackoff(), s.retries), ctx))
}

func newBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	res.MaxElapsedTime = 0
	return res
}
