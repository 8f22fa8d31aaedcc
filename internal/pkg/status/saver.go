package status

import (
	"context"

	"github.com/pkg/errors"
)

//ErrNotFound is returned by Provider for an unknown job
var ErrNotFound = errors.New("job not found")

//Saver saves the job status
type Saver interface {
	Save(ctx context.Context, jobName, taskToken string, st Status) error
	SaveError(ctx context.Context, jobName, errorStr string) error
}

//Provider returns the saved job status
type Provider interface {
	Get(ctx context.Context, jobName string) (*Record, error)
}
