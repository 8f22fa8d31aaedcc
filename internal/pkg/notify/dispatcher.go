package notify

import (
	"context"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	//DefaultProduct is used in event types if not configured
	DefaultProduct = "asr_jobs"
	//DefaultRetentionDays is the default payload retention period of the event bus
	DefaultRetentionDays = 5
)

//Sender delivers the event to the event bus
type Sender interface {
	Send(ctx context.Context, event *Event) error
}

//ErrorPayload is sent with the error event
type ErrorPayload struct {
	Error     string `json:"error"`
	JobName   string `json:"job_name"`
	TaskToken string `json:"task_token"`
}

//Dispatcher sends one event per job outcome
type Dispatcher struct {
	sender        Sender
	product       string
	retentionDays int
	now           func() time.Time
}

//NewDispatcher creates the dispatcher. A nil sender makes it a no-op that only logs warnings
func NewDispatcher(sender Sender, product string, retentionDays int) *Dispatcher {
	if product == "" {
		product = DefaultProduct
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Dispatcher{sender: sender, product: product, retentionDays: retentionDays, now: time.Now}
}

//Enabled returns true if the event bus credentials are configured
func (d *Dispatcher) Enabled() bool {
	return d.sender != nil
}

//Notify sends finished or error event for the outcome. Delivery errors are logged only
func (d *Dispatcher) Notify(ctx context.Context, spec *job.Spec, outcome job.Outcome) {
	log := cmdapp.Log.WithField("job_name", spec.JobName)
	event, err := d.makeEvent(spec, outcome)
	if err != nil {
		log.Error(err)
		return
	}
	if !d.Enabled() {
		log.Warnf("Event bus API key and app ID are not set. Can't send '%s' event", event.EventType)
		return
	}
	if err := d.sender.Send(ctx, event); err != nil {
		log.Error(errors.Wrapf(err, "Can't send event %s", event.EventID))
		return
	}
	log.WithFields(logrus.Fields{"event_id": event.EventID}).Infof("Sent %s", event.EventType)
}

func (d *Dispatcher) makeEvent(spec *job.Spec, outcome job.Outcome) (*Event, error) {
	switch o := outcome.(type) {
	case *job.Success:
		if o.Result == nil {
			return nil, errors.New("No result for finished job")
		}
		return newEvent(d.product, StatusFinished, spec.JobName, d.now(),
			o.Result.WithSpec(*spec).WithoutWords(), d.retentionDays), nil
	case *job.Failure:
		return newEvent(d.product, StatusError, spec.JobName, d.now(),
			&ErrorPayload{Error: o.Text(), JobName: spec.JobName, TaskToken: spec.TaskToken},
			d.retentionDays), nil
	}
	return nil, errors.Errorf("Unknown outcome %T", outcome)
}
