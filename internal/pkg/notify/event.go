package notify

import (
	"fmt"
	"strings"
	"time"
)

//Status is the terminal job status reported to the event bus
type Status int

const (
	//StatusFinished is sent for a successful job
	StatusFinished Status = iota + 1
	//StatusError is sent for a failed job
	StatusError
)

var statusName = map[Status]string{StatusFinished: "finished", StatusError: "error"}

func (s Status) String() string {
	return statusName[s]
}

const (
	eventTypePrefix = "async_job"
	// fractional part is required for unique ids of quick jobs
	eventTimeLayout = "2006_01_02_15_04_05.000000"
)

//Event is a message for the event bus
type Event struct {
	EventType           string      `json:"eventType"`
	EventID             string      `json:"eventId"`
	Payload             interface{} `json:"payload"`
	RetentionPeriodDays int         `json:"payloadRetentionPeriod"`
}

//EventType returns async_job.<product>.<status>
func EventType(product string, st Status) string {
	return fmt.Sprintf("%s.%s.%s", eventTypePrefix, product, st)
}

//EventID makes a deterministic event id: <product>_<status>_<job>_<time with microseconds>
func EventID(product string, st Status, jobName string, at time.Time) string {
	ts := strings.Replace(at.Format(eventTimeLayout), ".", "_", 1)
	return fmt.Sprintf("%s_%s_%s_%s", product, st, jobName, ts)
}

func newEvent(product string, st Status, jobName string, at time.Time, payload interface{}, retention int) *Event {
	return &Event{EventType: EventType(product, st), EventID: EventID(product, st, jobName, at),
		Payload: payload, RetentionPeriodDays: retention}
}
