package status

import (
	"time"
)

//Status represents the background job state
type Status int

const (
	//Accepted - job is scheduled
	Accepted Status = iota + 1
	//Processing - job entered the gate and is being transcribed
	Processing
	//Finished - job completed successfully
	Finished
	//Error - job failed
	Error
)

var statusName = map[Status]string{Accepted: "ACCEPTED", Processing: "PROCESSING",
	Finished: "FINISHED", Error: "ERROR"}

//Name returns the persisted status name
func Name(st Status) string {
	return statusName[st]
}

//Record is a persisted job state
type Record struct {
	JobName   string    `json:"job_name" bson:"jobName"`
	TaskToken string    `json:"task_token,omitempty" bson:"taskToken,omitempty"`
	Status    string    `json:"status" bson:"status"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	Updated   time.Time `json:"updated" bson:"updated"`
}
