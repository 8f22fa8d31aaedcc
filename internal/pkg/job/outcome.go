package job

import (
	"fmt"
)

//ProcessError is a typed failure returned by a Processor
type ProcessError struct {
	Source  Source
	Message string
}

//NewProcessError creates a process error for the stage
func NewProcessError(source Source, message string) *ProcessError {
	return &ProcessError{Source: source, Message: message}
}

//WrapProcessError makes a process error from err, nil stays nil
func WrapProcessError(source Source, err error) error {
	if err == nil {
		return nil
	}
	return &ProcessError{Source: source, Message: err.Error()}
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

//Outcome is a terminal result of a job: *Success or *Failure
type Outcome interface {
	outcome()
}

//Success holds the result of a finished job
type Success struct {
	Result *Result
}

//Failure describes why the job failed
type Failure struct {
	Source  Source
	Message string
}

func (*Success) outcome() {}
func (*Failure) outcome() {}

//Text returns the message that is reported to the job owner
func (f *Failure) Text() string {
	return fmt.Sprintf("Error during %s: %s", f.Source.Stage(), f.Message)
}
