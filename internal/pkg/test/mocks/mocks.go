package mocks

import (
	"context"

	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/airenas/asrjobs/internal/pkg/status"
	"github.com/stretchr/testify/mock"
)

//Processor is a mock
type Processor struct {
	mock.Mock
}

//Warmup is a mocked Warmup function
func (m *Processor) Warmup(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

//Process is a mocked Process function
func (m *Processor) Process(ctx context.Context, spec *job.Spec, audio *job.Audio) (*job.Result, error) {
	args := m.Called(ctx, spec, audio)
	return mocksResult(args.Get(0)), args.Error(1)
}

//Saver is a mock
type Saver struct {
	mock.Mock
}

//Save is a mocked Save function
func (m *Saver) Save(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

//Sink is a mock
type Sink struct {
	mock.Mock
}

//Store is a mocked Store function
func (m *Sink) Store(ctx context.Context, spec *job.Spec, result *job.Result) bool {
	args := m.Called(ctx, spec, result)
	return args.Bool(0)
}

//Notifier is a mock
type Notifier struct {
	mock.Mock
}

//Notify is a mocked Notify function
func (m *Notifier) Notify(ctx context.Context, spec *job.Spec, outcome job.Outcome) {
	m.Called(ctx, spec, outcome)
}

//StatusSaver is a mock
type StatusSaver struct {
	mock.Mock
}

//Save is a mocked Save function
func (m *StatusSaver) Save(ctx context.Context, jobName, taskToken string, st status.Status) error {
	args := m.Called(ctx, jobName, taskToken, st)
	return args.Error(0)
}

//SaveError is a mocked SaveError function
func (m *StatusSaver) SaveError(ctx context.Context, jobName, errorStr string) error {
	args := m.Called(ctx, jobName, errorStr)
	return args.Error(0)
}

//StatusProvider is a mock
type StatusProvider struct {
	mock.Mock
}

//Get is a mocked Get function
func (m *StatusProvider) Get(ctx context.Context, jobName string) (*status.Record, error) {
	args := m.Called(ctx, jobName)
	r, _ := args.Get(0).(*status.Record)
	return r, args.Error(1)
}

func mocksResult(v interface{}) *job.Result {
	r, _ := v.(*job.Result)
	return r
}
