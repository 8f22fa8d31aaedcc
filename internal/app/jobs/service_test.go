package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/airenas/asrjobs/internal/pkg/status"
	"github.com/airenas/asrjobs/internal/pkg/test/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"

	. "github.com/smartystreets/goconvey/convey"
)

type testSubmitter struct {
	lock sync.Mutex
	jobs []*job.Job
}

func (s *testSubmitter) Submit(j *job.Job) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.jobs = append(s.jobs, j)
}

type testRunner struct {
	outcome job.Outcome
	jobs    []*job.Job
}

func (r *testRunner) Run(ctx context.Context, j *job.Job) job.Outcome {
	r.jobs = append(r.jobs, j)
	return r.outcome
}

func newTestData() (*ServiceData, *testSubmitter) {
	s := &testSubmitter{}
	return &ServiceData{Submitter: s, APIPrefix: "/api/v1"}, s
}

func detail(body []byte) string {
	var r errorResponse
	json.Unmarshal(body, &r)
	return r.Detail
}

func TestWrongPath(t *testing.T) {
	Convey("Given a HTTP request for /invalid", t, func() {
		req := httptest.NewRequest("GET", "/invalid", nil)
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			data, _ := newTestData()
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 404", func() {
				So(resp.Code, ShouldEqual, 404)
			})
		})
	})
}

func TestAsyncJob(t *testing.T) {
	Convey("Given an async job request with query flags", t, func() {
		req := httptest.NewRequest("POST", "/api/v1/jobs?send_to_webhook=true",
			strings.NewReader(`{"job_name":"job-42","task_token":"tok-abc","url":"http://audio/1.wav","vocab":[]}`))
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			data, s := newTestData()
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 202 with the echoed ids", func() {
				So(resp.Code, ShouldEqual, 202)
				So(resp.Body.String(), ShouldEqual, `{"job_name":"job-42","task_token":"tok-abc"}`+"\n")
			})
			Convey("Then the job is submitted", func() {
				So(len(s.jobs), ShouldEqual, 1)
				So(s.jobs[0].Audio.URL, ShouldEqual, "http://audio/1.wav")
				So(s.jobs[0].SendToWebhook, ShouldBeTrue)
				So(s.jobs[0].SendToStorage, ShouldBeFalse)
				So(s.jobs[0].Spec.Vocab, ShouldBeNil)
			})
		})
	})
}

func TestAsyncJob_GeneratesName(t *testing.T) {
	Convey("Given an async job request without job name", t, func() {
		req := httptest.NewRequest("POST", "/api/v1/jobs?url=https://audio/1.wav&send_to_s3=1", nil)
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			data, s := newTestData()
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the job name is generated", func() {
				So(resp.Code, ShouldEqual, 202)
				var r JobResponse
				So(json.Unmarshal(resp.Body.Bytes(), &r), ShouldBeNil)
				So(r.JobName, ShouldStartWith, "audio_url_")
				So(len(r.JobName), ShouldEqual, len("audio_url_")+32)
				So(s.jobs[0].Spec.JobName, ShouldEqual, r.JobName)
				So(s.jobs[0].SendToStorage, ShouldBeTrue)
			})
		})
	})
}

func TestAsyncJob_SavesStatus(t *testing.T) {
	Convey("Given an async job request and status tracking", t, func() {
		req := httptest.NewRequest("POST", "/api/v1/jobs",
			strings.NewReader(`{"job_name":"job-42","url":"http://audio/1.wav"}`))
		resp := httptest.NewRecorder()
		ss := &mocks.StatusSaver{}
		ss.On("Save", mock.Anything, "job-42", "", status.Accepted).Return(nil)

		Convey("When the request is handled by the Router", func() {
			data, _ := newTestData()
			data.StatusSaver = ss
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the status is saved", func() {
				So(resp.Code, ShouldEqual, 202)
				So(len(ss.Calls), ShouldEqual, 1)
			})
		})
	})
}

func TestAsyncJob_Fails(t *testing.T) {
	tests := []struct {
		url, body, detail string
	}{
		{url: "/api/v1/jobs", body: `{"job_name":"a"}`, detail: "url is required"},
		{url: "/api/v1/jobs", body: `{"url":"ftp://a/b"}`, detail: "wrong url"},
		{url: "/api/v1/jobs", body: `{"url":"http://a/b","vocab":["a",2,"c"]}`, detail: "vocab must be a list of strings"},
		{url: "/api/v1/jobs", body: `{"url":"http://a/b","batch_size":0}`},
		{url: "/api/v1/jobs", body: `{`},
		{url: "/api/v1/jobs?url=http://a/b&send_to_webhook=olia", body: ``},
	}
	for _, tc := range tests {
		Convey("Given a wrong async request "+tc.url+" "+tc.body, t, func() {
			req := httptest.NewRequest("POST", tc.url, strings.NewReader(tc.body))
			resp := httptest.NewRecorder()

			Convey("When the request is handled by the Router", func() {
				data, s := newTestData()
				NewRouter(data).ServeHTTP(resp, req)

				Convey("Then the response should be a 400", func() {
					So(resp.Code, ShouldEqual, 400)
					So(len(s.jobs), ShouldEqual, 0)
					if tc.detail != "" {
						So(detail(resp.Body.Bytes()), ShouldEqual, tc.detail)
					}
				})
			})
		})
	}
}

func syncBody(withFile bool, fields map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if withFile {
		part, _ := writer.CreateFormFile("file", "1.wav")
		part.Write([]byte("wav"))
	}
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestSyncJob(t *testing.T) {
	Convey("Given a sync job request", t, func() {
		body, ct := syncBody(true, map[string]string{"job_name": "job-42", "diarization": "true"})
		req := httptest.NewRequest("POST", "/api/v1/jobs/sync", body)
		req.Header.Set("Content-Type", ct)
		resp := httptest.NewRecorder()

		Convey("When the processing succeeds", func() {
			data, _ := newTestData()
			r := &testRunner{outcome: &job.Success{Result: &job.Result{AudioDuration: 1.5,
				Utterances: []job.Utterance{{Text: "Hi.", End: 1}}}}}
			data.Runner = r
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 200 with the result", func() {
				So(resp.Code, ShouldEqual, 200)
				So(resp.Body.String(), ShouldContainSubstring, `"text":"Hi."`)
				So(resp.Body.String(), ShouldContainSubstring, `"job_name":"job-42"`)
			})
			Convey("Then the runner gets the file", func() {
				So(len(r.jobs), ShouldEqual, 1)
				So(string(r.jobs[0].Audio.Data), ShouldEqual, "wav")
				So(r.jobs[0].Audio.FileName, ShouldEqual, "1.wav")
				So(r.jobs[0].Spec.Diarization, ShouldBeTrue)
			})
		})
	})
}

func TestSyncJob_Fails(t *testing.T) {
	Convey("Given a sync job request", t, func() {
		body, ct := syncBody(true, nil)
		req := httptest.NewRequest("POST", "/api/v1/jobs/sync", body)
		req.Header.Set("Content-Type", ct)
		resp := httptest.NewRecorder()

		Convey("When the processing fails", func() {
			data, _ := newTestData()
			data.Runner = &testRunner{outcome: &job.Failure{Source: job.SourceTranscription, Message: "decode error"}}
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 500 with the detail", func() {
				So(resp.Code, ShouldEqual, 500)
				So(detail(resp.Body.Bytes()), ShouldEqual, "Process failed: decode error")
			})
		})
	})
}

func TestSyncJob_BadRequest(t *testing.T) {
	tests := []struct {
		name   string
		file   bool
		fields map[string]string
	}{
		{name: "no file", file: false},
		{name: "wrong int", file: true, fields: map[string]string{"num_speakers": "many"}},
		{name: "wrong batch", file: true, fields: map[string]string{"batch_size": "0"}},
	}
	for _, tc := range tests {
		Convey("Given a sync request with "+tc.name, t, func() {
			body, ct := syncBody(tc.file, tc.fields)
			req := httptest.NewRequest("POST", "/api/v1/jobs/sync", body)
			req.Header.Set("Content-Type", ct)
			resp := httptest.NewRecorder()

			Convey("When the request is handled by the Router", func() {
				data, _ := newTestData()
				r := &testRunner{}
				data.Runner = r
				NewRouter(data).ServeHTTP(resp, req)

				Convey("Then the response should be a 400", func() {
					So(resp.Code, ShouldEqual, 400)
					So(len(r.jobs), ShouldEqual, 0)
				})
			})
		})
	}
}

func TestSyncJob_NoForm(t *testing.T) {
	Convey("Given a sync request without a form", t, func() {
		req := httptest.NewRequest("POST", "/api/v1/jobs/sync", nil)
		resp := httptest.NewRecorder()

		Convey("When the request is handled by the Router", func() {
			data, _ := newTestData()
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 400", func() {
				So(resp.Code, ShouldEqual, 400)
			})
		})
	})
}

func TestWriteSpecError(t *testing.T) {
	Convey("Given job params errors", t, func() {
		_, verr := job.FromJSON([]byte(`{"batch_size": 0}`))
		So(verr, ShouldNotBeNil)

		Convey("When a validation error is written", func() {
			resp := httptest.NewRecorder()
			writeSpecError(resp, verr)

			Convey("Then the response should be a 400 with the message", func() {
				So(resp.Code, ShouldEqual, 400)
				So(resp.Body.String(), ShouldContainSubstring, verr.Error())
			})
		})
		Convey("When another error is written", func() {
			resp := httptest.NewRecorder()
			writeSpecError(resp, errors.New("olia"))

			Convey("Then the response should be a 500", func() {
				So(resp.Code, ShouldEqual, 500)
				So(resp.Body.String(), ShouldNotContainSubstring, "olia")
			})
		})
	})
}

func TestStatus(t *testing.T) {
	Convey("Given a status request", t, func() {
		req := httptest.NewRequest("GET", "/api/v1/jobs/job-42", nil)
		resp := httptest.NewRecorder()
		sp := &mocks.StatusProvider{}

		Convey("When the job is known", func() {
			sp.On("Get", mock.Anything, "job-42").Return(&status.Record{JobName: "job-42", Status: "FINISHED",
				Updated: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}, nil)
			data, _ := newTestData()
			data.StatusProvider = sp
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 200 with the status", func() {
				So(resp.Code, ShouldEqual, 200)
				So(resp.Body.String(), ShouldContainSubstring, `"status":"FINISHED"`)
			})
		})
		Convey("When the job is unknown", func() {
			sp.On("Get", mock.Anything, "job-42").Return(nil, status.ErrNotFound)
			data, _ := newTestData()
			data.StatusProvider = sp
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 404", func() {
				So(resp.Code, ShouldEqual, 404)
			})
		})
		Convey("When the tracking is disabled", func() {
			data, _ := newTestData()
			NewRouter(data).ServeHTTP(resp, req)

			Convey("Then the response should be a 404", func() {
				So(resp.Code, ShouldEqual, 404)
			})
		})
	})
}
