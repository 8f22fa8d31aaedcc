package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/airenas/asrjobs/internal/pkg/status"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxJSONBody   = 1 << 20
	maxFormMemory = 32 << 20
	jobNamePrefix = "audio_url_"
)

//JobSubmitter schedules async jobs
type JobSubmitter interface {
	Submit(j *job.Job)
}

//JobRunner runs a job synchronously
type JobRunner interface {
	Run(ctx context.Context, j *job.Job) job.Outcome
}

//ServiceData keeps data required for service work
type ServiceData struct {
	Submitter      JobSubmitter
	Runner         JobRunner
	StatusSaver    status.Saver
	StatusProvider status.Provider

	APIPrefix string
	Port      int
	health    healthcheck.Handler
	metrics   *serviceMetrics
}

//JobResponse is the async job response
type JobResponse struct {
	JobName   string `json:"job_name"`
	TaskToken string `json:"task_token"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type asyncParams struct {
	URL           string `json:"url"`
	SendToStorage bool   `json:"send_to_storage"`
	SendToWebhook bool   `json:"send_to_webhook"`
}

//StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      60 * time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       180 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

//NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix(strings.TrimSuffix(data.APIPrefix, "/")).Subrouter()
	api.Methods("POST").Path("/jobs").Handler(instrument(data.metrics, "jobs", asyncHandler{data: data}))
	api.Methods("POST").Path("/jobs/sync").Handler(instrument(data.metrics, "sync", syncHandler{data: data}))
	api.Methods("GET").Path("/jobs/{jobName}").Handler(instrument(data.metrics, "status", statusHandler{data: data}))
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

func instrument(m *serviceMetrics, name string, h http.Handler) http.Handler {
	if m == nil {
		return h
	}
	l := prometheus.Labels{"handler": name}
	return promhttp.InstrumentHandlerDuration(m.responseDur.MustCurryWith(l),
		promhttp.InstrumentHandlerRequestSize(m.requestSize.MustCurryWith(l), h))
}

type asyncHandler struct {
	data *ServiceData
}

func (h asyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Async job request from %s", r.Host)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, "Can't read body", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't read body"))
		return
	}
	spec, err := job.FromJSON(body)
	if err != nil {
		writeSpecError(w, err)
		return
	}
	prm, err := readAsyncParams(body, r.URL.Query())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	if spec.JobName == "" {
		spec.JobName = newJobName()
	}
	j := &job.Job{Spec: spec, Audio: job.Audio{URL: prm.URL},
		SendToStorage: prm.SendToStorage, SendToWebhook: prm.SendToWebhook}

	if h.data.StatusSaver != nil {
		cmdapp.LogIf(h.data.StatusSaver.Save(r.Context(), spec.JobName, spec.TaskToken, status.Accepted))
	}
	h.data.Submitter.Submit(j)
	cmdapp.Log.WithField("job_name", spec.JobName).Info("Job accepted")

	writeJSON(w, http.StatusAccepted, JobResponse{JobName: spec.JobName, TaskToken: spec.TaskToken})
}

// query params win over the body ones, send_to_s3 and send_to_svix are older names
func readAsyncParams(body []byte, query url.Values) (*asyncParams, error) {
	res := &asyncParams{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, res); err != nil {
			return nil, &job.ValidationError{Msg: "wrong url or send flags"}
		}
	}
	if v := query.Get("url"); v != "" {
		res.URL = v
	}
	var err error
	for _, p := range []struct {
		names []string
		to    *bool
	}{{[]string{"send_to_storage", "send_to_s3"}, &res.SendToStorage},
		{[]string{"send_to_webhook", "send_to_svix"}, &res.SendToWebhook}} {
		for _, n := range p.names {
			if v := query.Get(n); v != "" {
				if *p.to, err = strconv.ParseBool(v); err != nil {
					return nil, &job.ValidationError{Msg: n + " must be a bool, got '" + v + "'"}
				}
			}
		}
	}
	if res.URL == "" {
		return nil, &job.ValidationError{Msg: "url is required"}
	}
	u, err := url.Parse(res.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &job.ValidationError{Msg: "wrong url"}
	}
	return res, nil
}

func newJobName() string {
	return jobNamePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

type syncHandler struct {
	data *ServiceData
}

func (h syncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Sync job request from %s", r.Host)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, "Can't parse MultipartForm", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't parse MultipartForm"))
		return
	}
	defer cleanFiles(r.MultipartForm)

	spec, err := job.FromForm(r.MultipartForm.Value)
	if err != nil {
		writeSpecError(w, err)
		return
	}
	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Can't read file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}

	outcome := h.data.Runner.Run(r.Context(), &job.Job{Spec: spec,
		Audio: job.Audio{FileName: fh.Filename, Data: data}})
	switch o := outcome.(type) {
	case *job.Success:
		writeJSON(w, http.StatusOK, o.Result.WithSpec(spec))
	case *job.Failure:
		cmdapp.Log.WithField("job_name", spec.JobName).Error(o.Text())
		writeError(w, "Process failed: "+o.Message, http.StatusInternalServerError)
	}
}

type statusHandler struct {
	data *ServiceData
}

func (h statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["jobName"]
	if h.data.StatusProvider == nil {
		writeError(w, "Status tracking is disabled", http.StatusNotFound)
		return
	}
	res, err := h.data.StatusProvider.Get(r.Context(), name)
	if errors.Is(err, status.ErrNotFound) {
		writeError(w, "Unknown job: "+name, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "Can not get status", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		f.RemoveAll()
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		cmdapp.Log.Error(errors.Wrap(err, "Can not write result"))
	}
}

func writeSpecError(w http.ResponseWriter, err error) {
	cmdapp.Log.Error(err)
	if job.IsValidationError(err) {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeError(w, "Can't read job params", http.StatusInternalServerError)
}

func writeError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorResponse{Detail: msg})
}
