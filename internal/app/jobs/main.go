package jobs

import (
	"context"
	"runtime"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/gate"
	"github.com/airenas/asrjobs/internal/pkg/mongo"
	"github.com/airenas/asrjobs/internal/pkg/notify"
	"github.com/airenas/asrjobs/internal/pkg/settings"
	"github.com/airenas/asrjobs/internal/pkg/storage"
	"github.com/airenas/asrjobs/internal/pkg/transcriber"
	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "jobService",
	Short: "ASR Jobs Service",
	Long:  `HTTP server to accept transcription jobs, run them and report the results`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("jobs.drainTimeout", 10*time.Minute)
}

//Execute starts the server
func Execute(appVersion string) {
	if appVersion != "" {
		version = appVersion
	}
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting jobService")
	if runtime.GOOS != "linux" {
		cmdapp.Log.Warnf("Running on %s, the service is tested on linux only", runtime.GOOS)
	}
	st, err := settings.Load(cmdapp.Config, version)
	cmdapp.CheckOrPanic(err, "Wrong settings")
	for _, w := range st.Warnings() {
		cmdapp.Log.Warn(w)
	}

	var data ServiceData
	data.health = healthcheck.NewHandler()
	data.APIPrefix = st.APIPrefix
	data.Port = st.Port

	g, err := gate.New(st.MaxConcurrent)
	cmdapp.CheckOrPanic(err, "Can't init gate")
	data.metrics = newServiceMetrics(g)
	cmdapp.CheckOrPanic(data.metrics.register(), "Can't init metrics")

	tr, err := transcriber.NewClient(transcriber.Options{URL: st.TranscriberURL, WarmupTimeout: st.WarmupTimeout,
		DownloadRetries: st.DownloadRetries, MaxAudioSize: st.MaxAudioSize})
	cmdapp.CheckOrPanic(err, "Can't init transcriber")
	data.health.AddReadinessCheck("transcriber", healthcheck.Async(tr.Healthy, 30*time.Second))

	runner, err := NewRunner(tr, g)
	cmdapp.CheckOrPanic(err, "Can't init runner")
	runner.metrics = data.metrics

	saver, err := initStorage(st, data.health)
	cmdapp.CheckOrPanic(err, "Can't init storage")
	if saver != nil {
		runner.Sink, err = storage.NewSink(saver, st.StorageRetries)
		cmdapp.CheckOrPanic(err, "Can't init sink")
	}

	runner.Notifier, err = initNotifier(st)
	cmdapp.CheckOrPanic(err, "Can't init notifier")

	if st.MongoURL != "" {
		mongoSessionProvider, err := mongo.NewSessionProvider(st.MongoURL)
		cmdapp.CheckOrPanic(err, "Can't init mongo")
		defer mongoSessionProvider.Close()
		data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))
		ss, err := mongo.NewStatusSaver(mongoSessionProvider)
		cmdapp.CheckOrPanic(err, "Can't init status saver")
		runner.StatusSaver, data.StatusSaver = ss, ss
		data.StatusProvider, err = mongo.NewStatusProvider(mongoSessionProvider)
		cmdapp.CheckOrPanic(err, "Can't init status provider")
	} else {
		cmdapp.Log.Info("No mongo.url, job status tracking is disabled")
	}

	cmdapp.CheckOrPanic(tr.Warmup(context.Background()), "Can't warmup transcriber")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler := NewScheduler(ctx, runner)
	data.Submitter = scheduler
	data.Runner = runner

	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
	cmdapp.Log.Info("Waiting for running jobs")
	scheduler.Wait(cmdapp.Config.GetDuration("jobs.drainTimeout"))
}

func initStorage(st *settings.Settings, health healthcheck.Handler) (storage.Saver, error) {
	switch st.StorageType {
	case settings.StorageS3:
		res, err := storage.NewS3Saver(storage.S3Options{AccessKeyID: st.AWS.AccessKeyID,
			SecretAccessKey: st.AWS.SecretAccessKey, Region: st.AWS.Region, Bucket: st.AWS.Bucket,
			Endpoint: st.AWS.Endpoint})
		if err != nil {
			return nil, err
		}
		health.AddReadinessCheck("s3", healthcheck.Async(res.Healthy, 60*time.Second))
		return res, nil
	case settings.StorageLocal:
		res, err := storage.NewLocalSaver(st.StoragePath)
		if err != nil {
			return nil, err
		}
		health.AddLivenessCheck("fs", res.HealthyFunc())
		return res, nil
	}
	cmdapp.Log.Warn("No storage configured, results will not be saved")
	return nil, nil
}

func initNotifier(st *settings.Settings) (*notify.Dispatcher, error) {
	if !st.NotifyEnabled() {
		cmdapp.Log.Warn("No svix credentials, notifications are disabled")
		return notify.NewDispatcher(nil, st.Svix.Product, st.Svix.RetentionDays), nil
	}
	sender, err := notify.NewSvixClient(notify.SvixOptions{URL: st.Svix.URL, APIKey: st.Svix.APIKey,
		AppID: st.Svix.AppID, Retries: st.Svix.Retries})
	if err != nil {
		return nil, err
	}
	return notify.NewDispatcher(sender, st.Svix.Product, st.Svix.RetentionDays), nil
}
