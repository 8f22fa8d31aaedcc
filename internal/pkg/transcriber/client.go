package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/job"
	"github.com/airenas/asrjobs/internal/pkg/utils"
	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

//Options keeps the engine client settings
type Options struct {
	URL           string
	WarmupTimeout time.Duration
	Timeout       time.Duration
	// MaxAudioSize limits downloaded audio in bytes
	MaxAudioSize int64
	// DownloadRetries is the retry count for the audio download
	DownloadRetries int
}

//Client calls the remote transcription engine
type Client struct {
	httpclient    *retryablehttp.Client
	liveURL       string
	transcribeURL string
	warmupTimeout time.Duration
	downloader    *Downloader
	now           func() time.Time
}

type engineError struct {
	Detail string `json:"detail"`
	Source string `json:"source"`
}

//NewClient creates the engine client
func NewClient(opt Options) (*Client, error) {
	if opt.URL == "" {
		return nil, errors.New("No transcriber url")
	}
	if opt.WarmupTimeout <= 0 {
		opt.WarmupTimeout = 5 * time.Minute
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Minute
	}
	if opt.MaxAudioSize <= 0 {
		opt.MaxAudioSize = 1 << 30
	}
	res := &Client{warmupTimeout: opt.WarmupTimeout, now: time.Now}
	res.liveURL = utils.URLJoin(opt.URL, "live")
	res.transcribeURL = utils.URLJoin(opt.URL, "transcribe")
	// the engine is not idempotent for long jobs, so no retries here
	res.httpclient = utils.NewHTTPClient(0, opt.Timeout)
	res.downloader = &Downloader{httpclient: utils.NewHTTPClient(opt.DownloadRetries, opt.Timeout),
		maxSize: opt.MaxAudioSize}
	cmdapp.Log.Infof("Transcriber URL: %s", utils.URLToLog(res.transcribeURL))
	return res, nil
}

//Warmup waits for the engine to become live
func (c *Client) Warmup(ctx context.Context) error {
	cmdapp.Log.Info("Warmup initialization...")
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.warmupTimeout
	b.MaxInterval = 10 * time.Second
	err := backoff.Retry(func() error { return c.checkLive(ctx) }, backoff.WithContext(b, ctx))
	if err != nil {
		return errors.Wrap(err, "Engine is not live")
	}
	cmdapp.Log.Info("Engine is live")
	return nil
}

//Healthy checks if the engine is live
func (c *Client) Healthy() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.checkLive(ctx)
}

func (c *Client) checkLive(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.liveURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		cmdapp.Log.Debugf("Engine not live: %v", err)
		return err
	}
	defer resp.Body.Close()
	return utils.ValidateResponse(resp)
}

//Process downloads audio if needed, transcribes and post-processes the result
func (c *Client) Process(ctx context.Context, spec *job.Spec, audio *job.Audio) (*job.Result, error) {
	started := c.now()
	data, name := audio.Data, audio.FileName
	if len(data) == 0 {
		if audio.URL == "" {
			return nil, job.NewProcessError(job.SourceGetURL, "no audio")
		}
		var err error
		if data, err = c.downloader.download(ctx, audio.URL); err != nil {
			return nil, job.WrapProcessError(job.SourceGetURL, err)
		}
		if name == "" {
			name = fileNameFromURL(audio.URL)
		}
	}
	if name == "" {
		name = "audio"
	}

	st := c.now()
	res, err := c.transcribe(ctx, spec, name, data)
	if err != nil {
		return nil, err
	}
	trDur := c.now().Sub(st).Seconds()

	st = c.now()
	if err := PostProcess(res); err != nil {
		return nil, job.WrapProcessError(job.SourcePostProcessing, err)
	}
	ppDur := c.now().Sub(st).Seconds()

	if res.ProcessTimes == nil {
		res.ProcessTimes = &job.ProcessTimes{Transcription: &trDur}
	}
	res.ProcessTimes.PostProcessing = &ppDur
	res.ProcessTimes.Total = c.now().Sub(started).Seconds()
	return res, nil
}

func (c *Client) transcribe(ctx context.Context, spec *job.Spec, name string, data []byte) (*job.Result, error) {
	body, contentType, err := makeBody(spec, name, data)
	if err != nil {
		return nil, job.WrapProcessError(job.SourceTranscription, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.transcribeURL, body)
	if err != nil {
		return nil, job.WrapProcessError(job.SourceTranscription, err)
	}
	req.Header.Set("Content-Type", contentType)
	cmdapp.Log.Infof("Sending audio to: %s", c.transcribeURL)
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, job.WrapProcessError(job.SourceTranscription, errors.Wrap(err, "Can't call transcriber"))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readEngineError(resp)
	}
	var res job.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, job.WrapProcessError(job.SourceTranscription, errors.Wrap(err, "Can't decode response"))
	}
	return &res, nil
}

// readEngineError maps {"detail": "...", "source": "diarization"} to the process error
func readEngineError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 10000))
	var ee engineError
	if err := json.Unmarshal(b, &ee); err == nil && ee.Detail != "" {
		src, err := job.ParseSource(ee.Source)
		if err != nil || src == job.SourceUnknown {
			src = job.SourceTranscription
		}
		return job.NewProcessError(src, ee.Detail)
	}
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return job.WrapProcessError(job.SourceTranscription, utils.ValidateResponse(resp))
}

func makeBody(spec *job.Spec, name string, data []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, vs := range job.ToForm(spec) {
		for _, v := range vs {
			if err := writer.WriteField(k, v); err != nil {
				return nil, "", errors.Wrap(err, "Can't add field")
			}
		}
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", errors.Wrap(err, "Can't add file to request")
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", errors.Wrap(err, "Can't write file to request")
	}
	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "Can't close multipart writer")
	}
	return body, writer.FormDataContentType(), nil
}
