package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

//DefaultSvixURL is the public Svix API server
const DefaultSvixURL = "https://api.svix.com"

//SvixOptions keeps Svix connection settings
type SvixOptions struct {
	URL    string
	APIKey string
	AppID  string
	// Retries for transport failures, the event id makes the repeated send idempotent
	Retries int
	Timeout time.Duration
}

//SvixClient posts messages to the Svix application
type SvixClient struct {
	httpclient *retryablehttp.Client
	msgURL     string
	apiKey     string
}

//NewSvixClient creates the client, fails if credentials are missing
func NewSvixClient(opt SvixOptions) (*SvixClient, error) {
	if opt.APIKey == "" || opt.AppID == "" {
		return nil, errors.New("No svix API key or app ID")
	}
	if opt.URL == "" {
		opt.URL = DefaultSvixURL
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	res := &SvixClient{apiKey: opt.APIKey}
	res.msgURL = utils.URLJoin(opt.URL, "api/v1/app", opt.AppID, "msg")
	res.httpclient = utils.NewHTTPClient(opt.Retries, opt.Timeout)
	cmdapp.Log.Infof("Svix messages URL: %s", res.msgURL)
	return res, nil
}

//Send creates the message in Svix
func (c *SvixClient) Send(ctx context.Context, event *Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "Can't marshal event")
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.msgURL, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", event.EventID)
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return errors.Wrap(err, "Can't call svix")
	}
	defer resp.Body.Close()
	return utils.ValidateResponse(resp)
}
