package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

//URLJoin joins urls with '/'
func URLJoin(urls ...string) string {
	u, err := url.Parse(urls[0])
	if err != nil || u.Host == "" {
		return strings.Join(urls, "/")
	}
	u.Path = path.Join(u.Path, path.Join(urls[1:]...))
	return u.String()
}

//ValidateURL checks that the setting holds an http(s) URL
func ValidateURL(urlStr, settingName string) (string, error) {
	if urlStr == "" {
		return "", errors.New("No " + settingName + " setting provided")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", errors.Wrap(err, "Can't parse url "+urlStr)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("Wrong url scheme '%s' in %s", u.Scheme, settingName)
	}
	return u.String(), nil
}

//ErrWrongHTTPCall indicates failure due wrong http call
var ErrWrongHTTPCall = errors.New("Wrong http call")

//ValidateResponse returns error if code is not in [200, 299]
func ValidateResponse(resp *http.Response) error {
	if !(resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1000))
		trimS := ""
		if len(bodyBytes) > 100 {
			bodyBytes = bodyBytes[:100]
			trimS = "..."
		}
		msg := fmt.Sprintf("Wrong response code from server. Code: %d\n%s",
			resp.StatusCode, string(bodyBytes)+trimS)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return errors.Wrap(ErrWrongHTTPCall, msg)
		}
		return errors.New(msg)
	}
	return nil
}

//URLToLog removes pass from URL
func URLToLog(link string) string {
	u, err := url.Parse(link)
	if err == nil {
		if u.User != nil {
			u.User = url.UserPassword(u.User.Username(), "xxxx")
		}
		u.RawQuery = ""
		return u.String()
	}
	return link
}

// NewHTTPClient creates retryable http client logging to the app logger.
// retries = 0 makes a single attempt
func NewHTTPClient(retries int, timeout time.Duration) *retryablehttp.Client {
	res := retryablehttp.NewClient()
	res.RetryMax = retries
	res.Logger = cmdapp.Log
	res.HTTPClient.Timeout = timeout
	res.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return res
}
