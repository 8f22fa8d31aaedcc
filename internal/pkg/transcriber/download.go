package transcriber

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/airenas/asrjobs/internal/pkg/cmdapp"
	"github.com/airenas/asrjobs/internal/pkg/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

//Downloader loads remote audio into memory
type Downloader struct {
	httpclient *retryablehttp.Client
	maxSize    int64
}

func (d *Downloader) download(ctx context.Context, urlStr string) ([]byte, error) {
	cmdapp.Log.Infof("Downloading %s", utils.URLToLog(urlStr))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	resp, err := d.httpclient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't download %s", utils.URLToLog(urlStr))
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrapf(err, "Can't download %s", utils.URLToLog(urlStr))
	}
	res, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "Can't read audio")
	}
	if int64(len(res)) > d.maxSize {
		return nil, errors.Errorf("Audio is too large, max %d bytes", d.maxSize)
	}
	if len(res) == 0 {
		return nil, errors.New("Empty audio")
	}
	return res, nil
}

func fileNameFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return "audio"
	}
	res := path.Base(u.Path)
	if res == "." || res == "/" || res == "" {
		return "audio"
	}
	return res
}
