package media

import (
	"context"
	"net/http"

	"github.com/kbukum/transcribot/httpclient"
)

// HTTPDownloader downloads media from plain HTTP(S) URLs, such as Discord
// attachment links.
type HTTPDownloader struct {
	adapter  *httpclient.Adapter
	maxBytes int64
}

// NewHTTPDownloader creates a downloader. Transient failures are retried
// with the adapter's default policy. Bodies over maxBytes are rejected
// without being buffered; maxBytes <= 0 disables the cap.
func NewHTTPDownloader(cfg httpclient.Config, maxBytes int64) (*HTTPDownloader, error) {
	if cfg.Retry == nil {
		cfg.Retry = httpclient.DefaultRetryConfig()
	}
	adapter, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &HTTPDownloader{adapter: adapter, maxBytes: maxBytes}, nil
}

// Download implements Downloader.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := d.adapter.Do(ctx, httpclient.Request{
		Method:       http.MethodGet,
		Path:         url,
		MaxBodyBytes: d.maxBytes,
	})
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.ContentType(), nil
}
