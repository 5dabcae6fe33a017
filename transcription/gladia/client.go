// Package gladia implements transcription.Client against the Gladia v2
// asynchronous pre-recorded API.
package gladia

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/transcription"
	"github.com/kbukum/transcribot/version"
)

var _ transcription.Client = (*Client)(nil)

type uploadResponse struct {
	AudioURL string `json:"audio_url"`
}

type codeSwitchingConfig struct {
	Languages []string `json:"languages"`
}

type preRecordedRequest struct {
	AudioURL            string               `json:"audio_url"`
	EnableCodeSwitching bool                 `json:"enable_code_switching,omitempty"`
	CodeSwitchingConfig *codeSwitchingConfig `json:"code_switching_config,omitempty"`
}

type preRecordedResponse struct {
	ID        string `json:"id"`
	ResultURL string `json:"result_url"`
}

type resultResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ErrorCode any    `json:"error_code"`
	Result    *struct {
		Transcription struct {
			FullTranscript string `json:"full_transcript"`
		} `json:"transcription"`
	} `json:"result"`
}

// Client talks to Gladia. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	cfg     Config
	adapter *httpclient.Adapter
	key     func() string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	key        func() string
	httpClient *http.Client
}

// WithKeySource makes the client read the API key from fn on every
// request instead of Config.APIKey.
func WithKeySource(fn func() string) Option {
	return func(o *options) { o.key = fn }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New creates a Gladia client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.key == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		key := cfg.APIKey
		o.key = func() string { return key }
	}

	var adapterOpts []httpclient.Option
	if o.httpClient != nil {
		adapterOpts = append(adapterOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	// No retry policy: a repeated upload or request would create duplicate
	// remote jobs.
	adapter, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: version.UserAgent("transcribot"),
	}, adapterOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, adapter: adapter, key: o.key}, nil
}

func (c *Client) auth() httpclient.RequestOption {
	return httpclient.WithRequestAuth(httpclient.APIKeyAuthHeader(c.key(), KeyHeader))
}

// SubmitAudio uploads the audio as the multipart field "audio".
func (c *Client) SubmitAudio(ctx context.Context, audio transcription.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", errors.UploadFailed(0, nil, fmt.Errorf("empty audio"))
	}
	name := audio.FileName
	if name == "" {
		name = "voice"
	}
	body := &httpclient.MultipartBody{Files: []httpclient.FileField{{
		FieldName:   "audio",
		FileName:    name,
		ContentType: audio.MimeType,
		Data:        audio.Data,
	}}}

	resp, err := httpclient.Post[uploadResponse](ctx, c.adapter, uploadPath, body, c.auth())
	if err != nil {
		return "", errors.UploadFailed(statusOf(resp), bodyOf(err), err)
	}
	if resp.Data.AudioURL == "" {
		return "", errors.UploadFailed(resp.StatusCode, nil, fmt.Errorf("response has no audio_url"))
	}
	return resp.Data.AudioURL, nil
}

// RequestTranscription starts a pre-recorded job for assetRef.
func (c *Client) RequestTranscription(ctx context.Context, assetRef string) (string, error) {
	req := preRecordedRequest{AudioURL: assetRef}
	if len(c.cfg.Languages) > 0 {
		req.EnableCodeSwitching = true
		req.CodeSwitchingConfig = &codeSwitchingConfig{Languages: c.cfg.Languages}
	}

	resp, err := httpclient.Post[preRecordedResponse](ctx, c.adapter, preRecordedPath, req, c.auth())
	if err != nil {
		return "", errors.RequestFailed(statusOf(resp), bodyOf(err), err)
	}
	switch {
	case resp.Data.ResultURL != "":
		return resp.Data.ResultURL, nil
	case resp.Data.ID != "":
		return c.cfg.BaseURL + preRecordedPath + "/" + resp.Data.ID, nil
	default:
		return "", errors.RequestFailed(resp.StatusCode, nil, fmt.Errorf("response has neither result_url nor id"))
	}
}

// PollStatus fetches the job at pollRef. Failures to obtain a status are
// returned as POLL_FAILED errors and never as a completed state.
func (c *Client) PollStatus(ctx context.Context, pollRef string) (transcription.Status, error) {
	resp, err := httpclient.Get[resultResponse](ctx, c.adapter, pollRef, c.auth())
	if err != nil {
		return transcription.Status{}, errors.PollFailed(pollRef, err)
	}

	switch resp.Data.Status {
	case "done":
		st := transcription.Status{State: transcription.StateDone}
		if resp.Data.Result != nil {
			st.Transcript = resp.Data.Result.Transcription.FullTranscript
		}
		return st, nil
	case "error":
		st := transcription.Status{State: transcription.StateFailed, ErrorMessage: "transcription failed"}
		if resp.Data.ErrorCode != nil {
			st.ErrorCode = fmt.Sprint(resp.Data.ErrorCode)
		}
		return st, nil
	default:
		return transcription.Status{State: transcription.StatePending}, nil
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.adapter.Close()
}

func statusOf[T any](resp *httpclient.TypedResponse[T]) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func bodyOf(err error) []byte {
	var herr *httpclient.Error
	if stderrors.As(err, &herr) {
		return herr.Body
	}
	return nil
}
