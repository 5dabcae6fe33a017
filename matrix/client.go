package matrix

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/version"
)

// syncFilter limits timelines to room messages.
const syncFilter = `{"room":{"timeline":{"types":["m.room.message"]}}}`

// Client is a minimal Matrix client-server API client authenticated with
// an access token.
type Client struct {
	adapter *httpclient.Adapter
}

// NewClient creates a client for cfg.Homeserver.
func NewClient(cfg Config, opts ...httpclient.Option) (*Client, error) {
	cfg.ApplyDefaults()
	adapter, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.Homeserver,
		Timeout:   cfg.SyncTimeout + 30*time.Second,
		Auth:      httpclient.BearerAuth(cfg.AccessToken),
		UserAgent: version.UserAgent("transcribot"),
		Retry:     httpclient.DefaultRetryConfig(),
		TLS:       cfg.TLS,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{adapter: adapter}, nil
}

// Whoami returns the user the token belongs to.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	resp, err := httpclient.Get[struct {
		UserID string `json:"user_id"`
	}](ctx, c.adapter, "/_matrix/client/v3/account/whoami")
	if err != nil {
		return "", fmt.Errorf("whoami: %w", err)
	}
	return resp.Data.UserID, nil
}

// Sync long-polls for events after since. An empty since starts a fresh
// sync; a zero timeout returns immediately.
func (c *Client) Sync(ctx context.Context, since string, timeout time.Duration) (*SyncResponse, error) {
	opts := []httpclient.RequestOption{
		httpclient.WithQueryParam("timeout", strconv.FormatInt(timeout.Milliseconds(), 10)),
		httpclient.WithQueryParam("filter", syncFilter),
	}
	if since != "" {
		opts = append(opts, httpclient.WithQueryParam("since", since))
	}
	resp, err := httpclient.Get[SyncResponse](ctx, c.adapter, "/_matrix/client/v3/sync", opts...)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	return &resp.Data, nil
}

// Download fetches the content behind an mxc:// URI. It implements
// media.Downloader.
func (c *Client) Download(ctx context.Context, mxc string) ([]byte, string, error) {
	server, id, err := parseMXC(mxc)
	if err != nil {
		return nil, "", err
	}
	path := "/_matrix/client/v1/media/download/" + url.PathEscape(server) + "/" + url.PathEscape(id)
	resp, err := c.adapter.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", mxc, err)
	}
	return resp.Body, resp.ContentType(), nil
}

type relatesTo struct {
	InReplyTo struct {
		EventID string `json:"event_id"`
	} `json:"m.in_reply_to"`
}

type replyContent struct {
	MsgType   string    `json:"msgtype"`
	Body      string    `json:"body"`
	RelatesTo relatesTo `json:"m.relates_to"`
}

// SendReply posts text as an m.notice replying to eventID and returns the
// new event ID.
func (c *Client) SendReply(ctx context.Context, roomID, eventID, text string) (string, error) {
	content := replyContent{MsgType: msgTypeNotice, Body: text}
	content.RelatesTo.InReplyTo.EventID = eventID

	// The transaction ID makes retries idempotent on the homeserver.
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(roomID) + "/send/m.room.message/" + uuid.NewString()
	resp, err := httpclient.Put[struct {
		EventID string `json:"event_id"`
	}](ctx, c.adapter, path, content)
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", roomID, err)
	}
	return resp.Data.EventID, nil
}

// JoinRoom accepts an invite.
func (c *Client) JoinRoom(ctx context.Context, roomID string) error {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomID)
	if _, err := c.adapter.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: map[string]any{}}); err != nil {
		return fmt.Errorf("join %s: %w", roomID, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.adapter.Close()
}

func parseMXC(uri string) (server, id string, err error) {
	rest, ok := strings.CutPrefix(uri, "mxc://")
	if !ok {
		return "", "", fmt.Errorf("not an mxc uri: %q", uri)
	}
	server, id, ok = strings.Cut(rest, "/")
	if !ok || server == "" || id == "" || strings.Contains(id, "/") {
		return "", "", fmt.Errorf("malformed mxc uri: %q", uri)
	}
	return server, id, nil
}
