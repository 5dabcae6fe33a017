package matrix

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/security"
	"github.com/kbukum/transcribot/testutil"
)

const botUser = "@transcribot:example.org"

type fakeHomeserver struct {
	mu      sync.Mutex
	syncs   []string
	joined  []string
	sent    []map[string]any
	sentTo  []string
	authBad bool
}

func (f *fakeHomeserver) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /_matrix/client/v3/account/whoami", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			f.mu.Lock()
			f.authBad = true
			f.mu.Unlock()
		}
		_, _ = io.WriteString(w, `{"user_id":"`+botUser+`"}`)
	})
	mux.HandleFunc("GET /_matrix/client/v3/sync", func(w http.ResponseWriter, r *http.Request) {
		since := r.URL.Query().Get("since")
		f.mu.Lock()
		f.syncs = append(f.syncs, since)
		f.mu.Unlock()
		if r.URL.Query().Get("filter") == "" {
			t.Error("sync without filter")
		}
		switch since {
		case "":
			_, _ = io.WriteString(w, `{"next_batch":"s1","rooms":{"join":{"!room:example.org":{"timeline":{"events":[
				{"type":"m.room.message","event_id":"$old","sender":"@alice:example.org","content":{"msgtype":"m.audio","url":"mxc://example.org/old"}}
			]}}}}}`)
		case "s1":
			_, _ = io.WriteString(w, `{"next_batch":"s2","rooms":{
				"invite":{"!new:example.org":{}},
				"join":{"!room:example.org":{"timeline":{"events":[
					{"type":"m.room.message","event_id":"$voice","sender":"@alice:example.org","content":{"msgtype":"m.audio","body":"voice.ogg","url":"mxc://example.org/abc","info":{"mimetype":"audio/ogg","size":1234}}},
					{"type":"m.room.message","event_id":"$own","sender":"`+botUser+`","content":{"msgtype":"m.audio","url":"mxc://example.org/own"}},
					{"type":"m.room.message","event_id":"$text","sender":"@alice:example.org","content":{"msgtype":"m.text","body":"hi"}}
				]}}}}}`)
		default:
			select {
			case <-r.Context().Done():
			case <-time.After(20 * time.Millisecond):
			}
			_, _ = io.WriteString(w, `{"next_batch":"`+since+`"}`)
		}
	})
	mux.HandleFunc("POST /_matrix/client/v3/join/{room}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.joined = append(f.joined, r.PathValue("room"))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"room_id":"`+r.PathValue("room")+`"}`)
	})
	mux.HandleFunc("GET /_matrix/client/v1/media/download/{server}/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("server") != "example.org" || r.PathValue("id") != "abc" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = io.WriteString(w, "OggS")
	})
	mux.HandleFunc("PUT /_matrix/client/v3/rooms/{room}/send/m.room.message/{txn}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.sent = append(f.sent, body)
		f.sentTo = append(f.sentTo, r.PathValue("room"))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"event_id":"$reply"}`)
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeHomeserver) (*Client, Config) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	cfg := Config{Homeserver: srv.URL, AccessToken: "token", SyncTimeout: 50 * time.Millisecond, AutoJoin: true}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c, cfg
}

type recordingHandler struct {
	mu   sync.Mutex
	msgs []chat.Message
}

func (h *recordingHandler) Handle(_ context.Context, msg chat.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return nil
}

func (h *recordingHandler) Messages() []chat.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]chat.Message(nil), h.msgs...)
}

func TestParseMXC(t *testing.T) {
	tests := []struct {
		uri        string
		server, id string
		wantErr    bool
	}{
		{uri: "mxc://example.org/abc", server: "example.org", id: "abc"},
		{uri: "https://example.org/abc", wantErr: true},
		{uri: "mxc://example.org", wantErr: true},
		{uri: "mxc:///abc", wantErr: true},
		{uri: "mxc://example.org/a/b", wantErr: true},
	}
	for _, tt := range tests {
		server, id, err := parseMXC(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMXC(%q) err = %v", tt.uri, err)
			continue
		}
		if server != tt.server || id != tt.id {
			t.Errorf("parseMXC(%q) = %q, %q", tt.uri, server, id)
		}
	}
}

func TestToMessage(t *testing.T) {
	ev := Event{
		Type: "m.room.message", EventID: "$e", Sender: "@a:x",
		Content: json.RawMessage(`{"msgtype":"m.audio","body":"v.ogg","file":{"url":"mxc://x/enc","key":{"k":"KEY","alg":"A256CTR"},"iv":"IV","hashes":{"sha256":"H"},"v":"v2"},"info":{"mimetype":"audio/ogg","size":42}}`),
	}
	msg, ok := toMessage("!r:x", ev)
	if !ok || !msg.HasAudio() {
		t.Fatalf("msg = %+v, ok = %v", msg, ok)
	}
	if msg.File == nil || msg.File.URL != "mxc://x/enc" || msg.File.Params().Key != "KEY" || msg.File.Params().SHA256 != "H" {
		t.Errorf("file = %+v", msg.File)
	}
	if msg.URL != "" || msg.MimeType != "audio/ogg" || msg.Size != 42 || msg.FileName != "v.ogg" {
		t.Errorf("msg = %+v", msg)
	}
	want := chat.Origin{Platform: chat.PlatformMatrix, ConversationID: "!r:x", MessageID: "$e", SenderID: "@a:x"}
	if msg.Origin != want {
		t.Errorf("origin = %+v", msg.Origin)
	}

	text := Event{Type: "m.room.message", Content: json.RawMessage(`{"msgtype":"m.text","body":"hi"}`)}
	if msg, ok := toMessage("!r:x", text); !ok || msg.HasAudio() {
		t.Errorf("text message = %+v", msg)
	}
	if _, ok := toMessage("!r:x", Event{Type: "m.reaction"}); ok {
		t.Error("non-message event converted")
	}
}

func TestClient_DownloadAndReply(t *testing.T) {
	f := &fakeHomeserver{}
	c, _ := newTestClient(t, f)
	ctx := context.Background()

	data, ct, err := c.Download(ctx, "mxc://example.org/abc")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "OggS" || ct != "audio/ogg" {
		t.Errorf("download = %q, %q", data, ct)
	}
	if _, _, err := c.Download(ctx, "mxc://example.org/missing"); err == nil {
		t.Error("expected 404 error")
	}

	id, err := c.SendReply(ctx, "!room:example.org", "$voice", "hello world")
	if err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	if id != "$reply" {
		t.Errorf("event id = %q", id)
	}
	sent := f.sent[0]
	if sent["msgtype"] != "m.notice" || sent["body"] != "hello world" {
		t.Errorf("sent = %v", sent)
	}
	rel, _ := sent["m.relates_to"].(map[string]any)
	irt, _ := rel["m.in_reply_to"].(map[string]any)
	if irt["event_id"] != "$voice" {
		t.Errorf("m.relates_to = %v", sent["m.relates_to"])
	}
	if f.sentTo[0] != "!room:example.org" {
		t.Errorf("room = %q", f.sentTo[0])
	}
}

func TestBot_SyncLoop(t *testing.T) {
	f := &fakeHomeserver{}
	c, cfg := newTestClient(t, f)
	h := &recordingHandler{}
	b := NewBot(cfg, c, h, logger.Nop())

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	testutil.T(t).Eventually("voice message handled", func() bool { return len(h.Messages()) > 0 })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("handled %d messages, want 1: %+v", len(msgs), msgs)
	}
	m := msgs[0]
	if m.Origin.MessageID != "$voice" || m.URL != "mxc://example.org/abc" || m.MimeType != "audio/ogg" {
		t.Errorf("message = %+v", m)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authBad {
		t.Error("whoami without bearer token")
	}
	if len(f.syncs) < 2 || f.syncs[0] != "" || f.syncs[1] != "s1" {
		t.Errorf("syncs = %v", f.syncs)
	}
	if len(f.joined) != 1 || !strings.Contains(f.joined[0], "!new") {
		t.Errorf("joined = %v", f.joined)
	}
	if h := b.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}
}

func TestBot_RejectsForeignToken(t *testing.T) {
	f := &fakeHomeserver{}
	c, cfg := newTestClient(t, f)
	cfg.UserID = "@someone:example.org"
	b := NewBot(cfg, c, &recordingHandler{}, logger.Nop())
	if err := b.Start(context.Background()); err == nil {
		t.Fatal("expected identity mismatch error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Homeserver: "https://matrix.org", AccessToken: "t"}, false},
		{Config{AccessToken: "t"}, true},
		{Config{Homeserver: "matrix.org", AccessToken: "t"}, true},
		{Config{Homeserver: "https://matrix.org"}, true},
	}
	for _, tt := range tests {
		tt.cfg.ApplyDefaults()
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) = %v", tt.cfg, err)
		}
		if !tt.cfg.skipInitialSync() {
			t.Error("skip_initial_sync should default to true")
		}
	}
}

func TestClient_PrivateCA(t *testing.T) {
	f := &fakeHomeserver{}
	srv := httptest.NewTLSServer(f.handler(t))
	t.Cleanup(srv.Close)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, block, 0o600); err != nil {
		t.Fatal(err)
	}

	untrusted, err := NewClient(Config{Homeserver: srv.URL, AccessToken: "token"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := untrusted.Whoami(ctx); err == nil {
		t.Error("whoami succeeded without trusting the homeserver CA")
	}

	c, err := NewClient(Config{Homeserver: srv.URL, AccessToken: "token", TLS: &security.TLSConfig{CAFile: caFile}})
	if err != nil {
		t.Fatal(err)
	}
	user, err := c.Whoami(ctx)
	if err != nil {
		t.Fatalf("Whoami: %v", err)
	}
	if user != botUser {
		t.Errorf("user = %q", user)
	}
}
