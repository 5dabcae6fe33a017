package gladia

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/transcription"
)

type fakeGladia struct {
	mu       sync.Mutex
	keys     []string
	upload   []byte
	uploadCT string
	request  map[string]any
	status   string
	failCode int
}

func (f *fakeGladia) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/upload", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failCode != 0 {
			http.Error(w, `{"message":"bad audio"}`, f.failCode)
			return
		}
		file, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "no audio", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		f.mu.Lock()
		f.upload = data
		f.uploadCT = hdr.Header.Get("Content-Type")
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"audio_url": "https://api.gladia.io/file/abc"})
	})
	mux.HandleFunc("POST /v2/pre-recorded", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.request = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":         "job-1",
			"result_url": "http://" + r.Host + "/v2/pre-recorded/job-1",
		})
	})
	mux.HandleFunc("GET /v2/pre-recorded/job-1", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		status := f.status
		f.mu.Unlock()
		switch status {
		case "done":
			_, _ = io.WriteString(w, `{"id":"job-1","status":"done","result":{"transcription":{"full_transcript":"hello world"}}}`)
		case "error":
			_, _ = io.WriteString(w, `{"id":"job-1","status":"error","error_code":400}`)
		case "broken":
			_, _ = io.WriteString(w, `{not json`)
		case "unavailable":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = io.WriteString(w, `{"id":"job-1","status":"`+status+`"}`)
		}
	})
	return mux
}

func (f *fakeGladia) record(r *http.Request) {
	f.mu.Lock()
	f.keys = append(f.keys, r.Header.Get(KeyHeader))
	f.mu.Unlock()
}

func newTestClient(t *testing.T, f *fakeGladia, cfg Config, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "secret"
	}
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClient_FullRoundTrip(t *testing.T) {
	f := &fakeGladia{status: "queued"}
	c := newTestClient(t, f, Config{Languages: []string{"en", "fr"}})
	ctx := context.Background()

	asset, err := c.SubmitAudio(ctx, transcription.Audio{Data: []byte("OggS"), MimeType: "audio/ogg", FileName: "voice.ogg"})
	if err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}
	if asset != "https://api.gladia.io/file/abc" {
		t.Errorf("asset = %q", asset)
	}
	if string(f.upload) != "OggS" || f.uploadCT != "audio/ogg" {
		t.Errorf("upload = %q (%s)", f.upload, f.uploadCT)
	}

	ref, err := c.RequestTranscription(ctx, asset)
	if err != nil {
		t.Fatalf("RequestTranscription: %v", err)
	}
	if f.request["audio_url"] != asset {
		t.Errorf("audio_url = %v", f.request["audio_url"])
	}
	if f.request["enable_code_switching"] != true {
		t.Errorf("enable_code_switching = %v", f.request["enable_code_switching"])
	}
	csc, _ := f.request["code_switching_config"].(map[string]any)
	if langs, _ := csc["languages"].([]any); len(langs) != 2 {
		t.Errorf("code_switching_config = %v", f.request["code_switching_config"])
	}

	st, err := c.PollStatus(ctx, ref)
	if err != nil {
		t.Fatalf("PollStatus: %v", err)
	}
	if st.State != transcription.StatePending {
		t.Errorf("state = %s, want pending", st.State)
	}

	f.mu.Lock()
	f.status = "done"
	f.mu.Unlock()
	st, err = c.PollStatus(ctx, ref)
	if err != nil {
		t.Fatalf("PollStatus: %v", err)
	}
	if st.State != transcription.StateDone || st.Transcript != "hello world" {
		t.Errorf("status = %+v", st)
	}

	for i, k := range f.keys {
		if k != "secret" {
			t.Errorf("request %d key = %q", i, k)
		}
	}
}

func TestClient_NoLanguagesOmitsCodeSwitching(t *testing.T) {
	f := &fakeGladia{}
	c := newTestClient(t, f, Config{})
	if _, err := c.RequestTranscription(context.Background(), "https://api.gladia.io/file/abc"); err != nil {
		t.Fatalf("RequestTranscription: %v", err)
	}
	if _, ok := f.request["enable_code_switching"]; ok {
		t.Errorf("unexpected enable_code_switching in %v", f.request)
	}
}

func TestClient_UploadRejected(t *testing.T) {
	f := &fakeGladia{failCode: http.StatusUnprocessableEntity}
	c := newTestClient(t, f, Config{})
	_, err := c.SubmitAudio(context.Background(), transcription.Audio{Data: []byte("x")})
	if !errors.IsCode(err, errors.ErrCodeUploadFailed) {
		t.Fatalf("err = %v, want UPLOAD_FAILED", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["status"] != http.StatusUnprocessableEntity {
		t.Errorf("status detail = %v", appErr.Details["status"])
	}
	if appErr.Details["body"] == nil {
		t.Error("expected body detail")
	}
}

func TestClient_EmptyAudioRejected(t *testing.T) {
	c := newTestClient(t, &fakeGladia{}, Config{})
	if _, err := c.SubmitAudio(context.Background(), transcription.Audio{}); !errors.IsCode(err, errors.ErrCodeUploadFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestClient_RequestFallsBackToID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"xyz"}`)
	}))
	defer srv.Close()
	c, err := New(Config{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	ref, err := c.RequestTranscription(context.Background(), "asset")
	if err != nil {
		t.Fatalf("RequestTranscription: %v", err)
	}
	if want := srv.URL + "/v2/pre-recorded/xyz"; ref != want {
		t.Errorf("ref = %q, want %q", ref, want)
	}
}

func TestClient_RequestRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()
	c, _ := New(Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.RequestTranscription(context.Background(), "asset")
	if !errors.IsCode(err, errors.ErrCodeRequestFailed) {
		t.Fatalf("err = %v, want REQUEST_FAILED", err)
	}
}

func TestClient_PollStates(t *testing.T) {
	tests := []struct {
		status   string
		want     transcription.State
		wantCode errors.ErrorCode
	}{
		{status: "queued", want: transcription.StatePending},
		{status: "processing", want: transcription.StatePending},
		{status: "done", want: transcription.StateDone},
		{status: "error", want: transcription.StateFailed},
		{status: "broken", wantCode: errors.ErrCodePollFailed},
		{status: "unavailable", wantCode: errors.ErrCodePollFailed},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			f := &fakeGladia{status: tt.status}
			c := newTestClient(t, f, Config{})
			ref := c.cfg.BaseURL + "/v2/pre-recorded/job-1"
			st, err := c.PollStatus(context.Background(), ref)
			if tt.wantCode != "" {
				if !errors.IsCode(err, tt.wantCode) {
					t.Fatalf("err = %v, want %s", err, tt.wantCode)
				}
				if st.State == transcription.StateDone {
					t.Fatal("failed poll must not report done")
				}
				return
			}
			if err != nil {
				t.Fatalf("PollStatus: %v", err)
			}
			if st.State != tt.want {
				t.Errorf("state = %s, want %s", st.State, tt.want)
			}
			if tt.want == transcription.StateFailed && st.ErrorCode != "400" {
				t.Errorf("error code = %q", st.ErrorCode)
			}
		})
	}
}

func TestClient_KeySourceEvaluatedPerRequest(t *testing.T) {
	f := &fakeGladia{status: "queued"}
	var n atomic.Int32
	keys := []string{"k1", "k2"}
	c := newTestClient(t, f, Config{}, WithKeySource(func() string {
		return keys[int(n.Add(1)-1)%len(keys)]
	}))
	ref := c.cfg.BaseURL + "/v2/pre-recorded/job-1"
	for i := 0; i < 2; i++ {
		if _, err := c.PollStatus(context.Background(), ref); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.keys) != 2 || f.keys[0] != "k1" || f.keys[1] != "k2" {
		t.Errorf("keys = %v", f.keys)
	}
}

func TestConfig_Validate(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected missing api key error")
	}
	cfg := Config{APIKey: "k", Languages: []string{"en", " "}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected empty language error")
	}
	cfg = Config{APIKey: "k"}
	cfg.ApplyDefaults()
	if cfg.BaseURL != DefaultBaseURL || cfg.Timeout == 0 {
		t.Errorf("defaults = %+v", cfg)
	}
}
