package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/transcribot/resilience"
)

func TestAdapter_ResolveURL(t *testing.T) {
	a, _ := New(Config{BaseURL: "https://api.gladia.io/"})
	tests := []struct {
		path string
		want string
	}{
		{"/v2/upload", "https://api.gladia.io/v2/upload"},
		{"v2/upload", "https://api.gladia.io/v2/upload"},
		{"https://api.gladia.io/v2/pre-recorded/abc", "https://api.gladia.io/v2/pre-recorded/abc"},
		{"http://other/x", "http://other/x"},
	}
	for _, tt := range tests {
		if got := a.ResolveURL(tt.path); got != tt.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAdapter_RequestAuthOverridesDefault(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("x-gladia-key")
	}))
	defer srv.Close()

	a, _ := New(Config{BaseURL: srv.URL, Auth: BearerAuth("default")})

	if _, err := a.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer default" {
		t.Errorf("default auth = %q", gotAuth)
	}

	_, err := a.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/",
		Auth:   APIKeyAuthHeader("k1", "x-gladia-key"),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected default auth to be replaced, got %q", gotAuth)
	}
	if gotKey != "k1" {
		t.Errorf("x-gladia-key = %q, want k1", gotKey)
	}
}

func TestAdapter_JSONBodyAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if r.URL.Query().Get("timeout") != "30000" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["audio_url"]})
	}))
	defer srv.Close()

	a, _ := New(Config{BaseURL: srv.URL})
	resp, err := Post[map[string]string](context.Background(), a, "/echo",
		map[string]string{"audio_url": "https://x/a"},
		WithQueryParam("timeout", "30000"))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.Data["echo"] != "https://x/a" {
		t.Errorf("echo = %q", resp.Data["echo"])
	}
}

func TestAdapter_NonSuccessIsClassified(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, ErrCodeAuth, false},
		{http.StatusNotFound, ErrCodeNotFound, false},
		{http.StatusTooManyRequests, ErrCodeRateLimit, true},
		{http.StatusUnprocessableEntity, ErrCodeValidation, false},
		{http.StatusBadGateway, ErrCodeServer, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			a, _ := New(Config{BaseURL: srv.URL})
			resp, err := a.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
			if err == nil {
				t.Fatal("expected error")
			}
			var herr *Error
			if !asError(err, &herr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if herr.Code != tt.code || herr.Retryable != tt.retryable {
				t.Errorf("code=%v retryable=%v", herr.Code, herr.Retryable)
			}
			if resp == nil || string(resp.Body) != "nope" {
				t.Errorf("expected response body to be returned with error")
			}
			if StatusCode(err) != tt.status {
				t.Errorf("StatusCode = %d", StatusCode(err))
			}
		})
	}
}

func TestAdapter_AnyTwoHundredIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	a, _ := New(Config{BaseURL: srv.URL})
	resp, err := a.Do(context.Background(), Request{Method: http.MethodPost, Path: "/"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("IsSuccess false for %d", resp.StatusCode)
	}
}

func TestAdapter_RetriesRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	retry.MaxBackoff = 2 * time.Millisecond
	a, _ := New(Config{BaseURL: srv.URL, Retry: retry})
	if _, err := a.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestAdapter_StreamingBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	a, _ := New(Config{BaseURL: srv.URL, Retry: &retry})
	_, err := a.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: strings.NewReader("once")})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestAdapter_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	a, _ := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := a.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Errorf("connection errors should be retryable: %v", err)
	}
}

func TestAdapter_MaxBodyBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sized" {
			w.Header().Set("Content-Length", "1024")
			_, _ = w.Write(make([]byte, 1024))
			return
		}
		// No Content-Length: stream chunks until the client hangs up.
		flusher, _ := w.(http.Flusher)
		chunk := make([]byte, 4096)
		for i := 0; i < 256; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()
	a, _ := New(Config{BaseURL: srv.URL, Retry: DefaultRetryConfig()})

	tests := []struct {
		name  string
		path  string
		limit int64
		want  int
	}{
		{"declared length over limit", "/sized", 16, -1},
		{"streamed body over limit", "/stream", 16, -1},
		{"within limit", "/sized", 1024, 1024},
		{"no limit", "/sized", 0, 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Do(context.Background(), Request{Method: http.MethodGet, Path: tt.path, MaxBodyBytes: tt.limit})
			if tt.want < 0 {
				if !IsTooLarge(err) {
					t.Fatalf("err = %v, want too_large", err)
				}
				if IsRetryable(err) {
					t.Error("size errors must not be retried")
				}
				return
			}
			if err != nil || len(resp.Body) != tt.want {
				t.Fatalf("Do = %v, %v", resp, err)
			}
		})
	}
}
