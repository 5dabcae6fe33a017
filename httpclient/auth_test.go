package httpclient

import (
	"net/http"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	BearerAuth("my-token").apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer my-token" {
		t.Errorf("got %q, want %q", got, "Bearer my-token")
	}
}

func TestAPIKeyAuthHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		lookup string
	}{
		{"custom header", "x-gladia-key", "X-Gladia-Key"},
		{"default header", "", "X-API-Key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			APIKeyAuthHeader("secret", tt.header).apply(req)
			if got := req.Header.Get(tt.lookup); got != "secret" {
				t.Errorf("%s = %q, want %q", tt.lookup, got, "secret")
			}
		})
	}
}

func TestNilAuth(t *testing.T) {
	var auth *AuthConfig
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	auth.apply(req)
	if len(req.Header) != 0 {
		t.Errorf("expected no headers, got %v", req.Header)
	}
}
