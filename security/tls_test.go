package security

import (
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeServerCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(path, block, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTLSConfig_BuildDisabled(t *testing.T) {
	for name, cfg := range map[string]*TLSConfig{"nil": nil, "zero": {}} {
		got, err := cfg.Build()
		if err != nil || got != nil {
			t.Errorf("%s: Build() = %v, %v; want nil, nil", name, got, err)
		}
	}
}

func TestTLSConfig_BuildFields(t *testing.T) {
	got, err := (&TLSConfig{SkipVerify: true, ServerName: "matrix.internal"}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !got.InsecureSkipVerify || got.ServerName != "matrix.internal" || got.MinVersion != tls.VersionTLS12 {
		t.Errorf("tls.Config = %+v", got)
	}

	got, err = (&TLSConfig{MinVersion: tls.VersionTLS13}).Build()
	if err != nil || got.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion: %v, %v", got, err)
	}
}

func TestTLSConfig_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "junk.pem")
	if err := os.WriteFile(bad, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := map[string]*TLSConfig{
		"missing ca":  {CAFile: "/nonexistent/ca.pem"},
		"junk ca":     {CAFile: bad},
		"cert no key": {CertFile: "cert.pem"},
		"bad pair":    {CertFile: bad, KeyFile: bad},
	}
	for name, cfg := range tests {
		if _, err := cfg.Build(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestTLSConfig_TrustsPrivateCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	plain := &http.Client{}
	if _, err := plain.Get(srv.URL); err == nil {
		t.Fatal("system roots unexpectedly trusted the test server")
	}

	tlsCfg, err := (&TLSConfig{CAFile: writeServerCA(t, srv)}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsCfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with private CA: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
