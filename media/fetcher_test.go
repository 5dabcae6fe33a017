package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/transcribot/encryption"
	"github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/httpclient"
)

type fakeStore struct {
	blobs map[string][]byte
	calls []string
}

func (s *fakeStore) Download(_ context.Context, url string) ([]byte, string, error) {
	s.calls = append(s.calls, url)
	b, ok := s.blobs[url]
	if !ok {
		return nil, "", fmt.Errorf("no blob at %s", url)
	}
	return b, "audio/ogg", nil
}

func TestFetcher_Plain(t *testing.T) {
	store := &fakeStore{blobs: map[string][]byte{"mxc://a/b": []byte("OggS")}}
	m, err := NewFetcher(store).Fetch(context.Background(), "mxc://a/b")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(m.Data) != "OggS" || m.ContentType != "audio/ogg" {
		t.Errorf("media = %+v", m)
	}
}

func TestFetcher_PlainFailures(t *testing.T) {
	f := NewFetcher(&fakeStore{})
	for _, url := range []string{"", "mxc://missing"} {
		if _, err := f.Fetch(context.Background(), url); !errors.IsCode(err, errors.ErrCodeMediaFetchFailed) {
			t.Errorf("Fetch(%q) err = %v", url, err)
		}
	}
}

func TestFetcher_Encrypted(t *testing.T) {
	plain := []byte("voice message audio")
	ciphertext, params, err := encryption.EncryptAttachment(plain)
	if err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{blobs: map[string][]byte{"mxc://a/enc": ciphertext}}
	file := EncryptedFile{
		URL:    "mxc://a/enc",
		Key:    JWK{Kty: "oct", Alg: "A256CTR", K: params.Key, Ext: true},
		IV:     params.IV,
		Hashes: map[string]string{"sha256": params.SHA256},
		V:      "v2",
	}

	m, err := NewFetcher(store).FetchEncrypted(context.Background(), file)
	if err != nil {
		t.Fatalf("FetchEncrypted: %v", err)
	}
	if string(m.Data) != string(plain) {
		t.Errorf("data = %q", m.Data)
	}

	file.Hashes["sha256"] = "AAAA"
	if _, err := NewFetcher(store).FetchEncrypted(context.Background(), file); !errors.IsCode(err, errors.ErrCodeMediaFetchFailed) {
		t.Errorf("tampered hash err = %v", err)
	}
}

func TestHTTPDownloader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	d, err := NewHTTPDownloader(httpclient.Config{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	data, ct, err := d.Download(context.Background(), srv.URL+"/voice.ogg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(data) != 10 || ct != "audio/ogg" {
		t.Errorf("got %d bytes, %q", len(data), ct)
	}

	small, _ := NewHTTPDownloader(httpclient.Config{}, 4)
	if _, _, err := small.Download(context.Background(), srv.URL); !httpclient.IsTooLarge(err) {
		t.Errorf("err = %v, want size limit error", err)
	}
}
