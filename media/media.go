package media

import (
	"context"

	"github.com/kbukum/transcribot/encryption"
)

// Media is downloaded audio.
type Media struct {
	Data        []byte
	ContentType string
}

// JWK is the symmetric key of an encrypted attachment.
type JWK struct {
	Kty    string   `json:"kty"`
	Alg    string   `json:"alg"`
	K      string   `json:"k"`
	KeyOps []string `json:"key_ops"`
	Ext    bool     `json:"ext"`
}

// EncryptedFile describes an encrypted attachment: where the ciphertext
// lives and how to decrypt it.
type EncryptedFile struct {
	URL    string            `json:"url"`
	Key    JWK               `json:"key"`
	IV     string            `json:"iv"`
	Hashes map[string]string `json:"hashes"`
	V      string            `json:"v"`
}

// Params returns the decryption parameters.
func (f EncryptedFile) Params() encryption.Params {
	return encryption.Params{Key: f.Key.K, IV: f.IV, SHA256: f.Hashes["sha256"]}
}

// Fetcher retrieves audio bytes for a message.
type Fetcher interface {
	// Fetch downloads plain media.
	Fetch(ctx context.Context, url string) (*Media, error)
	// FetchEncrypted downloads and decrypts an encrypted attachment.
	FetchEncrypted(ctx context.Context, file EncryptedFile) (*Media, error)
}

// Downloader returns the raw bytes behind a media URL.
type Downloader interface {
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}
