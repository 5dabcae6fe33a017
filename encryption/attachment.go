package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	keySize = 32
	ivSize  = aes.BlockSize
)

var (
	// ErrHashMismatch is returned when the ciphertext does not match the
	// published SHA-256.
	ErrHashMismatch = errors.New("encryption: attachment hash mismatch")
	// ErrInvalidKey is returned for keys that are not 32 bytes.
	ErrInvalidKey = errors.New("encryption: invalid attachment key")
	// ErrInvalidIV is returned for IVs that are not 16 bytes.
	ErrInvalidIV = errors.New("encryption: invalid attachment iv")
)

// Params carries the decryption parameters of one attachment.
type Params struct {
	// Key is the JWK "k" value, base64url without padding.
	Key string
	// IV is the base64 counter block.
	IV string
	// SHA256 is the base64 SHA-256 of the ciphertext.
	SHA256 string
}

// DecryptAttachment verifies the ciphertext hash and decrypts it.
func DecryptAttachment(ciphertext []byte, p Params) ([]byte, error) {
	key, err := decodeBase64(p.Key)
	if err != nil || len(key) != keySize {
		return nil, ErrInvalidKey
	}
	iv, err := decodeBase64(p.IV)
	if err != nil || len(iv) != ivSize {
		return nil, ErrInvalidIV
	}
	want, err := decodeBase64(p.SHA256)
	if err != nil {
		return nil, fmt.Errorf("encryption: decode hash: %w", err)
	}

	got := sha256.Sum256(ciphertext)
	if subtle.ConstantTimeCompare(got[:], want) != 1 {
		return nil, ErrHashMismatch
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: create cipher: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plain, ciphertext)
	return plain, nil
}

// EncryptAttachment encrypts plaintext with a fresh key and IV and returns
// the ciphertext with the parameters a receiver needs.
func EncryptAttachment(plaintext []byte) ([]byte, Params, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, Params{}, fmt.Errorf("encryption: generate key: %w", err)
	}
	// The low 8 bytes stay zero so the counter cannot wrap.
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv[:8]); err != nil {
		return nil, Params{}, fmt.Errorf("encryption: generate iv: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, Params{}, fmt.Errorf("encryption: create cipher: %w", err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, plaintext)

	sum := sha256.Sum256(ciphertext)
	return ciphertext, Params{
		Key:    base64.RawURLEncoding.EncodeToString(key),
		IV:     base64.RawStdEncoding.EncodeToString(iv),
		SHA256: base64.RawStdEncoding.EncodeToString(sum[:]),
	}, nil
}

// decodeBase64 accepts standard or URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
