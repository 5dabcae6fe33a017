// Package encryption decrypts end-to-end encrypted chat attachments.
//
// Attachments are AES-256-CTR ciphertexts. The sender publishes the key as
// an unpadded base64url JWK "k" value, a 16-byte IV and the SHA-256 of the
// ciphertext. The hash is checked before any plaintext is produced.
//
//	plain, err := encryption.DecryptAttachment(ciphertext, encryption.Params{
//	    Key:    file.Key.K,
//	    IV:     file.IV,
//	    SHA256: file.Hashes["sha256"],
//	})
package encryption
