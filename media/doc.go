// Package media retrieves voice message audio.
//
// A Fetcher has two paths: Fetch for plain media references and
// FetchEncrypted for end-to-end encrypted attachments, which are downloaded
// as ciphertext and decrypted with the parameters carried in the message.
package media
