// Package matrix is the Matrix chat adapter: a minimal client-server API
// client, a long-poll sync loop that feeds room messages to the bot, and
// the authenticated media download used to fetch voice messages.
//
// Only unencrypted room events are understood. Attachments inside those
// events may still be encrypted; they are decrypted by the media package.
package matrix
