// Package chat holds the platform-neutral message model shared by the chat
// adapters and the transcription bot.
package chat

import (
	"context"
	"strings"

	"github.com/kbukum/transcribot/media"
)

// Platform names.
const (
	PlatformMatrix  = "matrix"
	PlatformDiscord = "discord"
)

// Origin identifies the message a reply must answer. A job owns its origin
// until the reply is sent.
type Origin struct {
	Platform       string `json:"platform"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id,omitempty"`
}

// Kind classifies inbound messages.
type Kind int

const (
	KindOther Kind = iota
	KindAudio
)

// Message is an inbound chat message. Audio messages carry either a plain
// URL or an encrypted file descriptor.
type Message struct {
	Origin   Origin
	Kind     Kind
	URL      string
	File     *media.EncryptedFile
	MimeType string
	FileName string
	Size     int64
}

// HasAudio reports whether the message is a voice or audio message.
func (m Message) HasAudio() bool {
	return m.Kind == KindAudio
}

// Replier posts a text reply to the message identified by origin.
type Replier interface {
	Reply(ctx context.Context, origin Origin, text string) error
}

// IsAudioMime reports whether a MIME type names audio.
func IsAudioMime(mime string) bool {
	return strings.HasPrefix(strings.ToLower(mime), "audio/")
}
