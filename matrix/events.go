package matrix

import (
	"encoding/json"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/media"
)

const (
	eventRoomMessage = "m.room.message"
	msgTypeAudio     = "m.audio"
	msgTypeNotice    = "m.notice"
)

// SyncResponse is the subset of /sync the bot reads.
type SyncResponse struct {
	NextBatch string `json:"next_batch"`
	Rooms     struct {
		Join   map[string]JoinedRoom      `json:"join"`
		Invite map[string]json.RawMessage `json:"invite"`
	} `json:"rooms"`
}

// JoinedRoom holds the timeline of a joined room.
type JoinedRoom struct {
	Timeline struct {
		Events []Event `json:"events"`
	} `json:"timeline"`
}

// Event is a room event.
type Event struct {
	Type           string          `json:"type"`
	EventID        string          `json:"event_id"`
	Sender         string          `json:"sender"`
	OriginServerTS int64           `json:"origin_server_ts"`
	Content        json.RawMessage `json:"content"`
}

// MessageContent is the content of m.room.message.
type MessageContent struct {
	MsgType string               `json:"msgtype"`
	Body    string               `json:"body"`
	URL     string               `json:"url,omitempty"`
	File    *media.EncryptedFile `json:"file,omitempty"`
	Info    *struct {
		MimeType string `json:"mimetype"`
		Size     int64  `json:"size"`
	} `json:"info,omitempty"`
}

// toMessage converts a timeline event. It returns false for events that are
// not room messages.
func toMessage(roomID string, ev Event) (chat.Message, bool) {
	if ev.Type != eventRoomMessage {
		return chat.Message{}, false
	}
	var c MessageContent
	if err := json.Unmarshal(ev.Content, &c); err != nil {
		return chat.Message{}, false
	}

	msg := chat.Message{
		Origin: chat.Origin{
			Platform:       chat.PlatformMatrix,
			ConversationID: roomID,
			MessageID:      ev.EventID,
			SenderID:       ev.Sender,
		},
		Kind:     chat.KindOther,
		URL:      c.URL,
		File:     c.File,
		FileName: c.Body,
	}
	if c.MsgType == msgTypeAudio {
		msg.Kind = chat.KindAudio
	}
	if c.Info != nil {
		msg.MimeType = c.Info.MimeType
		msg.Size = c.Info.Size
	}
	return msg, true
}
