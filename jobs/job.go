package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/transcribot/chat"
)

// Job is one pending transcription and the message it answers.
type Job struct {
	ID        string      `json:"id"`
	PollRef   string      `json:"poll_ref"`
	Origin    chat.Origin `json:"origin"`
	CreatedAt time.Time   `json:"created_at"`
	// Rounds is the number of completed polls.
	Rounds int `json:"rounds"`
	// ConsecutiveFailures resets on every successful poll.
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// New creates a job for pollRef answering origin.
func New(pollRef string, origin chat.Origin) Job {
	return Job{
		ID:        uuid.NewString(),
		PollRef:   pollRef,
		Origin:    origin,
		CreatedAt: time.Now(),
	}
}

// Age returns how long the job has been tracked.
func (j Job) Age() time.Duration {
	return time.Since(j.CreatedAt)
}
