package transcription

import "context"

// Audio is the media handed to SubmitAudio.
type Audio struct {
	Data     []byte
	MimeType string
	FileName string
}

// State is the remote state of a transcription job.
type State int

const (
	// StatePending means the job is queued or processing.
	StatePending State = iota
	// StateDone means the transcript is available.
	StateDone
	// StateFailed means the remote service gave up on the job.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the result of one poll.
type Status struct {
	State      State
	Transcript string
	// ErrorCode and ErrorMessage are set for StateFailed.
	ErrorCode    string
	ErrorMessage string
}

// StatusChecker polls a single job. The poll loop depends only on this.
type StatusChecker interface {
	PollStatus(ctx context.Context, pollRef string) (Status, error)
}

// Client is the full transcription workflow.
type Client interface {
	StatusChecker
	// SubmitAudio uploads audio and returns a reference to the stored asset.
	SubmitAudio(ctx context.Context, audio Audio) (assetRef string, err error)
	// RequestTranscription starts a job for an uploaded asset and returns
	// the reference to poll.
	RequestTranscription(ctx context.Context, assetRef string) (pollRef string, err error)
}
