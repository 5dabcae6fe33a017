package bot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/jobs"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/media"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/transcription"
	"github.com/kbukum/transcribot/util"
	"github.com/kbukum/transcribot/validation"
)

const defaultFileName = "voice-message"

// Tracker accepts jobs for polling. *jobs.Poller implements it.
type Tracker interface {
	Add(job jobs.Job) error
}

// HandlerConfig configures inbound handling.
type HandlerConfig struct {
	// MaxAudioBytes rejects larger audio. Zero disables the check.
	MaxAudioBytes int64 `mapstructure:"max_audio_bytes" validate:"gte=0"`
	// MaxAudioSize is a human-readable alternative such as "25MB".
	MaxAudioSize string `mapstructure:"max_audio_size"`
}

// ApplyDefaults resolves MaxAudioSize when MaxAudioBytes is unset.
func (c *HandlerConfig) ApplyDefaults() {
	if c.MaxAudioBytes == 0 {
		c.MaxAudioBytes = util.ParseSize(c.MaxAudioSize, 0)
	}
}

// Handler submits voice messages for transcription.
type Handler struct {
	cfg     HandlerConfig
	fetcher media.Fetcher
	client  transcription.Client
	tracker Tracker
	options
}

// NewHandler creates a handler.
func NewHandler(cfg HandlerConfig, fetcher media.Fetcher, client transcription.Client, tracker Tracker, opts ...Option) *Handler {
	return &Handler{
		cfg:     cfg,
		fetcher: fetcher,
		client:  client,
		tracker: tracker,
		options: buildOptions("handler", opts),
	}
}

// Handle processes one inbound message. Non-audio messages are ignored and
// return nil. Any failure aborts the message without creating a job; the
// error is logged and returned.
func (h *Handler) Handle(ctx context.Context, msg chat.Message) (err error) {
	if !msg.HasAudio() {
		return nil
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanHandleMessage,
		attribute.String(observability.AttrPlatform, msg.Origin.Platform))
	defer func() { observability.EndSpan(span, err) }()

	log := h.log.WithFields(logger.Fields(
		logger.FieldPlatform, msg.Origin.Platform,
		"conversation_id", msg.Origin.ConversationID,
		"message_id", msg.Origin.MessageID,
	))
	log.Debug("voice message received")

	outcome := observability.OutcomeFailed
	defer func() { h.metrics.RecordMessage(ctx, msg.Origin.Platform, outcome, time.Since(start)) }()

	if err := validation.New().
		Required("origin.platform", msg.Origin.Platform).
		Required("origin.conversation_id", msg.Origin.ConversationID).
		Required("origin.message_id", msg.Origin.MessageID).
		Err(); err != nil {
		log.WithError(err).Warn("malformed message")
		return err
	}
	if h.cfg.MaxAudioBytes > 0 && msg.Size > h.cfg.MaxAudioBytes {
		outcome = observability.OutcomeSkipped
		log.Warn("audio too large, skipping", logger.Fields("size", msg.Size, "limit", h.cfg.MaxAudioBytes))
		return errors.MediaFetchFailed("audio exceeds size limit", nil)
	}

	m, err := h.fetch(ctx, msg)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeMissingField) {
			outcome = observability.OutcomeSkipped
		}
		log.WithError(err).Warn("could not obtain audio")
		return err
	}
	if h.cfg.MaxAudioBytes > 0 && int64(len(m.Data)) > h.cfg.MaxAudioBytes {
		outcome = observability.OutcomeSkipped
		log.Warn("audio too large, skipping", logger.Fields("size", len(m.Data), "limit", h.cfg.MaxAudioBytes))
		return errors.MediaFetchFailed("audio exceeds size limit", nil)
	}

	audio := transcription.Audio{
		Data:     m.Data,
		MimeType: util.Coalesce(msg.MimeType, m.ContentType),
		FileName: util.Coalesce(msg.FileName, defaultFileName),
	}

	assetRef, err := h.client.SubmitAudio(ctx, audio)
	if err != nil {
		log.WithError(err).Error("audio upload failed")
		return err
	}
	pollRef, err := h.client.RequestTranscription(ctx, assetRef)
	if err != nil {
		log.WithError(err).Error("transcription request failed")
		return err
	}

	job := jobs.New(pollRef, msg.Origin)
	if err := h.tracker.Add(job); err != nil {
		log.WithError(err).Error("could not track job", logger.Fields(logger.FieldPollRef, pollRef))
		return err
	}
	outcome = observability.OutcomeSubmitted
	log.Info("transcription requested", logger.Fields(
		logger.FieldJobID, job.ID,
		logger.FieldPollRef, pollRef,
		"bytes", len(m.Data),
	))
	return nil
}

// fetch picks the plain path when the message has a URL and the encrypted
// path when it carries an encrypted file.
func (h *Handler) fetch(ctx context.Context, msg chat.Message) (*media.Media, error) {
	switch {
	case msg.URL != "":
		return h.fetcher.Fetch(ctx, msg.URL)
	case msg.File != nil:
		return h.fetcher.FetchEncrypted(ctx, *msg.File)
	default:
		return nil, errors.MissingField("url or file")
	}
}
