package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/observability"
)

// DefaultEmptyText is posted when a transcript has no speech.
const DefaultEmptyText = "(no speech detected)"

// ReplyConfig shapes reply text.
type ReplyConfig struct {
	// Prefix is prepended to every transcript, e.g. "Automatic transcription:".
	Prefix    string `mapstructure:"prefix"`
	EmptyText string `mapstructure:"empty_text"`
}

// ApplyDefaults fills zero values.
func (c *ReplyConfig) ApplyDefaults() {
	if c.EmptyText == "" {
		c.EmptyText = DefaultEmptyText
	}
}

// Dispatcher posts transcripts through the replier registered for the
// origin's platform.
type Dispatcher struct {
	cfg ReplyConfig
	options

	mu       sync.RWMutex
	repliers map[string]chat.Replier
}

// NewDispatcher creates a dispatcher with no repliers.
func NewDispatcher(cfg ReplyConfig, opts ...Option) *Dispatcher {
	cfg.ApplyDefaults()
	return &Dispatcher{
		cfg:      cfg,
		options:  buildOptions("dispatcher", opts),
		repliers: make(map[string]chat.Replier),
	}
}

// Register routes replies for platform to r.
func (d *Dispatcher) Register(platform string, r chat.Replier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.repliers[platform] = r
}

// Format builds the reply text for transcript.
func (d *Dispatcher) Format(transcript string) string {
	text := strings.TrimSpace(transcript)
	if text == "" {
		text = d.cfg.EmptyText
	}
	if d.cfg.Prefix == "" {
		return text
	}
	return d.cfg.Prefix + " " + text
}

// Dispatch posts transcript as a reply to origin. A failure is returned as
// REPLY_DELIVERY_FAILED; nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, origin chat.Origin, transcript string) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch,
		attribute.String(observability.AttrPlatform, origin.Platform))
	defer func() { observability.EndSpan(span, err) }()

	d.mu.RLock()
	r, ok := d.repliers[origin.Platform]
	d.mu.RUnlock()
	if !ok {
		d.metrics.RecordReply(ctx, origin.Platform, observability.OutcomeFailed)
		return errors.ReplyDeliveryFailed(origin.Platform, fmt.Errorf("no replier for platform %q", origin.Platform))
	}

	if err := r.Reply(ctx, origin, d.Format(transcript)); err != nil {
		d.metrics.RecordReply(ctx, origin.Platform, observability.OutcomeFailed)
		return errors.ReplyDeliveryFailed(origin.Platform, err)
	}
	d.metrics.RecordReply(ctx, origin.Platform, observability.OutcomeDelivered)
	d.log.Debug("reply posted", logger.Fields(
		logger.FieldPlatform, origin.Platform,
		"conversation_id", origin.ConversationID,
		"message_id", origin.MessageID,
	))
	return nil
}
