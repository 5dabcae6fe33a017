package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values recorded on message, job and reply counters.
const (
	OutcomeSubmitted = "submitted"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeDone      = "done"
	OutcomeDropped   = "dropped"
	OutcomeDelivered = "delivered"
)

// Metrics holds the bot's metric instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	messages      metric.Int64Counter
	submitLatency metric.Float64Histogram
	jobsTracked   metric.Int64UpDownCounter
	jobsFinished  metric.Int64Counter
	pollRounds    metric.Int64Counter
	pollDuration  metric.Float64Histogram
	pollFailures  metric.Int64Counter
	loops         metric.Int64UpDownCounter
	replies       metric.Int64Counter
	jobLatency    metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.messages, err = meter.Int64Counter("transcribot.messages",
		metric.WithDescription("Audio messages handled, by platform and outcome")); err != nil {
		return nil, fmt.Errorf("creating transcribot.messages counter: %w", err)
	}
	if m.submitLatency, err = meter.Float64Histogram("transcribot.submit.duration",
		metric.WithDescription("Time to fetch, upload and request a transcription"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating transcribot.submit.duration histogram: %w", err)
	}
	if m.jobsTracked, err = meter.Int64UpDownCounter("transcribot.jobs.tracked",
		metric.WithDescription("Jobs currently awaiting completion")); err != nil {
		return nil, fmt.Errorf("creating transcribot.jobs.tracked gauge: %w", err)
	}
	if m.jobsFinished, err = meter.Int64Counter("transcribot.jobs.finished",
		metric.WithDescription("Jobs removed from tracking, by outcome")); err != nil {
		return nil, fmt.Errorf("creating transcribot.jobs.finished counter: %w", err)
	}
	if m.pollRounds, err = meter.Int64Counter("transcribot.poll.rounds",
		metric.WithDescription("Completed poll rounds")); err != nil {
		return nil, fmt.Errorf("creating transcribot.poll.rounds counter: %w", err)
	}
	if m.pollDuration, err = meter.Float64Histogram("transcribot.poll.round.duration",
		metric.WithDescription("Duration of a poll round"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating transcribot.poll.round.duration histogram: %w", err)
	}
	if m.pollFailures, err = meter.Int64Counter("transcribot.poll.failures",
		metric.WithDescription("Transient status check failures")); err != nil {
		return nil, fmt.Errorf("creating transcribot.poll.failures counter: %w", err)
	}
	if m.loops, err = meter.Int64UpDownCounter("transcribot.poll.loops",
		metric.WithDescription("Running poll loops")); err != nil {
		return nil, fmt.Errorf("creating transcribot.poll.loops gauge: %w", err)
	}
	if m.replies, err = meter.Int64Counter("transcribot.replies",
		metric.WithDescription("Transcript replies, by platform and outcome")); err != nil {
		return nil, fmt.Errorf("creating transcribot.replies counter: %w", err)
	}
	if m.jobLatency, err = meter.Float64Histogram("transcribot.job.duration",
		metric.WithDescription("Time from submission to completion"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating transcribot.job.duration histogram: %w", err)
	}
	return m, nil
}

// RecordMessage records a handled inbound message.
func (m *Metrics) RecordMessage(ctx context.Context, platform, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("outcome", outcome),
	))
	if outcome == OutcomeSubmitted {
		m.submitLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("platform", platform)))
	}
}

// RecordJobTracked records a new tracked job.
func (m *Metrics) RecordJobTracked(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsTracked.Add(ctx, 1)
}

// RecordJobFinished records a job leaving tracking.
func (m *Metrics) RecordJobFinished(ctx context.Context, outcome string, age time.Duration) {
	if m == nil {
		return
	}
	m.jobsTracked.Add(ctx, -1)
	m.jobsFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == OutcomeDone {
		m.jobLatency.Record(ctx, age.Seconds())
	}
}

// RecordPollRound records a completed round over n jobs.
func (m *Metrics) RecordPollRound(ctx context.Context, n int, d time.Duration) {
	if m == nil {
		return
	}
	m.pollRounds.Add(ctx, 1)
	m.pollDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Int("jobs", n)))
}

// RecordPollFailure records a transient status check failure.
func (m *Metrics) RecordPollFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.pollFailures.Add(ctx, 1)
}

// RecordLoop records a poll loop starting (+1) or exiting (-1).
func (m *Metrics) RecordLoop(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.loops.Add(ctx, delta)
}

// RecordReply records a reply delivery attempt.
func (m *Metrics) RecordReply(ctx context.Context, platform, outcome string) {
	if m == nil {
		return
	}
	m.replies.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("outcome", outcome),
	))
}
