package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/transcribot/chat"
	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/resilience"
	"github.com/kbukum/transcribot/transcription"
)

var (
	// ErrDuplicate is returned by Add when the poll reference is already tracked.
	ErrDuplicate = stderrors.New("jobs: poll reference already tracked")
	// ErrStopped is returned by Add after Stop.
	ErrStopped = stderrors.New("jobs: poller stopped")
)

// Dispatcher delivers a finished transcript to the message it answers.
type Dispatcher interface {
	Dispatch(ctx context.Context, origin chat.Origin, transcript string) error
}

// Stats is a point-in-time view of the poller.
type Stats struct {
	Running bool `json:"running"`
	// LoopsStarted counts Idle to Running transitions.
	LoopsStarted int64 `json:"loops_started"`
	// LiveLoops is the number of loop goroutines alive. Never above one.
	LiveLoops  int64 `json:"live_loops"`
	Rounds     int64 `json:"rounds"`
	Tracked    int   `json:"tracked"`
	Dispatched int64 `json:"dispatched"`
	// Undelivered counts dispatches whose reply failed or panicked.
	Undelivered int64 `json:"undelivered"`
	Dropped     int64 `json:"dropped"`
	Failed      int64 `json:"failed"`
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger replaces the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithRegistry replaces the job registry.
func WithRegistry(r *Registry) Option {
	return func(p *Poller) { p.registry = r }
}

// Poller owns the job registry and the poll loop.
type Poller struct {
	cfg        Config
	checker    transcription.StatusChecker
	dispatcher Dispatcher
	registry   *Registry
	log        *logger.Logger
	metrics    *observability.Metrics

	// mu serializes inserts with loop start and exit decisions.
	mu      sync.Mutex
	running bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	loopsStarted atomic.Int64
	liveLoops    atomic.Int64
	rounds       atomic.Int64
	dispatched   atomic.Int64
	undelivered  atomic.Int64
	dropped      atomic.Int64
	failed       atomic.Int64
}

var (
	_ component.Component   = (*Poller)(nil)
	_ component.Describable = (*Poller)(nil)
)

// NewPoller creates an idle poller.
func NewPoller(cfg Config, checker transcription.StatusChecker, dispatcher Dispatcher, opts ...Option) *Poller {
	cfg.ApplyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		cfg:        cfg,
		checker:    checker,
		dispatcher: dispatcher,
		registry:   NewRegistry(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get("poller")
	}
	return p
}

// Add tracks job and makes sure the poll loop is running.
func (p *Poller) Add(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if !p.registry.Add(job) {
		p.log.Warn("job already tracked", logger.Fields(logger.FieldPollRef, job.PollRef))
		return ErrDuplicate
	}
	p.metrics.RecordJobTracked(p.ctx)
	p.log.Info("job tracked", logger.Fields(
		logger.FieldJobID, job.ID,
		logger.FieldPollRef, job.PollRef,
		logger.FieldPlatform, job.Origin.Platform,
	))
	p.startLocked()
	return nil
}

// startLocked moves Idle to Running. Callers hold p.mu.
func (p *Poller) startLocked() {
	if p.running {
		p.log.Debug("poll loop already running")
		return
	}
	p.running = true
	p.loopsStarted.Add(1)
	p.liveLoops.Add(1)
	p.metrics.RecordLoop(p.ctx, 1)
	p.wg.Add(1)
	go p.loop()
	p.log.Info("poll loop started", logger.Fields("interval", p.cfg.Interval.String()))
}

// exitLocked moves Running to Idle. Callers hold p.mu.
func (p *Poller) exitLocked(reason string) {
	p.running = false
	p.liveLoops.Add(-1)
	p.metrics.RecordLoop(p.ctx, -1)
	p.log.Info("poll loop stopped", logger.Fields("reason", reason))
}

func (p *Poller) loop() {
	defer p.wg.Done()
	for {
		p.round()

		p.mu.Lock()
		switch {
		case p.stopped:
			p.exitLocked("shutdown")
			p.mu.Unlock()
			return
		case p.registry.IsEmpty():
			p.exitLocked("idle")
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		if err := resilience.Wait(p.ctx, p.cfg.Interval); err != nil {
			p.mu.Lock()
			p.exitLocked("shutdown")
			p.mu.Unlock()
			return
		}
	}
}

type pollResult struct {
	job    Job
	status transcription.Status
	err    error
}

// round polls every tracked job once. It runs on a context detached from
// shutdown so in-flight polls and replies finish.
func (p *Poller) round() {
	ctx := context.WithoutCancel(p.ctx)
	n := p.rounds.Add(1)
	snapshot := p.registry.Snapshot()
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, observability.SpanPollRound,
		attribute.Int64(observability.AttrRound, n),
		attribute.Int(observability.AttrJobs, len(snapshot)),
	)
	defer observability.EndSpan(span, nil)

	results := make([]pollResult, len(snapshot))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, job := range snapshot {
		g.Go(func() error {
			results[i] = p.pollOne(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	var (
		remove []string
		done   []pollResult
	)
	for _, res := range results {
		fields := logger.Fields(
			logger.FieldJobID, res.job.ID,
			logger.FieldPollRef, res.job.PollRef,
			logger.FieldRound, n,
		)
		if res.err != nil {
			streak := p.registry.RecordFailure(res.job.PollRef)
			p.metrics.RecordPollFailure(ctx)
			fields["consecutive_failures"] = streak
			p.log.WithError(res.err).Warn("poll failed, keeping job", fields)
			if p.cfg.MaxConsecutiveFailures > 0 && streak >= p.cfg.MaxConsecutiveFailures {
				remove = append(remove, res.job.PollRef)
				p.dropped.Add(1)
				p.metrics.RecordJobFinished(ctx, observability.OutcomeDropped, res.job.Age())
				p.log.Error("dropping job after repeated poll failures", fields)
			}
			continue
		}

		switch res.status.State {
		case transcription.StateDone:
			remove = append(remove, res.job.PollRef)
			done = append(done, res)
		case transcription.StateFailed:
			remove = append(remove, res.job.PollRef)
			p.failed.Add(1)
			p.metrics.RecordJobFinished(ctx, observability.OutcomeFailed, res.job.Age())
			fields["error_code"] = res.status.ErrorCode
			p.log.Warn("transcription failed remotely, dropping job", fields)
		default:
			p.registry.RecordPoll(res.job.PollRef)
		}
	}
	p.registry.Remove(remove...)

	for _, res := range done {
		p.dispatch(ctx, res)
	}

	p.metrics.RecordPollRound(ctx, len(snapshot), time.Since(start))
	p.log.Debug("poll round finished", logger.Fields(
		logger.FieldRound, n,
		"polled", len(snapshot),
		"finished", len(remove),
		"tracked", p.registry.Len(),
	))
}

func (p *Poller) pollOne(ctx context.Context, job Job) (res pollResult) {
	res.job = job
	defer func() {
		if r := recover(); r != nil {
			res.status = transcription.Status{}
			res.err = fmt.Errorf("poll panicked: %v", r)
		}
	}()

	ctx, span := observability.StartSpan(ctx, observability.SpanPollJob,
		attribute.String(observability.AttrJobID, job.ID),
		attribute.String(observability.AttrPollRef, job.PollRef),
	)
	res.status, res.err = p.checker.PollStatus(ctx, job.PollRef)
	span.SetAttributes(attribute.String(observability.AttrState, res.status.State.String()))
	observability.EndSpan(span, res.err)
	return res
}

func (p *Poller) dispatch(ctx context.Context, res pollResult) {
	ctx = logger.ContextWithJobID(ctx, res.job.ID)
	p.dispatched.Add(1)
	p.metrics.RecordJobFinished(ctx, observability.OutcomeDone, res.job.Age())
	if err := p.deliver(ctx, res); err != nil {
		p.undelivered.Add(1)
		// The job is already removed; the reply is lost.
		p.log.WithContext(ctx).WithError(err).Error("reply delivery failed", logger.Fields(
			logger.FieldPollRef, res.job.PollRef,
			logger.FieldPlatform, res.job.Origin.Platform,
		))
		return
	}
	p.log.WithContext(ctx).Info("transcript delivered", logger.Fields(
		logger.FieldPollRef, res.job.PollRef,
		logger.FieldPlatform, res.job.Origin.Platform,
	))
}

// deliver calls the dispatcher, turning a panic into a delivery failure.
func (p *Poller) deliver(ctx context.Context, res pollResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.ReplyDeliveryFailed(res.job.Origin.Platform, fmt.Errorf("reply panicked: %v", r))
		}
	}()
	return p.dispatcher.Dispatch(ctx, res.job.Origin, res.status.Transcript)
}

// Name implements component.Component.
func (p *Poller) Name() string { return "poller" }

// Start implements component.Component. The loop starts lazily on Add.
func (p *Poller) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	return nil
}

// Stop cancels the sleep between rounds and waits for the loop to exit.
// A round in progress completes first. Tracked jobs are abandoned.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("poller stop: %w", ctx.Err())
	}
	if n := p.registry.Len(); n > 0 {
		p.log.Warn("abandoning tracked jobs", logger.Fields("tracked", n))
	}
	return nil
}

// Health implements component.Component.
func (p *Poller) Health(_ context.Context) component.Health {
	st := p.Stats()
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy}
	switch {
	case st.Running:
		h.Message = fmt.Sprintf("running, %d jobs tracked", st.Tracked)
	default:
		h.Message = "idle"
	}
	p.mu.Lock()
	if p.stopped {
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	}
	p.mu.Unlock()
	return h
}

// Describe implements component.Describable.
func (p *Poller) Describe() component.Description {
	return component.Description{
		Type:    "worker",
		Details: fmt.Sprintf("interval=%s concurrency=%d", p.cfg.Interval, p.cfg.Concurrency),
	}
}

// Stats returns counters and the current loop state.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	return Stats{
		Running:      running,
		LoopsStarted: p.loopsStarted.Load(),
		LiveLoops:    p.liveLoops.Load(),
		Rounds:       p.rounds.Load(),
		Tracked:      p.registry.Len(),
		Dispatched:   p.dispatched.Load(),
		Undelivered:  p.undelivered.Load(),
		Dropped:      p.dropped.Load(),
		Failed:       p.failed.Load(),
	}
}

// Jobs returns the tracked jobs, oldest first.
func (p *Poller) Jobs() []Job {
	return p.registry.Snapshot()
}
