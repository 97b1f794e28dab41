package vitals

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInputWait bounds how long the first-input and interaction
// collectors wait for a qualifying observation before resolving unknown.
const DefaultInputWait = 5 * time.Second

// Config holds the optional knobs of a Session. The zero value is usable.
type Config struct {
	// Store is the snapshot store the session writes to. A fresh store is
	// created when nil. Sharing one store across sequential sessions
	// preserves render records between aggregation cycles.
	Store *Store

	// Logger receives collector warnings, alert events, and feedback.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// InputWait is the fallback window for the first-input and interaction
	// collectors. Defaults to DefaultInputWait.
	InputWait time.Duration

	// CollectorTimeout caps the collectors that have no fallback of their
	// own (paint, largest-paint, page-load). The default 0 preserves the
	// documented behaviour of waiting indefinitely for a real signal; a
	// positive value resolves the metric to unknown with a warning once it
	// elapses.
	CollectorTimeout time.Duration
}

func (c *Config) defaults() {
	if c.Store == nil {
		c.Store = NewStore()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.InputWait <= 0 {
		c.InputWait = DefaultInputWait
	}
}

// Session tracks the performance metrics of one page session. It owns a
// snapshot store, samples the injected Provider on demand, and evaluates
// alerts and the gamified score against the stored snapshot.
type Session struct {
	provider  Provider
	store     *Store
	log       *slog.Logger
	inputWait time.Duration
	timeout   time.Duration
}

// NewSession creates a Session reading observations from p.
func NewSession(p Provider, cfg Config) *Session {
	cfg.defaults()
	return &Session{
		provider:  p,
		store:     cfg.Store,
		log:       cfg.Logger,
		inputWait: cfg.InputWait,
		timeout:   cfg.CollectorTimeout,
	}
}

// Store exposes the session's snapshot store.
func (s *Session) Store() *Store { return s.store }

// TrackRender records one component render time. Unlike the scalar
// collectors this is synchronous: the record is appended to the snapshot
// immediately and returned with RenderTime rounded to two decimals. The
// same component may be recorded any number of times.
func (s *Session) TrackRender(name string, renderTime float64) RenderRecord {
	rec := s.store.AppendRender(name, renderTime)
	s.log.Debug("vitals: component render recorded",
		"component", rec.Name, "render_ms", rec.RenderTime)
	return rec
}

// Score computes the gamified score from the current snapshot.
func (s *Session) Score() int {
	return Score(s.store.Snapshot())
}

// Gamify computes the score, logs the qualitative feedback message, and
// returns both.
func (s *Session) Gamify() (int, string) {
	score := s.Score()
	msg := FeedbackMessage(score)
	s.log.Info("vitals: performance score",
		"score", score, "tier", Feedback(score), "feedback", msg)
	return score, msg
}

// RunOptions gates the stages of Run. Construct it with DefaultRunOptions
// and disable stages explicitly; the Go zero value would invert the
// documented all-on defaults.
type RunOptions struct {
	// Metrics runs the aggregation cycle.
	Metrics bool

	// Alerts evaluates thresholds against the snapshot.
	Alerts bool

	// Gamification computes and logs the score and feedback.
	Gamification bool

	// Thresholds overrides alert ceilings key-by-key.
	Thresholds Thresholds
}

// DefaultRunOptions enables every stage with no threshold overrides.
func DefaultRunOptions() RunOptions {
	return RunOptions{Metrics: true, Alerts: true, Gamification: true}
}

// Run executes the tracker stages strictly in order: aggregate, alert,
// gamify, each gated by its flag. Later stages run against whatever
// snapshot state exists, so disabling Metrics evaluates the previous (or
// empty) snapshot. Returns ctx.Err when the context ends mid-run.
func (s *Session) Run(ctx context.Context, opts RunOptions) error {
	if opts.Metrics {
		s.Collect(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.Alerts {
		s.CheckAlerts(opts.Thresholds)
	}
	if opts.Gamification {
		s.Gamify()
	}
	return ctx.Err()
}
