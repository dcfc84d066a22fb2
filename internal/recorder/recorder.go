package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/GriffinCanCode/voice-engine/internal/audio"
)

// Config for the silence gate
type Config struct {
	Threshold       float64       // RMS above which a frame counts as sound
	SilenceDuration time.Duration // continuous silence before auto-stop
	PollInterval    time.Duration // upper bound on stop-detection latency
	MinFrames       int           // frames required before silence may stop the session
}

// DefaultConfig returns the stock silence-gate settings.
func DefaultConfig() Config {
	return Config{
		Threshold:       DefaultThreshold,
		SilenceDuration: DefaultSilenceDuration,
		PollInterval:    DefaultPollInterval,
		MinFrames:       DefaultMinFrames,
	}
}

// Threshold and SilenceDuration are taken as given; a non-positive threshold
// means no frame is ever silent.
func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MinFrames < 0 {
		c.MinFrames = 0
	}
	return c
}

// Result is the outcome of a finished session.
type Result struct {
	Frames  []audio.Frame
	Reason  StopReason
	Elapsed time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the time source, used to drive silence timing in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the logger for stop diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// Recorder accumulates frames and decides when recording should stop.
type Recorder struct {
	cfg     Config
	now     func() time.Time
	log     *slog.Logger
	session *Session
}

// New creates a recorder whose session starts immediately.
func New(cfg Config, opts ...Option) *Recorder {
	r := &Recorder{
		cfg: cfg.withDefaults(),
		now: time.Now,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.session = newSession(r.now())
	return r
}

// Session exposes the recorder's session state.
func (r *Recorder) Session() *Session { return r.session }

// Active reports whether the session is still recording.
func (r *Recorder) Active() bool { return r.session.Active() }

// Done is closed when the session stops.
func (r *Recorder) Done() <-chan struct{} { return r.session.Done() }

// Ingest appends f to the session and refreshes the last-loud time when f is
// above threshold. Frames arriving after the session ended are ignored.
func (r *Recorder) Ingest(f audio.Frame) bool {
	if !r.session.appendFrame(f) {
		return false
	}
	if f.Volume() > r.cfg.Threshold {
		r.session.lastLoud = r.now()
	}
	return true
}

// ShouldStop reports whether the poll loop should exit. It latches
// ReasonSilence once the silence window has elapsed and enough frames exist.
func (r *Recorder) ShouldStop() bool {
	if !r.session.Active() {
		return true
	}
	silent := r.now().Sub(r.session.lastLoud)
	if silent <= r.cfg.SilenceDuration {
		return false
	}
	frames := r.session.FrameCount()
	if frames < r.cfg.MinFrames {
		return false
	}
	if r.session.end(ReasonSilence) {
		r.log.Info("Silence detected. Stopping...", "silent_for", silent, "frames", frames)
	}
	return true
}

// RequestManualStop ends the session with ReasonManual unless it has already
// stopped. Safe to call from any goroutine, any number of times.
func (r *Recorder) RequestManualStop() bool {
	if !r.session.end(ReasonManual) {
		return false
	}
	r.log.Info("manual stop requested")
	return true
}

// Run drains frames and evaluates the stop condition every PollInterval until
// the session ends. Cancelling ctx or closing frames counts as a manual stop.
func (r *Recorder) Run(ctx context.Context, frames <-chan audio.Frame) Result {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if !r.drain(frames) {
			r.log.Warn("capture stream closed")
			r.RequestManualStop()
		}
		if r.ShouldStop() {
			break
		}

		select {
		case <-ctx.Done():
			r.RequestManualStop()
		case <-r.session.Done():
		case <-ticker.C:
		}
	}

	return Result{
		Frames:  r.session.Frames(),
		Reason:  r.session.Reason(),
		Elapsed: r.now().Sub(r.session.startedAt),
	}
}

// drain ingests every queued frame without blocking. It returns false once
// the channel has been closed.
func (r *Recorder) drain(frames <-chan audio.Frame) bool {
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return false
			}
			r.Ingest(f)
		default:
			return true
		}
	}
}
