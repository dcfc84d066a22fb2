// Package engine runs one recording session from capture to transcript
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/voice-engine/internal/capture"
	"github.com/GriffinCanCode/voice-engine/internal/config"
	"github.com/GriffinCanCode/voice-engine/internal/control"
	"github.com/GriffinCanCode/voice-engine/internal/finalize"
	"github.com/GriffinCanCode/voice-engine/internal/recorder"
	"github.com/GriffinCanCode/voice-engine/internal/trace"
	"github.com/GriffinCanCode/voice-engine/internal/transcribe"
)

// Report summarizes a finished session.
type Report struct {
	SessionID string
	Reason    recorder.StopReason
	Frames    int
	Dropped   uint64
	Elapsed   time.Duration
	Outcome   finalize.Outcome
	Text      string
	Err       error
}

// Engine wires a capture source, the silence gate, the control listener and
// the finalizer for a single session.
type Engine struct {
	cfg         *config.Config
	source      capture.Source
	transcriber transcribe.Transcriber

	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	tempDir string
	log     *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithIO replaces the process streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdin, e.stdout, e.stderr = stdin, stdout, stderr
	}
}

// WithTempDir sets where the temporary WAV container is written.
func WithTempDir(dir string) Option {
	return func(e *Engine) { e.tempDir = dir }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces the recorder's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. The source is owned by the engine once Run starts.
func New(cfg *config.Config, src capture.Source, tr transcribe.Transcriber, opts ...Option) *Engine {
	e := &Engine{
		cfg:         cfg,
		source:      src,
		transcriber: tr,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run records until silence, a stop directive, or ctx cancellation, then
// transcribes what was captured. Every failure is logged and contained.
func (e *Engine) Run(ctx context.Context) Report {
	ctx, sess := trace.EnsureSession(ctx)
	log := e.log.With("session", sess.ID)
	rep := Report{SessionID: sess.ID}

	fmt.Fprintf(e.stderr, "Config: %s\n", e.cfg)

	recOpts := []recorder.Option{recorder.WithLogger(log)}
	if e.now != nil {
		recOpts = append(recOpts, recorder.WithClock(e.now))
	}

	if err := e.source.Start(ctx); err != nil {
		log.Error("failed to start audio capture", "error", err)
		_ = e.source.Close()
		rep.Err = err
		return rep
	}

	rec := recorder.New(recorder.Config{
		Threshold:       e.cfg.Threshold,
		SilenceDuration: e.cfg.SilenceDuration,
		PollInterval:    e.cfg.PollInterval,
		MinFrames:       e.cfg.MinFrames,
	}, recOpts...)

	fmt.Fprintln(e.stderr, ReadyMarker)
	log.Debug("recording", "threshold", e.cfg.Threshold, "silence_duration", e.cfg.SilenceDuration, "min_frames", e.cfg.MinFrames)

	listener := &control.Listener{
		Input:     e.stdin,
		Directive: e.cfg.StopDirective,
		Logger:    log,
	}

	var res recorder.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = rec.Run(gctx, e.source.Frames())
		return nil
	})
	g.Go(func() error {
		return listener.Run(gctx, rec)
	})
	_ = g.Wait()

	if err := e.source.Close(); err != nil {
		log.Debug("close audio capture", "error", err)
	}

	rep.Reason = res.Reason
	rep.Frames = len(res.Frames)
	rep.Dropped = e.source.Dropped()
	rep.Elapsed = res.Elapsed
	log.Info("recording stopped", "reason", res.Reason, "frames", rep.Frames, "dropped", rep.Dropped, "elapsed", res.Elapsed)

	if rep.Frames > 0 {
		fmt.Fprintln(e.stderr, "Processing...")
	}

	fin := &finalize.Finalizer{
		Transcriber: e.transcriber,
		Out:         e.stdout,
		TempDir:     e.tempDir,
		Basename:    e.cfg.TempBasename,
		SampleRate:  e.cfg.SampleRate,
		Logger:      log,
	}
	// finalization runs to completion even after an interrupt
	out := fin.Finalize(context.WithoutCancel(ctx), res.Frames)

	rep.Outcome = out.Outcome
	rep.Text = out.Text
	rep.Err = out.Err
	return rep
}
