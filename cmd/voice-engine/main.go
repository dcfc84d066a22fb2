// voice-engine records one utterance from the microphone, stops on silence or
// a STOP line on stdin, and prints the transcript on stdout.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/voice-engine/internal/capture"
	"github.com/GriffinCanCode/voice-engine/internal/config"
	"github.com/GriffinCanCode/voice-engine/internal/engine"
	"github.com/GriffinCanCode/voice-engine/internal/trace"
	"github.com/GriffinCanCode/voice-engine/internal/transcribe/whisper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(runSession).ExecuteContext(ctx); err != nil {
		// flag errors only; cobra already printed them
		os.Exit(1)
	}
}

// runSession records and transcribes a single utterance. Session failures
// are logged, never returned.
func runSession(ctx context.Context, cfg *config.Config) error {
	ctx, sess := trace.EnsureSession(ctx)
	log := slog.Default().With("session", sess.ID)

	src, err := capture.NewCapturer(capture.Config{
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.FramesPerBuffer,
		QueueSize:       cfg.QueueSize,
		Device:          cfg.Device,
		ExcludedDevices: cfg.ExcludedDevices,
	}, log)
	if err != nil {
		log.Error("failed to initialize audio capture", "error", err)
		return nil
	}

	stt := whisper.New(cfg.ModelPath,
		whisper.WithLanguage(cfg.Language),
		whisper.WithThreads(cfg.Threads),
		whisper.WithLogger(log),
	)
	defer func() {
		if err := stt.Close(); err != nil {
			log.Debug("close whisper model", "error", err)
		}
	}()

	rep := engine.New(cfg, src, stt, engine.WithLogger(log)).Run(ctx)
	log.Debug("session finished", "outcome", rep.Outcome, "reason", rep.Reason, "frames", rep.Frames)
	return nil
}
