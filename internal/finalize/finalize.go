// Package finalize turns a finished session's frames into one line of text.
package finalize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/voice-engine/internal/audio"
	"github.com/GriffinCanCode/voice-engine/internal/trace"
	"github.com/GriffinCanCode/voice-engine/internal/transcribe"
)

// Outcome classifies a finalization.
type Outcome int

const (
	OutcomeEmpty       Outcome = iota // no frames captured
	OutcomeTranscribed                // text written to Out
	OutcomeBlank                      // transcript trimmed to nothing
	OutcomeFailed                     // encoding or transcription failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeTranscribed:
		return "transcribed"
	case OutcomeBlank:
		return "blank"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what Finalize did.
type Result struct {
	Outcome Outcome
	Text    string
	Samples int
	Err     error
}

// Finalizer writes the waveform to a temporary container, hands it to the
// transcriber, and prints the trimmed text. The container is always removed.
type Finalizer struct {
	Transcriber transcribe.Transcriber
	Out         io.Writer
	TempDir     string // defaults to os.TempDir()
	Basename    string
	SampleRate  int
	Logger      *slog.Logger
}

// Path returns the temporary container location.
func (f *Finalizer) Path() string {
	dir := f.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	name := f.Basename
	if name == "" {
		name = DefaultBasename
	}
	return filepath.Join(dir, name)
}

// Finalize never returns an error; failures are logged and reported in Result.
func (f *Finalizer) Finalize(ctx context.Context, frames []audio.Frame) Result {
	log := f.Logger
	if log == nil {
		log = trace.Logger(ctx)
	}

	if len(frames) == 0 {
		log.Info("no audio captured")
		return Result{Outcome: OutcomeEmpty}
	}

	rate := f.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	wave := audio.Concat(frames, rate)
	res := Result{Samples: wave.Len()}

	path := f.Path()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("remove temp audio", "path", path, "error", err)
		}
	}()

	span := trace.StartSpan(ctx, "encode_wav")
	span.SetAttr("samples", wave.Len())
	err := audio.WriteWAV(path, wave)
	span.End()
	if err != nil {
		log.Error("transcription failed", "error", err)
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	log.Debug("wrote temp audio", "path", path, "duration", wave.Duration(), "span", span)

	span = trace.StartSpan(ctx, "transcribe")
	text, err := f.Transcriber.Transcribe(ctx, path)
	span.End()
	if err != nil {
		log.Error("transcription failed", "error", err)
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	log.Debug("transcribed", "span", span)

	text = strings.TrimSpace(text)
	if text == "" {
		log.Info("transcript was blank")
		res.Outcome = OutcomeBlank
		return res
	}

	res.Text = text
	if _, err := fmt.Fprintln(f.Out, text); err != nil {
		log.Error("write transcript", "error", err)
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	res.Outcome = OutcomeTranscribed
	return res
}
