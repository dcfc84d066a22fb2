// Package whisper transcribes WAV files with a local whisper.cpp model through
// the CGO bindings. libwhisper.a and whisper.h must be reachable through
// LIBRARY_PATH and C_INCLUDE_PATH at build time.
package whisper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/GriffinCanCode/voice-engine/internal/audio"
	apperrors "github.com/GriffinCanCode/voice-engine/internal/errors"
	"github.com/GriffinCanCode/voice-engine/internal/transcribe"
)

// SampleRate is the input rate whisper models expect.
const SampleRate = 16000

var _ transcribe.Transcriber = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLanguage sets the spoken language code ("en", "de", "auto").
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// WithThreads sets the inference thread count; zero keeps the library default.
func WithThreads(n int) Option {
	return func(e *Engine) { e.threads = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is a whisper.cpp transcriber. The model is loaded on first use so a
// session that captures nothing never pays for it.
type Engine struct {
	modelPath string
	language  string
	threads   int
	log       *slog.Logger

	once    sync.Once
	model   whisperlib.Model
	loadErr error
}

// New creates an engine for the ggml model at modelPath.
func New(modelPath string, opts ...Option) *Engine {
	e := &Engine{
		modelPath: modelPath,
		language:  "en",
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Transcribe decodes the WAV at path, resamples it to 16 kHz when needed and
// returns the joined segment text.
func (e *Engine) Transcribe(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeTranscription, "context done before transcription")
	}

	model, err := e.load()
	if err != nil {
		return "", err
	}

	wave, err := audio.ReadWAV(path)
	if err != nil {
		return "", err
	}
	if wave.SampleRate != SampleRate {
		e.log.Debug("resampling for whisper", "from", wave.SampleRate, "to", SampleRate)
		wave = audio.Resample(wave, SampleRate)
	}

	wctx, err := model.NewContext()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeTranscription, "create whisper context")
	}
	if e.language != "" {
		if err := wctx.SetLanguage(e.language); err != nil {
			e.log.Warn("whisper: failed to set language, using default", "language", e.language, "error", err)
		}
	}
	if e.threads > 0 {
		wctx.SetThreads(uint(e.threads))
	}

	if err := wctx.Process(wave.Samples, nil, nil, nil); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeTranscription, "process audio").WithMetadata("path", path)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeTranscription, "read segment")
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the model if it was loaded.
func (e *Engine) Close() error {
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

func (e *Engine) load() (whisperlib.Model, error) {
	e.once.Do(func() {
		if e.modelPath == "" {
			e.loadErr = apperrors.New(apperrors.CodeModelLoad, "model path must not be empty")
			return
		}
		e.log.Debug("loading whisper model", "path", e.modelPath)
		e.model, e.loadErr = whisperlib.New(e.modelPath)
		if e.loadErr != nil {
			e.loadErr = apperrors.Wrap(e.loadErr, apperrors.CodeModelLoad, "load whisper model").WithMetadata("path", e.modelPath)
		}
	})
	return e.model, e.loadErr
}
