package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/voice-engine/internal/audio"
	"github.com/GriffinCanCode/voice-engine/internal/config"
	"github.com/GriffinCanCode/voice-engine/internal/finalize"
	"github.com/GriffinCanCode/voice-engine/internal/recorder"
	"github.com/GriffinCanCode/voice-engine/internal/transcribe"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSource struct {
	frames   chan audio.Frame
	startErr error

	mu      sync.Mutex
	started bool
	closed  bool
}

func newFakeSource(n int, level float32) *fakeSource {
	s := &fakeSource{frames: make(chan audio.Frame, n+1)}
	for i := 0; i < n; i++ {
		samples := make([]float32, 160)
		for j := range samples {
			samples[j] = level
		}
		s.frames <- audio.Frame{Samples: samples}
	}
	return s
}

func (s *fakeSource) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return s.startErr
}

func (s *fakeSource) Frames() <-chan audio.Frame { return s.frames }
func (s *fakeSource) Dropped() uint64            { return 0 }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// lockedBuffer lets the test read stderr while Run is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() *config.Config {
	return &config.Config{
		Threshold:       0.01,
		SilenceDuration: 3 * time.Second,
		MinFrames:       50,
		PollInterval:    5 * time.Millisecond,
		StopDirective:   "STOP",
		SampleRate:      16000,
		TempBasename:    "engine_test.wav",
	}
}

func echo(text string) transcribe.Transcriber {
	return transcribe.Func(func(context.Context, string) (string, error) { return text, nil })
}

func TestRunManualStopTranscribes(t *testing.T) {
	src := newFakeSource(10, 0.3)
	var stdout bytes.Buffer
	var stderr lockedBuffer
	stdin, stdinW := io.Pipe()
	defer stdinW.Close()

	e := New(testConfig(), src, echo(" hello world "),
		WithIO(stdin, &stdout, &stderr),
		WithTempDir(t.TempDir()),
		WithLogger(quiet),
	)

	done := make(chan Report, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.Eventually(t, func() bool { return strings.Contains(stderr.String(), ReadyMarker) }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	_, err := io.WriteString(stdinW, "STOP\n")
	require.NoError(t, err)

	select {
	case rep := <-done:
		assert.Equal(t, recorder.ReasonManual, rep.Reason)
		assert.Equal(t, 10, rep.Frames)
		assert.Equal(t, finalize.OutcomeTranscribed, rep.Outcome)
		assert.NotEmpty(t, rep.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop on directive")
	}

	assert.Equal(t, "hello world\n", stdout.String())
	assert.Contains(t, stderr.String(), "Config: Threshold=0.01, Duration=3s\n")
	assert.Contains(t, stderr.String(), ReadyMarker+"\n")
	assert.True(t, src.closed)
}

func TestRunSilenceStops(t *testing.T) {
	cfg := testConfig()
	cfg.SilenceDuration = 50 * time.Millisecond
	cfg.MinFrames = 5
	src := newFakeSource(8, 0)
	var stdout, stderr bytes.Buffer
	stdin, stdinW := io.Pipe()
	defer stdinW.Close()

	e := New(cfg, src, echo("quiet please"),
		WithIO(stdin, &stdout, &stderr),
		WithTempDir(t.TempDir()),
		WithLogger(quiet),
	)

	rep := e.Run(context.Background())

	assert.Equal(t, recorder.ReasonSilence, rep.Reason)
	assert.Equal(t, 8, rep.Frames)
	assert.Equal(t, "quiet please\n", stdout.String())
	assert.Contains(t, stderr.String(), "Processing...")
}

func TestRunCancelledWithoutAudio(t *testing.T) {
	src := newFakeSource(0, 0)
	var stdout, stderr bytes.Buffer
	called := false
	tr := transcribe.Func(func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	e := New(testConfig(), src, tr,
		WithIO(strings.NewReader(""), &stdout, &stderr),
		WithTempDir(t.TempDir()),
		WithLogger(quiet),
	)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	rep := e.Run(ctx)

	assert.Equal(t, recorder.ReasonManual, rep.Reason)
	assert.Equal(t, finalize.OutcomeEmpty, rep.Outcome)
	assert.False(t, called)
	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), "Processing...")
}

func TestRunStartFailure(t *testing.T) {
	src := newFakeSource(0, 0)
	src.startErr = errors.New("no microphone")
	var stdout, stderr bytes.Buffer

	e := New(testConfig(), src, echo("x"),
		WithIO(strings.NewReader(""), &stdout, &stderr),
		WithLogger(quiet),
	)
	rep := e.Run(context.Background())

	assert.ErrorIs(t, rep.Err, src.startErr)
	assert.Empty(t, stdout.String())
	assert.NotContains(t, stderr.String(), ReadyMarker)
	assert.True(t, src.closed)
}

func TestRunTranscriptionFailureNoOutput(t *testing.T) {
	cfg := testConfig()
	cfg.SilenceDuration = 20 * time.Millisecond
	cfg.MinFrames = 1
	src := newFakeSource(3, 0)
	var stdout, stderr bytes.Buffer
	boom := errors.New("decode failed")
	tr := transcribe.Func(func(context.Context, string) (string, error) { return "", boom })

	e := New(cfg, src, tr,
		WithIO(strings.NewReader(""), &stdout, &stderr),
		WithTempDir(t.TempDir()),
		WithLogger(quiet),
	)
	rep := e.Run(context.Background())

	assert.Equal(t, recorder.ReasonSilence, rep.Reason)
	assert.Equal(t, finalize.OutcomeFailed, rep.Outcome)
	assert.ErrorIs(t, rep.Err, boom)
	assert.Empty(t, stdout.String())
}
