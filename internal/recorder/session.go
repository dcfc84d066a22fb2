package recorder

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/voice-engine/internal/audio"
	"github.com/GriffinCanCode/voice-engine/internal/syncx"
)

// StopReason records why a session stopped.
type StopReason uint32

const (
	ReasonNone StopReason = iota
	ReasonManual
	ReasonSilence
)

func (r StopReason) String() string {
	return [...]string{"", "manual", "silence"}[r]
}

// Session is the mutable state of one capture run. lastLoud is owned by the
// poll loop; the stop latch may be written from any goroutine. mu orders
// appends against the stop transition so nothing lands after the session ends.
type Session struct {
	mu        sync.Mutex
	frames    []audio.Frame
	startedAt time.Time
	lastLoud  time.Time
	stop      *syncx.Latch[StopReason]
}

func newSession(now time.Time) *Session {
	return &Session{
		startedAt: now,
		lastLoud:  now,
		stop:      syncx.NewLatch[StopReason](),
	}
}

// Active reports whether the session is still recording.
func (s *Session) Active() bool { return !s.stop.IsSet() }

// Reason returns the stop reason, or ReasonNone while active.
func (s *Session) Reason() StopReason {
	r, _ := s.stop.Get()
	return r
}

// Done is closed when the session stops.
func (s *Session) Done() <-chan struct{} { return s.stop.Done() }

// FrameCount returns the number of accumulated frames.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Frames returns the accumulated frames in capture order.
func (s *Session) Frames() []audio.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[:len(s.frames):len(s.frames)]
}

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// LastLoud returns the time of the most recent frame above threshold.
func (s *Session) LastLoud() time.Time { return s.lastLoud }

// appendFrame adds f unless the session has ended.
func (s *Session) appendFrame(f audio.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop.IsSet() {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

// end latches reason if no reason has been recorded yet.
func (s *Session) end(reason StopReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop.Set(reason)
}
