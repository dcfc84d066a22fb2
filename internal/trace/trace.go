// Package trace tags a recording session's logs with a session id and times
// its stages.
package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type ctxKey struct{}

var sessionKey = ctxKey{}

// Session identifies one capture-to-transcript run.
type Session struct {
	ID        string
	StartedAt time.Time
}

// NewSession creates a session with a fresh id.
func NewSession() Session {
	return Session{ID: uuid.NewString(), StartedAt: time.Now()}
}

// WithSession injects s into ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext extracts the session from ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// EnsureSession returns the existing session or attaches a new one.
func EnsureSession(ctx context.Context) (context.Context, Session) {
	if s, ok := FromContext(ctx); ok {
		return ctx, s
	}
	s := NewSession()
	return WithSession(ctx, s), s
}

// Logger returns the default logger tagged with the session id, if any.
func Logger(ctx context.Context) *slog.Logger {
	s, ok := FromContext(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With("session", s.ID)
}

// Span times one stage of a session.
type Span struct {
	Name      string
	Session   string
	StartTime time.Time
	EndTime   time.Time
	Attrs     map[string]any
}

// StartSpan begins a span under the session in ctx.
func StartSpan(ctx context.Context, name string) *Span {
	s, _ := FromContext(ctx)
	return &Span{
		Name:      name,
		Session:   s.ID,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
}

// End marks the span complete.
func (s *Span) End() {
	s.EndTime = time.Now()
}

// SetAttr sets a span attribute.
func (s *Span) SetAttr(key string, val any) {
	s.Attrs[key] = val
}

// Duration returns the span duration, or 0 while it is still open.
func (s *Span) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// LogValue implements slog.LogValuer.
func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", s.Name),
		slog.Duration("duration", s.Duration()),
	}
	if s.Session != "" {
		attrs = append(attrs, slog.String("session", s.Session))
	}
	for k, v := range s.Attrs {
		attrs = append(attrs, slog.Any(k, v))
	}
	return slog.GroupValue(attrs...)
}
