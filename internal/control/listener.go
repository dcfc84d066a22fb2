// Package control watches a line-oriented control stream for stop directives
package control

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/GriffinCanCode/voice-engine/internal/errors"
)

// DefaultDirective is the substring that requests a manual stop.
const DefaultDirective = "STOP"

// Stopper is the session surface the listener drives.
type Stopper interface {
	RequestManualStop() bool
	Active() bool
	Done() <-chan struct{}
}

// Listener reads lines from Input and requests a manual stop when one
// contains Directive.
type Listener struct {
	Input     io.Reader
	Directive string
	Logger    *slog.Logger
}

// NewListener creates a listener for r using the default directive.
func NewListener(r io.Reader) *Listener {
	return &Listener{Input: r, Directive: DefaultDirective}
}

// Run watches the input until a directive arrives, the input ends or fails,
// the session stops, or ctx is cancelled. It always returns nil: a broken
// control stream leaves the session to silence detection.
//
// The blocking read runs on its own goroutine, which stays parked on the
// reader if Run returns for any reason other than end of input.
func (l *Listener) Run(ctx context.Context, s Stopper) error {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	directive := l.Directive
	if directive == "" {
		directive = DefaultDirective
	}

	lines := make(chan string)
	readDone := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(l.Input)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-s.Done():
				readDone <- nil
				return
			}
		}
		readDone <- sc.Err()
	}()

	for {
		if !s.Active() {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.Done():
			return nil
		case err := <-readDone:
			if err != nil {
				log.Debug("control stream read failed", "error", apperrors.Wrap(err, apperrors.CodeControlRead, "read control line"))
			} else {
				log.Debug("control stream closed")
			}
			return nil
		case line := <-lines:
			if strings.Contains(line, directive) {
				s.RequestManualStop()
				return nil
			}
		}
	}
}
