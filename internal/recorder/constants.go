// Package recorder implements the silence-gated recording session
package recorder

import "time"

// Recorder defaults
const (
	DefaultThreshold       = 0.01
	DefaultSilenceDuration = 3 * time.Second
	DefaultPollInterval    = 50 * time.Millisecond

	// DefaultMinFrames keeps a stream that opens silent from stopping before
	// the speaker starts talking.
	DefaultMinFrames = 50
)
