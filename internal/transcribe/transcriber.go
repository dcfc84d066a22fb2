// Package transcribe defines the speech-to-text collaborator contract.
package transcribe

import "context"

// Transcriber turns the waveform container at path into recognized text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Func adapts a plain function to the Transcriber interface.
type Func func(ctx context.Context, path string) (string, error)

// Transcribe calls f.
func (f Func) Transcribe(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}
