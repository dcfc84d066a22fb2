package capture

// Capture defaults
const (
	DefaultSampleRate      = 16000
	DefaultFramesPerBuffer = 1024 // ~64ms at 16kHz
	DefaultQueueSize       = 512

	// DropLogEvery throttles queue-full diagnostics.
	DropLogEvery = 100
)
