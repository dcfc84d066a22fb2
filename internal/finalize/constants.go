package finalize

const (
	DefaultBasename   = "voice_engine_input.wav"
	DefaultSampleRate = 16000
)
