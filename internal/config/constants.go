package config

import "time"

// Configuration defaults
const (
	DefaultThreshold       = 0.01
	DefaultSilenceDuration = 3 * time.Second
	DefaultMinFrames       = 50
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultStopDirective   = "STOP"

	// 16 kHz is what whisper models are trained on, so no resampling is needed.
	DefaultSampleRate      = 16000
	DefaultFramesPerBuffer = 1024 // 64ms at 16kHz
	DefaultQueueSize       = 512

	DefaultModelPath    = "models/ggml-base.bin"
	DefaultLanguage     = "en"
	DefaultTempBasename = "voice_engine_input.wav"
	DefaultLogLevel     = "info"
)
