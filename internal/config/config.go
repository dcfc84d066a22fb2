// Package config handles voice engine configuration
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/voice-engine/internal/errors"
)

type Config struct {
	// Silence gating
	Threshold       float64       `yaml:"threshold"`
	SilenceDuration time.Duration `yaml:"silence_duration"`
	MinFrames       int           `yaml:"min_frames"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	StopDirective   string        `yaml:"stop_directive"`

	// Capture
	SampleRate      int      `yaml:"sample_rate"`
	FramesPerBuffer int      `yaml:"frames_per_buffer"`
	QueueSize       int      `yaml:"queue_size"`
	Device          string   `yaml:"device"`
	ExcludedDevices []string `yaml:"excluded_devices"`

	// Transcription
	ModelPath    string `yaml:"model"`
	Language     string `yaml:"language"`
	Threads      int    `yaml:"threads"`
	TempBasename string `yaml:"temp_basename"`

	LogLevel string `yaml:"log_level"`
}

func Load() *Config {
	return &Config{
		Threshold:       getEnvFloat("VOICE_THRESHOLD", DefaultThreshold),
		SilenceDuration: getEnvSeconds("VOICE_SILENCE_DURATION", DefaultSilenceDuration),
		MinFrames:       getEnvInt("VOICE_MIN_FRAMES", DefaultMinFrames),
		PollInterval:    time.Duration(getEnvInt("VOICE_POLL_INTERVAL_MS", int(DefaultPollInterval/time.Millisecond))) * time.Millisecond,
		StopDirective:   getEnv("VOICE_STOP_DIRECTIVE", DefaultStopDirective),
		SampleRate:      getEnvInt("SAMPLE_RATE", DefaultSampleRate),
		FramesPerBuffer: getEnvInt("FRAMES_PER_BUFFER", DefaultFramesPerBuffer),
		QueueSize:       getEnvInt("AUDIO_QUEUE_SIZE", DefaultQueueSize),
		Device:          getEnv("AUDIO_DEVICE", ""),
		ExcludedDevices: getEnvList("EXCLUDED_AUDIO_DEVICES", nil),
		ModelPath:       getEnv("WHISPER_MODEL", DefaultModelPath),
		Language:        getEnv("WHISPER_LANGUAGE", DefaultLanguage),
		Threads:         getEnvInt("WHISPER_THREADS", 0),
		TempBasename:    getEnv("VOICE_TEMP_BASENAME", DefaultTempBasename),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "open config file").WithMetadata("path", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "decode config file").WithMetadata("path", path)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String renders the silence-gating settings for the startup diagnostic.
func (c *Config) String() string {
	return fmt.Sprintf("Threshold=%g, Duration=%gs", c.Threshold, c.SilenceDuration.Seconds())
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvSeconds reads a float number of seconds.
func getEnvSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return Seconds(f)
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}

// Seconds converts a float number of seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
