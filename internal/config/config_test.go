package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"VOICE_THRESHOLD", "VOICE_SILENCE_DURATION", "VOICE_MIN_FRAMES", "VOICE_POLL_INTERVAL_MS",
	"VOICE_STOP_DIRECTIVE", "SAMPLE_RATE", "FRAMES_PER_BUFFER", "AUDIO_QUEUE_SIZE", "AUDIO_DEVICE",
	"EXCLUDED_AUDIO_DEVICES", "WHISPER_MODEL", "WHISPER_LANGUAGE", "WHISPER_THREADS",
	"VOICE_TEMP_BASENAME", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Threshold != 0.01 {
		t.Errorf("Threshold = %f, want %f", cfg.Threshold, 0.01)
	}
	if cfg.SilenceDuration != 3*time.Second {
		t.Errorf("SilenceDuration = %v, want %v", cfg.SilenceDuration, 3*time.Second)
	}
	if cfg.MinFrames != 50 {
		t.Errorf("MinFrames = %d, want %d", cfg.MinFrames, 50)
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 50*time.Millisecond)
	}
	if cfg.StopDirective != "STOP" {
		t.Errorf("StopDirective = %q, want %q", cfg.StopDirective, "STOP")
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want %d", cfg.SampleRate, 16000)
	}
	if cfg.FramesPerBuffer != 1024 {
		t.Errorf("FramesPerBuffer = %d, want %d", cfg.FramesPerBuffer, 1024)
	}
	if cfg.Device != "" {
		t.Errorf("Device = %q, want empty", cfg.Device)
	}
	if len(cfg.ExcludedDevices) != 0 {
		t.Errorf("ExcludedDevices = %v, want none", cfg.ExcludedDevices)
	}
	if cfg.TempBasename != "voice_engine_input.wav" {
		t.Errorf("TempBasename = %q, want %q", cfg.TempBasename, "voice_engine_input.wav")
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOICE_THRESHOLD", "0.05")
	t.Setenv("VOICE_SILENCE_DURATION", "1.5")
	t.Setenv("VOICE_MIN_FRAMES", "20")
	t.Setenv("VOICE_POLL_INTERVAL_MS", "25")
	t.Setenv("SAMPLE_RATE", "48000")
	t.Setenv("AUDIO_DEVICE", "USB")
	t.Setenv("EXCLUDED_AUDIO_DEVICES", "iphone, teams ,")
	t.Setenv("WHISPER_MODEL", "/models/small.bin")
	t.Setenv("WHISPER_THREADS", "4")

	cfg := Load()

	if cfg.Threshold != 0.05 {
		t.Errorf("Threshold = %f, want %f", cfg.Threshold, 0.05)
	}
	if cfg.SilenceDuration != 1500*time.Millisecond {
		t.Errorf("SilenceDuration = %v, want %v", cfg.SilenceDuration, 1500*time.Millisecond)
	}
	if cfg.MinFrames != 20 {
		t.Errorf("MinFrames = %d, want %d", cfg.MinFrames, 20)
	}
	if cfg.PollInterval != 25*time.Millisecond {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, 25*time.Millisecond)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want %d", cfg.SampleRate, 48000)
	}
	if cfg.Device != "USB" {
		t.Errorf("Device = %q, want %q", cfg.Device, "USB")
	}
	if len(cfg.ExcludedDevices) != 2 || cfg.ExcludedDevices[0] != "iphone" || cfg.ExcludedDevices[1] != "teams" {
		t.Errorf("ExcludedDevices = %v, want [iphone teams]", cfg.ExcludedDevices)
	}
	if cfg.ModelPath != "/models/small.bin" {
		t.Errorf("ModelPath = %q, want %q", cfg.ModelPath, "/models/small.bin")
	}
	if cfg.Threads != 4 {
		t.Errorf("Threads = %d, want %d", cfg.Threads, 4)
	}
}

func TestLoadFileOverlays(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "voice.yaml")
	body := "threshold: 0.2\nsilence_duration: 2s\ndevice: Built-in\nexcluded_devices: [teams]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Threshold != 0.2 {
		t.Errorf("Threshold = %f, want %f", cfg.Threshold, 0.2)
	}
	if cfg.SilenceDuration != 2*time.Second {
		t.Errorf("SilenceDuration = %v, want %v", cfg.SilenceDuration, 2*time.Second)
	}
	if cfg.Device != "Built-in" {
		t.Errorf("Device = %q, want %q", cfg.Device, "Built-in")
	}
	// untouched keys keep their defaults
	if cfg.MinFrames != 50 {
		t.Errorf("MinFrames = %d, want %d", cfg.MinFrames, 50)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	cfg := Load()
	if err := cfg.LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}

	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := cfg.LoadFile(path); err == nil {
		t.Error("LoadFile(unknown key) should fail")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	cfg := &Config{Threshold: 0.01, SilenceDuration: 3 * time.Second}
	if got, want := cfg.String(), "Threshold=0.01, Duration=3s"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT_INVALID", "not-a-number")
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}

	t.Setenv("TEST_SECONDS", "0.25")
	if v := getEnvSeconds("TEST_SECONDS", time.Second); v != 250*time.Millisecond {
		t.Errorf("getEnvSeconds = %v, want %v", v, 250*time.Millisecond)
	}
	t.Setenv("TEST_SECONDS_INVALID", "abc")
	if v := getEnvSeconds("TEST_SECONDS_INVALID", time.Second); v != time.Second {
		t.Errorf("getEnvSeconds with invalid = %v, want %v", v, time.Second)
	}

	if v := getEnvFloat("NONEXISTENT_FLOAT", 2.71); v != 2.71 {
		t.Errorf("getEnvFloat = %f, want %f", v, 2.71)
	}
}
