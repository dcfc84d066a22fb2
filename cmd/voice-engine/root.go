package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/voice-engine/internal/config"
)

// configEnv names the optional YAML config file when --config is absent.
const configEnv = "VOICE_ENGINE_CONFIG"

type sessionFunc func(ctx context.Context, cfg *config.Config) error

type flags struct {
	configPath   string
	threshold    float64
	duration     float64
	model        string
	language     string
	device       string
	sampleRate   int
	minFrames    int
	pollInterval time.Duration
	threads      int
	logLevel     string
}

func newRootCmd(run sessionFunc) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "voice-engine",
		Short:         "Record one utterance and print its transcript",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		Long: `voice-engine records from the microphone until the speaker has been silent
for the configured duration or a line containing STOP arrives on stdin.
The recording is transcribed and the text is written as one line to stdout.

READY_TO_RECORD is written to stderr once capture has started.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, fileErr := resolveConfig(cmd, &f)
			setupLogging(cmd.ErrOrStderr(), cfg)
			if fileErr != nil {
				slog.Warn("ignoring config file", "error", fileErr)
			}
			return run(cmd.Context(), cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file (env "+configEnv+")")
	fl.Float64Var(&f.threshold, "threshold", config.DefaultThreshold, "RMS level above which a frame counts as sound")
	fl.Float64Var(&f.duration, "duration", config.DefaultSilenceDuration.Seconds(), "seconds of continuous silence before stopping")
	fl.StringVar(&f.model, "model", config.DefaultModelPath, "path to the whisper ggml model")
	fl.StringVar(&f.language, "language", config.DefaultLanguage, "spoken language, or auto")
	fl.StringVar(&f.device, "device", "", "substring of the input device name")
	fl.IntVar(&f.sampleRate, "sample-rate", config.DefaultSampleRate, "capture sample rate in Hz")
	fl.IntVar(&f.minFrames, "min-frames", config.DefaultMinFrames, "frames required before silence may stop recording")
	fl.DurationVar(&f.pollInterval, "poll-interval", config.DefaultPollInterval, "how often the stop condition is checked")
	fl.IntVar(&f.threads, "threads", 0, "whisper inference threads (0 = library default)")
	fl.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")

	return cmd
}

// resolveConfig layers defaults, environment, the YAML file and explicitly
// set flags, in that order. A config file that cannot be read is skipped and
// its error returned alongside the remaining layers.
func resolveConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.Load()
	var fileErr error

	path := f.configPath
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path != "" {
		fileErr = cfg.LoadFile(path)
	}

	changed := cmd.Flags().Changed
	if changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if changed("duration") {
		cfg.SilenceDuration = config.Seconds(f.duration)
	}
	if changed("model") {
		cfg.ModelPath = f.model
	}
	if changed("language") {
		cfg.Language = f.language
	}
	if changed("device") {
		cfg.Device = f.device
	}
	if changed("sample-rate") {
		cfg.SampleRate = f.sampleRate
	}
	if changed("min-frames") {
		cfg.MinFrames = f.minFrames
	}
	if changed("poll-interval") {
		cfg.PollInterval = f.pollInterval
	}
	if changed("threads") {
		cfg.Threads = f.threads
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, fileErr
}

// setupLogging routes slog to w; stdout carries only the transcript.
func setupLogging(w io.Writer, cfg *config.Config) {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
}
