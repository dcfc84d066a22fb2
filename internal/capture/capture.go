// Package capture delivers microphone frames from PortAudio with backpressure
package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/GriffinCanCode/voice-engine/internal/audio"
	apperrors "github.com/GriffinCanCode/voice-engine/internal/errors"
)

// Source produces frames on its own delivery context.
type Source interface {
	Start(ctx context.Context) error
	Frames() <-chan audio.Frame
	Dropped() uint64
	Close() error
}

// Config for the microphone capturer
type Config struct {
	SampleRate      int
	FramesPerBuffer int
	QueueSize       int
	Device          string   // substring of the preferred input device name
	ExcludedDevices []string // substrings of device names never to open
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}

// Capturer opens one mono input stream and pushes each callback buffer into
// a bounded queue. The callback never blocks; frames are dropped when full.
type Capturer struct {
	cfg     Config
	outCh   chan audio.Frame
	log     *slog.Logger
	dropped atomic.Uint64

	mu        sync.Mutex
	stream    *portaudio.Stream
	device    string
	running   bool
	closeOnce sync.Once
}

// NewCapturer initializes PortAudio and creates a capturer.
func NewCapturer(cfg Config, log *slog.Logger) (*Capturer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureInit, "initialize portaudio")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Capturer{
		cfg:   cfg,
		outCh: make(chan audio.Frame, cfg.QueueSize),
		log:   log,
	}, nil
}

// Frames returns the channel for receiving captured frames.
func (c *Capturer) Frames() <-chan audio.Frame { return c.outCh }

// Dropped returns how many frames were discarded because the queue was full.
func (c *Capturer) Dropped() uint64 { return c.dropped.Load() }

// Device returns the name of the opened input device.
func (c *Capturer) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Start opens the input stream and begins delivering frames. The stream is
// closed when ctx is cancelled or Close is called.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	dev, err := c.selectDevice()
	if err != nil {
		return err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: audio.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(c.cfg.SampleRate),
		FramesPerBuffer: c.cfg.FramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, c.onAudio)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeCaptureInit, "open input stream").WithMetadata("device", dev.Name)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return apperrors.Wrap(err, apperrors.CodeCaptureInit, "start input stream").WithMetadata("device", dev.Name)
	}

	c.stream = stream
	c.device = dev.Name
	c.running = true
	c.log.Info("started audio capture", "device", dev.Name, "sample_rate", c.cfg.SampleRate, "frames_per_buffer", c.cfg.FramesPerBuffer)

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()
	return nil
}

// onAudio runs on the PortAudio callback thread; it only copies and enqueues.
func (c *Capturer) onAudio(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if flags != 0 {
		c.log.Warn("audio status", "error", apperrors.New(apperrors.CodeCaptureStatus, statusString(flags)))
	}

	frame := audio.Frame{
		Samples: append([]float32(nil), in...),
		At:      time.Now(),
	}

	select {
	case c.outCh <- frame:
	default:
		if n := c.dropped.Add(1); n == 1 || n%DropLogEvery == 0 {
			c.log.Debug("audio queue full, dropping frame", "dropped", n)
		}
	}
}

// Close stops the stream and terminates PortAudio. Safe to call repeatedly.
func (c *Capturer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stream != nil {
			if stopErr := c.stream.Stop(); stopErr != nil {
				c.log.Debug("stop input stream", "error", stopErr)
			}
			err = c.stream.Close()
			c.stream = nil
		}
		c.running = false
		if termErr := portaudio.Terminate(); err == nil {
			err = termErr
		}
	})
	return err
}

func (c *Capturer) selectDevice() (*portaudio.DeviceInfo, error) {
	if c.cfg.Device == "" && len(c.cfg.ExcludedDevices) == 0 {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCaptureInit, "no default input device")
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCaptureInit, "list audio devices")
	}
	var def *portaudio.DeviceInfo
	if d, err := portaudio.DefaultInputDevice(); err == nil {
		def = d
	}
	dev := pickDevice(devices, def, c.cfg.Device, c.cfg.ExcludedDevices)
	if dev == nil {
		return nil, apperrors.New(apperrors.CodeCaptureInit, "no usable input device").WithMetadata("device", c.cfg.Device)
	}
	return dev, nil
}

// pickDevice returns the first input device matching want that is not
// excluded, falling back to def when it is usable, then to any input device.
func pickDevice(devices []*portaudio.DeviceInfo, def *portaudio.DeviceInfo, want string, excluded []string) *portaudio.DeviceInfo {
	usable := func(d *portaudio.DeviceInfo) bool {
		return d != nil && d.MaxInputChannels >= audio.Channels && !isExcluded(d.Name, excluded)
	}

	if want != "" {
		for _, d := range devices {
			if usable(d) && containsIgnoreCase(d.Name, want) {
				return d
			}
		}
	}
	if usable(def) {
		return def
	}
	for _, d := range devices {
		if usable(d) {
			return d
		}
	}
	return nil
}

func isExcluded(name string, excluded []string) bool {
	for _, ex := range excluded {
		if containsIgnoreCase(name, ex) {
			return true
		}
	}
	return false
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func statusString(flags portaudio.StreamCallbackFlags) string {
	var parts []string
	if flags&portaudio.InputOverflow != 0 {
		parts = append(parts, "input overflow")
	}
	if flags&portaudio.InputUnderflow != 0 {
		parts = append(parts, "input underflow")
	}
	if len(parts) == 0 {
		return "stream status flags set"
	}
	return strings.Join(parts, ", ")
}
