package audio

import (
	"math"
	"time"
)

// Frame is one fixed-length block of mono samples in [-1, 1] as delivered by
// the capture device.
type Frame struct {
	Samples []float32
	At      time.Time
}

// Len returns the number of samples in the frame.
func (f Frame) Len() int { return len(f.Samples) }

// Volume returns the frame's RMS level.
func (f Frame) Volume() float64 { return RMS(f.Samples) }

// RMS returns the root-mean-square amplitude of samples, or 0 for none.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Waveform is the immutable concatenation of a session's frames.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Concat joins frames in order into a single waveform.
func Concat(frames []Frame, sampleRate int) Waveform {
	n := 0
	for _, f := range frames {
		n += len(f.Samples)
	}
	samples := make([]float32, 0, n)
	for _, f := range frames {
		samples = append(samples, f.Samples...)
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the playback length at the waveform's sample rate.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}
