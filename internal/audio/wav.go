package audio

import (
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apperrors "github.com/GriffinCanCode/voice-engine/internal/errors"
)

// WriteWAV serializes w as a mono 16-bit PCM WAV file at path.
func WriteWAV(path string, w Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeEncode, "create wav file").WithMetadata("path", path)
	}

	enc := wav.NewEncoder(f, w.SampleRate, WAVBitDepth, Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  w.SampleRate,
		},
		Data:           make([]int, len(w.Samples)),
		SourceBitDepth: WAVBitDepth,
	}
	for i, s := range w.Samples {
		buf.Data[i] = quantize(s)
	}

	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return apperrors.Wrap(err, apperrors.CodeEncode, "write pcm data").WithMetadata("path", path)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return apperrors.Wrap(err, apperrors.CodeEncode, "finalize wav header").WithMetadata("path", path)
	}
	if err := f.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeEncode, "close wav file").WithMetadata("path", path)
	}
	return nil
}

// ReadWAV decodes the PCM WAV file at path into a mono waveform. Multi-channel
// files are down-mixed by averaging channels.
func ReadWAV(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, apperrors.Wrap(err, apperrors.CodeDecode, "open wav file").WithMetadata("path", path)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Waveform{}, apperrors.New(apperrors.CodeDecode, "invalid wav file").WithMetadata("path", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, apperrors.Wrap(err, apperrors.CodeDecode, "read pcm data").WithMetadata("path", path)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	scale := float32(int(1) << (dec.BitDepth - 1))
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			sum += float32(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	return Waveform{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

func quantize(s float32) int {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * pcm16Scale))
}
