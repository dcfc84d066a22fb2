package audio

// Resample converts w to rate using linear interpolation. It returns w
// unchanged when the rates already match or either rate is unknown.
func Resample(w Waveform, rate int) Waveform {
	if rate <= 0 || w.SampleRate <= 0 || w.SampleRate == rate || len(w.Samples) == 0 {
		return w
	}

	outLen := int(int64(len(w.Samples)) * int64(rate) / int64(w.SampleRate))
	if outLen == 0 {
		return Waveform{SampleRate: rate}
	}

	out := make([]float32, outLen)
	step := float64(w.SampleRate) / float64(rate)
	last := len(w.Samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = w.Samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = w.Samples[idx] + (w.Samples[idx+1]-w.Samples[idx])*frac
	}
	return Waveform{Samples: out, SampleRate: rate}
}
