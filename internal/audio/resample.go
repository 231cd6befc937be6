package audio

import "fmt"

// Resample converts samples from srIn to srOut using linear
// interpolation. Good enough for feeding a 16 kHz encoder; inputs
// needing better anti-aliasing should go through ConvertToMonoWAV
// (ffmpeg) instead.
func Resample(samples []float64, srIn, srOut int) ([]float64, error) {
	if srIn <= 0 || srOut <= 0 {
		return nil, fmt.Errorf("sample rates must be positive, got %d -> %d", srIn, srOut)
	}
	if srIn == srOut || len(samples) == 0 {
		return samples, nil
	}

	ratio := float64(srIn) / float64(srOut)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		outLen = 1
	}

	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out, nil
}
