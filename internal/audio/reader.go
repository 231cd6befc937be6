package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV file into mono samples normalized to
// [-1, 1] and returns the file's sample rate. Multi-channel audio is
// mixed down by averaging channels.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, 0, fmt.Errorf("%s: unsupported bit depth %d", path, bitDepth)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, errors.New("WAV file reports zero channels")
	}

	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) * scale
		}
		samples[i] = sum / float64(channels)
	}

	return samples, buf.Format.SampleRate, nil
}

// Trim cuts samples to the [start, end) time range in seconds. An end
// of zero or less means "until the end of the clip". Bounds are
// clamped to the waveform.
func Trim(samples []float64, sampleRate int, start, end float64) ([]float64, error) {
	if start < 0 {
		return nil, fmt.Errorf("start time %g is negative", start)
	}
	if end > 0 && end < start {
		return nil, fmt.Errorf("end time %g precedes start time %g", end, start)
	}

	lo := int(start * float64(sampleRate))
	if lo > len(samples) {
		lo = len(samples)
	}
	hi := len(samples)
	if end > 0 {
		hi = int(end * float64(sampleRate))
		if hi > len(samples) {
			hi = len(samples)
		}
	}
	return samples[lo:hi], nil
}
