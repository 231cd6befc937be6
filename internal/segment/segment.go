package segment

import (
	"errors"
	"fmt"
)

// Defaults matching the published model: 10 second windows at 16 kHz,
// no overlap.
const (
	DefaultHopSize    = 10.0
	DefaultWindowSize = 10.0
	DefaultSampleRate = 16000
)

// Config controls how a waveform is cut into scoring windows.
type Config struct {
	HopSize    float64 // stride between window starts, in seconds
	WindowSize float64 // window length, in seconds
	SampleRate int     // samples per second of the input waveform
	PadZero    bool    // zero-pad the trailing short window to full length
}

// DefaultConfig returns the segmentation parameters the encoder was
// trained with.
func DefaultConfig() Config {
	return Config{
		HopSize:    DefaultHopSize,
		WindowSize: DefaultWindowSize,
		SampleRate: DefaultSampleRate,
		PadZero:    true,
	}
}

// Window is one fixed-length slice of a clip's waveform. Mask marks
// which samples are real audio (true) versus zero padding (false).
// Weight is the fraction of real samples, in (0, 1] for any window
// that carries audio and 0 for an all-padding window.
type Window struct {
	ClipID  int
	Samples []float64
	Mask    []bool
	Weight  float64
}

// Segmenter cuts mono waveforms into fixed-length windows with stride
// HopSize. It is stateless after construction and safe for concurrent
// use.
type Segmenter struct {
	cfg    Config
	hop    int // stride in samples
	winlen int // window length in samples
}

// NewSegmenter validates cfg and returns a ready Segmenter.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.HopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %g", cfg.HopSize)
	}
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %g", cfg.WindowSize)
	}
	hop := int(cfg.HopSize * float64(cfg.SampleRate))
	winlen := int(cfg.WindowSize * float64(cfg.SampleRate))
	if hop == 0 || winlen == 0 {
		return nil, errors.New("hop and window must span at least one sample")
	}
	return &Segmenter{cfg: cfg, hop: hop, winlen: winlen}, nil
}

// WindowLen returns the window length in samples.
func (s *Segmenter) WindowLen() int { return s.winlen }

// Segment splits wav into windows tagged with clipID. Window starts
// are 0, hop, 2*hop, ... while the start lies inside the waveform, so
// overlapping windows (hop < window) are produced intentionally.
//
// With PadZero enabled a trailing short window is zero-padded to full
// length and an empty waveform still yields one all-padding window of
// weight 0, so every clip is represented in the batch. With PadZero
// disabled a trailing segment shorter than the window length is
// dropped: the collator requires uniform window lengths, and dropping
// the short tail is the only policy that keeps batches well formed
// without fabricating samples. A clip shorter than one window then
// yields no windows at all and surfaces later as a degenerate clip.
func (s *Segmenter) Segment(clipID int, wav []float64) []Window {
	if len(wav) == 0 {
		if !s.cfg.PadZero {
			return nil
		}
		return []Window{padWindow(clipID, nil, s.winlen)}
	}

	var windows []Window
	for start := 0; start < len(wav); start += s.hop {
		end := start + s.winlen
		if end > len(wav) {
			end = len(wav)
		}
		chunk := wav[start:end]
		if len(chunk) < s.winlen {
			if !s.cfg.PadZero {
				continue
			}
			windows = append(windows, padWindow(clipID, chunk, s.winlen))
			continue
		}
		mask := make([]bool, s.winlen)
		for i := range mask {
			mask[i] = true
		}
		samples := make([]float64, s.winlen)
		copy(samples, chunk)
		windows = append(windows, Window{
			ClipID:  clipID,
			Samples: samples,
			Mask:    mask,
			Weight:  1.0,
		})
	}
	return windows
}

// padWindow builds a full-length window from a short chunk, zero
// padding on the right. Weight is the real-sample fraction.
func padWindow(clipID int, chunk []float64, winlen int) Window {
	samples := make([]float64, winlen)
	mask := make([]bool, winlen)
	copy(samples, chunk)
	for i := 0; i < len(chunk); i++ {
		mask[i] = true
	}
	return Window{
		ClipID:  clipID,
		Samples: samples,
		Mask:    mask,
		Weight:  float64(len(chunk)) / float64(winlen),
	}
}
