package segment

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when windows of unequal sample count
// are collated into one batch. The scoring backend consumes a single
// fixed shape per call, so mixed lengths are fatal for the chunk.
var ErrShapeMismatch = errors.New("windows in a batch must have equal sample counts")

// Batch is a set of windows stacked into parallel sequences, one
// entry per window. ClipIDs groups each window back to its clip for
// aggregation; windows keep the order they were collated in.
type Batch struct {
	Wavs    [][]float64
	Masks   [][]bool
	Weights []float64
	ClipIDs []int
}

// Len returns the number of windows in the batch.
func (b *Batch) Len() int { return len(b.Wavs) }

// Collate stacks windows into a Batch, preserving window order. It
// performs no numeric work; it only validates that every window has
// the same sample count and that each mask matches its samples.
func Collate(windows []Window) (*Batch, error) {
	b := &Batch{
		Wavs:    make([][]float64, 0, len(windows)),
		Masks:   make([][]bool, 0, len(windows)),
		Weights: make([]float64, 0, len(windows)),
		ClipIDs: make([]int, 0, len(windows)),
	}
	if len(windows) == 0 {
		return b, nil
	}

	winlen := len(windows[0].Samples)
	for i, w := range windows {
		if len(w.Samples) != winlen {
			return nil, fmt.Errorf("%w: window %d has %d samples, expected %d",
				ErrShapeMismatch, i, len(w.Samples), winlen)
		}
		if len(w.Mask) != len(w.Samples) {
			return nil, fmt.Errorf("window %d: mask length %d does not match %d samples",
				i, len(w.Mask), len(w.Samples))
		}
		b.Wavs = append(b.Wavs, w.Samples)
		b.Masks = append(b.Masks, w.Mask)
		b.Weights = append(b.Weights, w.Weight)
		b.ClipIDs = append(b.ClipIDs, w.ClipID)
	}
	return b, nil
}
