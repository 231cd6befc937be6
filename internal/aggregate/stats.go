package aggregate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/audiometrics/aesthete/pkg/models"
)

// Normalizer is the affine de-normalization for one axis: the encoder
// emits z-scored values, and Inverse maps them back to the original
// score scale.
type Normalizer struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Inverse undoes the z-score normalization applied during training.
func (n Normalizer) Inverse(raw float64) float64 {
	return raw*n.Std + n.Mean
}

// Stats holds the per-axis de-normalization parameters, loaded once
// at setup from the checkpoint stats file. Fixed fields rather than
// an axis-keyed map so a missing axis is a compile error, not a
// runtime key error.
type Stats struct {
	CE Normalizer `json:"CE"`
	CU Normalizer `json:"CU"`
	PC Normalizer `json:"PC"`
	PQ Normalizer `json:"PQ"`
}

// DefaultStats returns identity parameters (mean 0, std 1), useful
// when scores should pass through unscaled.
func DefaultStats() *Stats {
	id := Normalizer{Mean: 0, Std: 1}
	return &Stats{CE: id, CU: id, PC: id, PQ: id}
}

// LoadStats reads per-axis mean/std from a JSON file of the form
// {"CE": {"mean": m, "std": s}, ...}. Every axis must be present with
// a positive std.
func LoadStats(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stats file: %w", err)
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parsing stats file %s: %w", path, err)
	}
	for _, axis := range []struct {
		name string
		n    Normalizer
	}{
		{"CE", stats.CE}, {"CU", stats.CU}, {"PC", stats.PC}, {"PQ", stats.PQ},
	} {
		if axis.n.Std <= 0 {
			return nil, fmt.Errorf("stats file %s: axis %s has non-positive std %g", path, axis.name, axis.n.Std)
		}
	}
	return &stats, nil
}

// Inverse de-normalizes one raw score record, axis by axis.
func (s *Stats) Inverse(raw models.Axes) models.Axes {
	return models.Axes{
		CE: s.CE.Inverse(raw.CE),
		CU: s.CU.Inverse(raw.CU),
		PC: s.PC.Inverse(raw.PC),
		PQ: s.PQ.Inverse(raw.PQ),
	}
}
