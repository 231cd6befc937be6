package aggregate

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/audiometrics/aesthete/internal/scorer"
	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/pkg/models"
)

// makeBatch builds a batch by hand: one window per (clipID, weight)
// pair. Window content is irrelevant to aggregation.
func makeBatch(t *testing.T, clipIDs []int, weights []float64) *segment.Batch {
	t.Helper()
	if len(clipIDs) != len(weights) {
		t.Fatal("clipIDs and weights must be parallel")
	}
	windows := make([]segment.Window, len(clipIDs))
	for i := range clipIDs {
		windows[i] = segment.Window{
			ClipID:  clipIDs[i],
			Samples: make([]float64, 4),
			Mask:    []bool{true, true, true, true},
			Weight:  weights[i],
		}
	}
	batch, err := segment.Collate(windows)
	if err != nil {
		t.Fatalf("Collate failed: %v", err)
	}
	return batch
}

func uniform(v float64) models.Axes {
	return models.Axes{CE: v, CU: v, PC: v, PQ: v}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// A clip of 25 s in 10 s windows carries weights 1, 1, 0.5; its score
// is (a0 + a1 + 0.5*a2) / 2.5 per axis.
func TestAggregateWeightedMean(t *testing.T) {
	batch := makeBatch(t, []int{0, 0, 0}, []float64{1, 1, 0.5})
	raw := []models.Axes{uniform(1.0), uniform(2.0), uniform(4.0)}

	results, err := Aggregate(batch, raw, 1, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	want := (1.0 + 2.0 + 0.5*4.0) / 2.5
	for _, got := range results[0].Values() {
		if !almostEqual(got, want) {
			t.Errorf("Expected weighted mean %g, got %g", want, got)
		}
	}
}

// A single full-weight window passes through de-normalization
// unchanged by the mean.
func TestAggregateSingleWindowDenormalization(t *testing.T) {
	batch := makeBatch(t, []int{0}, []float64{1})
	raw := []models.Axes{{CE: 0.5, CU: -1, PC: 0, PQ: 2}}
	stats := &Stats{
		CE: Normalizer{Mean: 5, Std: 2},
		CU: Normalizer{Mean: 3, Std: 1},
		PC: Normalizer{Mean: 7, Std: 0.5},
		PQ: Normalizer{Mean: 1, Std: 3},
	}

	results, err := Aggregate(batch, raw, 1, stats)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	want := models.Axes{CE: 0.5*2 + 5, CU: -1*1 + 3, PC: 0*0.5 + 7, PQ: 2*3 + 1}
	if results[0] != want {
		t.Errorf("Expected %+v, got %+v", want, results[0])
	}
}

// The aggregate of each clip must lie inside the range of its own
// de-normalized window scores.
func TestAggregateConvexCombination(t *testing.T) {
	batch := makeBatch(t, []int{0, 0, 1, 1, 1}, []float64{1, 0.3, 0.9, 1, 0.1})
	raw := []models.Axes{uniform(-1.5), uniform(2.2), uniform(0.4), uniform(-0.8), uniform(1.9)}
	perClip := map[int][]float64{0: {-1.5, 2.2}, 1: {0.4, -0.8, 1.9}}

	results, err := Aggregate(batch, raw, 2, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	for clip, vals := range perClip {
		lo, hi := vals[0], vals[0]
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		for _, got := range results[clip].Values() {
			if got < lo-1e-9 || got > hi+1e-9 {
				t.Errorf("Clip %d: score %g outside window range [%g, %g]", clip, got, lo, hi)
			}
		}
	}
}

func TestAggregateMultipleClipsIndependent(t *testing.T) {
	batch := makeBatch(t, []int{0, 1, 2}, []float64{1, 1, 1})
	raw := []models.Axes{uniform(1), uniform(2), uniform(3)}

	results, err := Aggregate(batch, raw, 3, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	for clip, want := range []float64{1, 2, 3} {
		if !almostEqual(results[clip].CE, want) {
			t.Errorf("Clip %d: expected %g, got %g", clip, want, results[clip].CE)
		}
	}
}

func TestAggregateDegenerateClip(t *testing.T) {
	t.Run("Zero total weight", func(t *testing.T) {
		batch := makeBatch(t, []int{0}, []float64{0})
		_, err := Aggregate(batch, []models.Axes{uniform(1)}, 1, nil)
		if !errors.Is(err, ErrDegenerateClip) {
			t.Errorf("Expected ErrDegenerateClip, got %v", err)
		}
	})

	t.Run("Clip with no windows", func(t *testing.T) {
		batch := makeBatch(t, []int{0}, []float64{1})
		_, err := Aggregate(batch, []models.Axes{uniform(1)}, 2, nil)
		if !errors.Is(err, ErrDegenerateClip) {
			t.Errorf("Expected ErrDegenerateClip, got %v", err)
		}
	})
}

func TestAggregateScoreCountMismatch(t *testing.T) {
	batch := makeBatch(t, []int{0, 0}, []float64{1, 1})

	_, err := Aggregate(batch, []models.Axes{uniform(1)}, 1, nil)
	if !errors.Is(err, scorer.ErrScoreCountMismatch) {
		t.Errorf("Expected ErrScoreCountMismatch, got %v", err)
	}
}

func TestAggregateClipIDOutOfRange(t *testing.T) {
	batch := makeBatch(t, []int{5}, []float64{1})

	if _, err := Aggregate(batch, []models.Axes{uniform(1)}, 1, nil); err == nil {
		t.Error("Expected error for out-of-range clip id")
	}
}

func TestLoadStats(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid file", func(t *testing.T) {
		path := filepath.Join(dir, "stats.json")
		content := `{"CE":{"mean":5.2,"std":1.1},"CU":{"mean":4.8,"std":0.9},"PC":{"mean":3.1,"std":1.4},"PQ":{"mean":6.0,"std":1.2}}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write stats file: %v", err)
		}

		stats, err := LoadStats(path)
		if err != nil {
			t.Fatalf("LoadStats failed: %v", err)
		}
		if stats.CE.Mean != 5.2 || stats.CE.Std != 1.1 {
			t.Errorf("CE = %+v, expected mean 5.2 std 1.1", stats.CE)
		}
		if got := stats.PQ.Inverse(1.0); !almostEqual(got, 7.2) {
			t.Errorf("PQ.Inverse(1.0) = %g, expected 7.2", got)
		}
	})

	t.Run("Missing axis", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		if err := os.WriteFile(path, []byte(`{"CE":{"mean":1,"std":1}}`), 0644); err != nil {
			t.Fatalf("Failed to write stats file: %v", err)
		}
		if _, err := LoadStats(path); err == nil {
			t.Error("Expected error for missing axes")
		}
	})

	t.Run("Nonexistent file", func(t *testing.T) {
		if _, err := LoadStats(filepath.Join(dir, "missing.json")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}

func TestDefaultStatsIdentity(t *testing.T) {
	in := models.Axes{CE: 1.5, CU: -0.3, PC: 0, PQ: 2.7}
	if got := DefaultStats().Inverse(in); got != in {
		t.Errorf("Identity stats changed %+v to %+v", in, got)
	}
}
