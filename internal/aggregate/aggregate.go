package aggregate

import (
	"errors"
	"fmt"

	"github.com/audiometrics/aesthete/internal/scorer"
	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/pkg/models"
)

// ErrDegenerateClip is returned for a clip whose windows carry zero
// total weight, i.e. an empty or fully padded clip. Its score is
// undefined and must not be silently coerced to 0 or NaN.
var ErrDegenerateClip = errors.New("empty or fully-padded clip")

// Aggregate de-normalizes raw per-window scores and combines them
// into one score record per clip, in clip order 0..numClips-1.
//
// Per axis: each raw score is mapped back to the original scale
// (raw*std + mean), grouped by clip id, and reduced with a weighted
// mean over the clip's window weights. The result is a convex
// combination of the clip's de-normalized window scores.
func Aggregate(batch *segment.Batch, raw []models.Axes, numClips int, stats *Stats) ([]models.Axes, error) {
	if err := checkCounts(batch, raw); err != nil {
		return nil, err
	}
	if stats == nil {
		stats = DefaultStats()
	}

	sums := make([]models.Axes, numClips)
	weightSums := make([]float64, numClips)
	seen := make([]bool, numClips)

	for i, r := range raw {
		clip := batch.ClipIDs[i]
		if clip < 0 || clip >= numClips {
			return nil, fmt.Errorf("window %d references clip %d outside batch of %d clips", i, clip, numClips)
		}
		w := batch.Weights[i]
		score := stats.Inverse(r)
		sums[clip].CE += score.CE * w
		sums[clip].CU += score.CU * w
		sums[clip].PC += score.PC * w
		sums[clip].PQ += score.PQ * w
		weightSums[clip] += w
		seen[clip] = true
	}

	results := make([]models.Axes, numClips)
	for clip := 0; clip < numClips; clip++ {
		if !seen[clip] || weightSums[clip] <= 0 {
			return nil, fmt.Errorf("clip %d: %w", clip, ErrDegenerateClip)
		}
		ws := weightSums[clip]
		results[clip] = models.Axes{
			CE: sums[clip].CE / ws,
			CU: sums[clip].CU / ws,
			PC: sums[clip].PC / ws,
			PQ: sums[clip].PQ / ws,
		}
	}
	return results, nil
}

func checkCounts(batch *segment.Batch, raw []models.Axes) error {
	if len(raw) != batch.Len() {
		return fmt.Errorf("%w: got %d, submitted %d windows",
			scorer.ErrScoreCountMismatch, len(raw), batch.Len())
	}
	return nil
}
