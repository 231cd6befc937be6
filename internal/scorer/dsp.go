package scorer

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/pkg/models"
)

const epsilon = 1e-10

// DSPBackend is a deterministic signal-statistics scorer used when no
// inference sidecar is available. It derives standardized raw scores
// from masked RMS energy, spectral centroid and spectral flatness per
// window. The numbers are a heuristic stand-in for the encoder, not a
// reimplementation of it, but they are reproducible and respect the
// same shape contract, which is what the pipeline cares about.
type DSPBackend struct{}

// NewDSPBackend returns the offline heuristic backend.
func NewDSPBackend() *DSPBackend { return &DSPBackend{} }

// Score produces one score record per window. Padded samples are
// excluded via the mask, so a padded window scores identically to its
// unpadded prefix.
func (d *DSPBackend) Score(ctx context.Context, batch *segment.Batch) ([]models.Axes, error) {
	scores := make([]models.Axes, batch.Len())
	for i := range batch.Wavs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = scoreWindow(validSamples(batch.Wavs[i], batch.Masks[i]))
	}
	return scores, nil
}

// validSamples returns the real-audio prefix of a window. Masks are
// built as a true-prefix by the segmenter, so the first false ends
// the valid region.
func validSamples(samples []float64, mask []bool) []float64 {
	n := len(samples)
	for i, ok := range mask {
		if !ok {
			n = i
			break
		}
	}
	return samples[:n]
}

func scoreWindow(samples []float64) models.Axes {
	if len(samples) == 0 {
		return models.Axes{}
	}

	var sumSq float64
	for _, s := range samples {
		sumSq += s * s
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))

	spectrum := fft.FFTReal(samples)
	half := len(spectrum) / 2
	if half == 0 {
		half = 1
	}

	var magSum, logMagSum, weightedBin float64
	for i := 0; i < half; i++ {
		mag := cmplx.Abs(spectrum[i])
		magSum += mag
		logMagSum += math.Log(mag + epsilon)
		weightedBin += float64(i) * mag
	}

	// Centroid in [0,1]: where the spectral mass sits.
	centroid := 0.0
	if magSum > 0 {
		centroid = weightedBin / (magSum * float64(half))
	}
	// Flatness in (0,1]: geometric over arithmetic magnitude mean.
	// Near 1 is noise-like, near 0 is tonal.
	flatness := math.Exp(logMagSum/float64(half)) / (magSum/float64(half) + epsilon)

	// Loudness mapped from log RMS into roughly [-1,1].
	loudness := clamp((math.Log10(rms+epsilon)+2.5)/2.0, -1, 1)

	// Feature mix per axis, standardized scale (mean 0, unit-ish
	// spread) so the usual de-normalization applies downstream.
	return models.Axes{
		CE: clamp(1.2*loudness+0.5*(1-flatness), -2, 2),
		CU: clamp(loudness+0.8*(0.5-math.Abs(centroid-0.25)), -2, 2),
		PC: clamp(2*centroid+flatness-0.5, -2, 2),
		PQ: clamp(1.5*loudness+0.5*(1-2*flatness), -2, 2),
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
