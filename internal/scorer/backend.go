package scorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/pkg/logger"
	"github.com/audiometrics/aesthete/pkg/models"
)

// ErrScoreCountMismatch is returned when a backend produces a
// different number of score records than windows submitted.
var ErrScoreCountMismatch = errors.New("backend returned wrong number of scores")

// Backend scores a batch of fixed-length windows. Implementations
// return exactly one raw (standardized) score record per window, in
// window order, and must be deterministic for identical input.
type Backend interface {
	Score(ctx context.Context, batch *segment.Batch) ([]models.Axes, error)
}

// Numeric precisions accepted by the encoder. Anything else falls
// back to full precision with a warning.
const (
	PrecisionHalf     = "16"
	PrecisionBfloat16 = "bf16"
	PrecisionFull     = "32"
)

// ResolvePrecision normalizes a configured precision string. An
// unsupported value is not fatal: it logs a warning and returns full
// precision.
func ResolvePrecision(precision string) string {
	switch precision {
	case PrecisionHalf, PrecisionBfloat16, PrecisionFull:
		return precision
	default:
		logger.GetLogger().Warnf("Precision %q is not supported, using %s instead", precision, PrecisionFull)
		return PrecisionFull
	}
}

// checkCount validates the backend shape contract.
func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d, submitted %d windows", ErrScoreCountMismatch, got, want)
	}
	return nil
}
