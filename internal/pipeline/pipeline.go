package pipeline

import (
	"context"
	"fmt"

	"github.com/audiometrics/aesthete/internal/aggregate"
	"github.com/audiometrics/aesthete/internal/scorer"
	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/pkg/logger"
	"github.com/audiometrics/aesthete/pkg/models"
)

// DefaultBatchSize bounds how many clips are scored per backend call.
const DefaultBatchSize = 10

// Predictor drives one or more clips through segmentation, collation,
// the scoring backend and aggregation, emitting one score record per
// clip in submission order.
type Predictor struct {
	seg       *segment.Segmenter
	backend   scorer.Backend
	stats     *aggregate.Stats
	batchSize int
	log       *logger.Logger
}

// New wires a Predictor. stats may be nil for identity
// de-normalization; batchSize <= 0 selects DefaultBatchSize.
func New(seg *segment.Segmenter, backend scorer.Backend, stats *aggregate.Stats, batchSize int) *Predictor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Predictor{
		seg:       seg,
		backend:   backend,
		stats:     stats,
		batchSize: batchSize,
		log:       logger.GetLogger(),
	}
}

// PredictChunk scores one chunk of waveforms with a single backend
// call. All windows of all clips in the chunk travel in one batch, so
// aggregation always sees a clip's complete window set.
func (p *Predictor) PredictChunk(ctx context.Context, wavs [][]float64) ([]models.Axes, error) {
	var windows []segment.Window
	for clipID, wav := range wavs {
		windows = append(windows, p.seg.Segment(clipID, wav)...)
	}

	batch, err := segment.Collate(windows)
	if err != nil {
		return nil, fmt.Errorf("collating %d windows: %w", len(windows), err)
	}

	raw, err := p.backend.Score(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("scoring batch of %d windows: %w", batch.Len(), err)
	}

	results, err := aggregate.Aggregate(batch, raw, len(wavs), p.stats)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// PredictAll chunks wavs by the configured batch size and scores each
// chunk in turn. Output order matches input order. If a chunk fails,
// the scores of already-completed chunks are returned alongside the
// error so partial progress over a large input stays visible.
func (p *Predictor) PredictAll(ctx context.Context, wavs [][]float64) ([]models.Axes, error) {
	results := make([]models.Axes, 0, len(wavs))
	for start := 0; start < len(wavs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(wavs) {
			end = len(wavs)
		}
		p.log.Debugf("Scoring chunk [%d:%d) of %d clips", start, end, len(wavs))

		chunk, err := p.PredictChunk(ctx, wavs[start:end])
		if err != nil {
			return results, fmt.Errorf("chunk [%d:%d): %w", start, end, err)
		}
		results = append(results, chunk...)
	}

	// A predictor must never silently drop clips.
	if len(results) != len(wavs) {
		return results, fmt.Errorf("output count %d does not match input clip count %d", len(results), len(wavs))
	}
	return results, nil
}
