package aesthete

import (
	"context"

	"github.com/audiometrics/aesthete/internal/dataset"
	"github.com/audiometrics/aesthete/pkg/models"
)

// Service scores audio clips along the four aesthetic axes and
// manages the cache of past results.
type Service interface {
	ScoreFile(ctx context.Context, audioPath string) (models.Axes, error)
	ScoreRemote(ctx context.Context, url string) (models.Axes, error)
	ScoreWaveform(ctx context.Context, samples []float64, sampleRate int) (models.Axes, error)
	ScoreDataset(ctx context.Context, records []dataset.Record) ([]models.Axes, error)
	ListScores() ([]models.ClipScore, error)
	GetScoreByID(clipID string) (*models.ClipScore, error)
	DeleteScore(clipID string) error
	Close() error
}

// Storage persists clip registrations and aggregated scores.
type Storage interface {
	RegisterClip(source string, durationMs, sampleRate int) (string, error)
	StoreScore(clipID string, scores models.Axes) error
	GetScoreBySource(source string) (*models.ClipScore, error)
	GetScoreByID(clipID string) (*models.ClipScore, error)
	ListScores() ([]models.ClipScore, error)
	DeleteClipByID(clipID string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
