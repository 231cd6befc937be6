package aesthete

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/audiometrics/aesthete/internal/aggregate"
	"github.com/audiometrics/aesthete/internal/audio"
	"github.com/audiometrics/aesthete/internal/dataset"
	"github.com/audiometrics/aesthete/internal/pipeline"
	"github.com/audiometrics/aesthete/internal/scorer"
	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/internal/storage"
	"github.com/audiometrics/aesthete/pkg/logger"
	"github.com/audiometrics/aesthete/pkg/models"
)

// aesService is the default implementation of the Service interface.
type aesService struct {
	storage   Storage
	log       Logger
	config    *Config
	predictor *pipeline.Predictor
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	// Create or use provided storage
	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = storage.NewDBClientWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	stats := aggregate.DefaultStats()
	if cfg.StatsPath != "" {
		stats, err = aggregate.LoadStats(cfg.StatsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load de-normalization stats: %w", err)
		}
	}

	backend := cfg.Backend
	if backend == nil {
		if cfg.BackendURL != "" {
			backend = scorer.NewHTTPBackend(cfg.BackendURL, cfg.Precision)
		} else {
			cfg.Logger.Infof("No backend URL configured, using offline DSP scorer")
			backend = scorer.NewDSPBackend()
		}
	}

	seg, err := segment.NewSegmenter(segment.Config{
		HopSize:    cfg.HopSize,
		WindowSize: cfg.WindowSize,
		SampleRate: cfg.SampleRate,
		PadZero:    cfg.PadZero,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid segmentation config: %w", err)
	}

	return &aesService{
		storage:   stor,
		log:       cfg.Logger,
		config:    cfg,
		predictor: pipeline.New(seg, backend, stats, cfg.BatchSize),
	}, nil
}

// ScoreFile scores one local audio file, serving repeat requests from
// the cache.
func (s *aesService) ScoreFile(ctx context.Context, audioPath string) (models.Axes, error) {
	source, err := filepath.Abs(audioPath)
	if err != nil {
		source = audioPath
	}

	if cached, err := s.storage.GetScoreBySource(source); err != nil {
		return models.Axes{}, fmt.Errorf("cache lookup failed: %w", err)
	} else if cached != nil {
		s.log.Debugf("Cache hit for %s", source)
		return cached.Scores, nil
	}

	wav, err := s.loadFile(ctx, audioPath)
	if err != nil {
		return models.Axes{}, err
	}

	scores, err := s.scoreOne(ctx, wav)
	if err != nil {
		return models.Axes{}, err
	}

	s.cacheResult(source, wav, scores)
	return scores, nil
}

// ScoreRemote downloads a remote clip with yt-dlp and scores it,
// keyed in the cache by URL.
func (s *aesService) ScoreRemote(ctx context.Context, url string) (models.Axes, error) {
	if cached, err := s.storage.GetScoreBySource(url); err != nil {
		return models.Axes{}, fmt.Errorf("cache lookup failed: %w", err)
	} else if cached != nil {
		s.log.Debugf("Cache hit for %s", url)
		return cached.Scores, nil
	}

	s.log.Infof("Downloading remote audio: %s", url)
	downloaded, err := audio.DownloadRemoteAudio(ctx, url, s.config.TempDir)
	if err != nil {
		return models.Axes{}, fmt.Errorf("remote download failed: %w", err)
	}

	wav, err := s.loadFile(ctx, downloaded)
	if err != nil {
		return models.Axes{}, err
	}

	scores, err := s.scoreOne(ctx, wav)
	if err != nil {
		return models.Axes{}, err
	}

	s.cacheResult(url, wav, scores)
	return scores, nil
}

// ScoreWaveform scores an in-memory mono waveform. Results are not
// cached since there is no stable source identity.
func (s *aesService) ScoreWaveform(ctx context.Context, samples []float64, sampleRate int) (models.Axes, error) {
	wav, err := audio.Resample(samples, sampleRate, s.config.SampleRate)
	if err != nil {
		return models.Axes{}, err
	}
	return s.scoreOne(ctx, wav)
}

// ScoreDataset scores a list of records in submission order,
// chunk by chunk so one backend call handles at most BatchSize clips.
// On a mid-run failure the scores of completed chunks are returned
// alongside the error.
func (s *aesService) ScoreDataset(ctx context.Context, records []dataset.Record) ([]models.Axes, error) {
	results := make([]models.Axes, 0, len(records))
	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = pipeline.DefaultBatchSize
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		s.log.Infof("Scoring records %d-%d of %d", start+1, end, len(records))

		wavs := make([][]float64, 0, end-start)
		for i := start; i < end; i++ {
			wav, err := s.resolveRecord(ctx, records[i])
			if err != nil {
				return results, fmt.Errorf("record %d: %w", i, err)
			}
			wavs = append(wavs, wav)
		}

		chunk, err := s.predictor.PredictChunk(ctx, wavs)
		if err != nil {
			return results, fmt.Errorf("records %d-%d: %w", start+1, end, err)
		}
		results = append(results, chunk...)
	}

	if len(results) != len(records) {
		return results, fmt.Errorf("output count %d does not match input record count %d", len(results), len(records))
	}
	return results, nil
}

// resolveRecord turns a dataset record into a mono waveform at the
// configured sample rate, applying any start/end trim.
func (s *aesService) resolveRecord(ctx context.Context, rec dataset.Record) ([]float64, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var samples []float64
	var sr int
	if rec.Path != "" {
		var err error
		samples, sr, err = s.readFile(ctx, rec.Path)
		if err != nil {
			return nil, err
		}
	} else {
		samples, sr = rec.Waveform, rec.SampleRate
	}

	if rec.StartTime > 0 || rec.EndTime > 0 {
		var err error
		samples, err = audio.Trim(samples, sr, rec.StartTime, rec.EndTime)
		if err != nil {
			return nil, err
		}
	}

	return audio.Resample(samples, sr, s.config.SampleRate)
}

// readFile decodes a WAV directly and falls back to an ffmpeg
// transcode for anything else.
func (s *aesService) readFile(ctx context.Context, path string) ([]float64, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, sr, err := audio.ReadWAV(path)
		if err == nil {
			return samples, sr, nil
		}
		s.log.Warnf("Direct WAV decode of %s failed (%v), falling back to ffmpeg", path, err)
	}

	converted, err := audio.ConvertToMonoWAV(ctx, path, s.config.TempDir, audio.ConvertWAVConfig{
		SampleRate: s.config.SampleRate,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("audio conversion failed: %w", err)
	}
	return audio.ReadWAV(converted)
}

func (s *aesService) loadFile(ctx context.Context, path string) ([]float64, error) {
	samples, sr, err := s.readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return audio.Resample(samples, sr, s.config.SampleRate)
}

func (s *aesService) scoreOne(ctx context.Context, wav []float64) (models.Axes, error) {
	scores, err := s.predictor.PredictChunk(ctx, [][]float64{wav})
	if err != nil {
		return models.Axes{}, err
	}
	return scores[0], nil
}

func (s *aesService) cacheResult(source string, wav []float64, scores models.Axes) {
	durationMs := int(float64(len(wav)) / float64(s.config.SampleRate) * 1000)
	clipID, err := s.storage.RegisterClip(source, durationMs, s.config.SampleRate)
	if err != nil {
		s.log.Warnf("Failed to register clip %s: %v", source, err)
		return
	}
	if err := s.storage.StoreScore(clipID, scores); err != nil {
		s.log.Warnf("Failed to cache score for %s: %v", source, err)
	}
}

// ListScores returns all cached clip scores.
func (s *aesService) ListScores() ([]models.ClipScore, error) {
	return s.storage.ListScores()
}

// GetScoreByID retrieves one cached clip score by its database ID.
func (s *aesService) GetScoreByID(clipID string) (*models.ClipScore, error) {
	return s.storage.GetScoreByID(clipID)
}

// DeleteScore removes a clip and its cached score.
func (s *aesService) DeleteScore(clipID string) error {
	return s.storage.DeleteClipByID(clipID)
}

// Close releases all resources held by the service.
func (s *aesService) Close() error {
	return s.storage.Close()
}
