package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/audiometrics/aesthete/pkg/models"
)

const DefaultDBFile = "aesthete.sqlite3"
const errDBClientNil = "db client is nil"

// DBClient caches aggregated clip scores in SQLite so already-scored
// files are not pushed through the encoder again.
type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Clip struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Source     string `gorm:"uniqueIndex:idx_clip_source" json:"source"`
	DurationMs int    `json:"duration_ms"`
	SampleRate int    `json:"sample_rate"`
	CreatedAt  time.Time
}

type Score struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	ClipID string `gorm:"type:varchar(36);uniqueIndex:idx_score_clip" json:"clip_id"`
	CE     float64
	CU     float64
	PC     float64
	PQ     float64
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("AESTHETE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Clip{}, &Score{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterClip records a clip by its source path or URL, reusing the
// existing row when the source was seen before.
func (c *DBClient) RegisterClip(source string, durationMs, sampleRate int) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	var clip Clip
	err := c.DB.Where("source = ?", source).First(&clip).Error
	if err == nil {
		return clip.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing clip: %w", err)
	}

	clip = Clip{
		ID:         uuid.NewString(),
		Source:     source,
		DurationMs: durationMs,
		SampleRate: sampleRate,
	}
	if err := c.DB.Create(&clip).Error; err != nil {
		return "", fmt.Errorf("creating clip: %w", err)
	}
	return clip.ID, nil
}

// StoreScore upserts the aggregated scores for a clip.
func (c *DBClient) StoreScore(clipID string, scores models.Axes) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	row := Score{ClipID: clipID, CE: scores.CE, CU: scores.CU, PC: scores.PC, PQ: scores.PQ}

	var existing Score
	err := c.DB.Where("clip_id = ?", clipID).First(&existing).Error
	if err == nil {
		row.ID = existing.ID
		if err := c.DB.Save(&row).Error; err != nil {
			return fmt.Errorf("updating score: %w", err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("querying existing score: %w", err)
	}
	if err := c.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("creating score: %w", err)
	}
	return nil
}

// GetScoreBySource returns the cached result for a source, or nil if
// the source has not been scored yet.
func (c *DBClient) GetScoreBySource(source string) (*models.ClipScore, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var clip Clip
	err := c.DB.Where("source = ?", source).First(&clip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying clip: %w", err)
	}
	return c.assembleClipScore(clip)
}

// GetScoreByID returns the cached result for a clip id.
func (c *DBClient) GetScoreByID(clipID string) (*models.ClipScore, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var clip Clip
	if err := c.DB.Where("id = ?", clipID).First(&clip).Error; err != nil {
		return nil, fmt.Errorf("querying clip %s: %w", clipID, err)
	}
	return c.assembleClipScore(clip)
}

func (c *DBClient) assembleClipScore(clip Clip) (*models.ClipScore, error) {
	var score Score
	err := c.DB.Where("clip_id = ?", clip.ID).First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying score for clip %s: %w", clip.ID, err)
	}
	return &models.ClipScore{
		ClipID:     clip.ID,
		Source:     clip.Source,
		DurationMs: clip.DurationMs,
		SampleRate: clip.SampleRate,
		Scores:     models.Axes{CE: score.CE, CU: score.CU, PC: score.PC, PQ: score.PQ},
		CreatedAt:  clip.CreatedAt,
	}, nil
}

// ListScores returns every cached clip score, newest first.
func (c *DBClient) ListScores() ([]models.ClipScore, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var clips []Clip
	if err := c.DB.Order("created_at DESC").Find(&clips).Error; err != nil {
		return nil, fmt.Errorf("listing clips: %w", err)
	}

	out := make([]models.ClipScore, 0, len(clips))
	for _, clip := range clips {
		cs, err := c.assembleClipScore(clip)
		if err != nil {
			return nil, err
		}
		if cs != nil {
			out = append(out, *cs)
		}
	}
	return out, nil
}

// DeleteClipByID removes a clip and its score in one transaction.
func (c *DBClient) DeleteClipByID(clipID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("clip_id = ?", clipID).Delete(&Score{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", clipID).Delete(&Clip{}).Error; err != nil {
			return err
		}
		return nil
	})
}
