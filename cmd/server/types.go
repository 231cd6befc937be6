package main

import (
	"github.com/audiometrics/aesthete/internal/dataset"
	"github.com/audiometrics/aesthete/pkg/models"
)

// Upload limit for POST /api/score. Half an hour of 16-bit stereo at
// 48 kHz comfortably fits.
const MaxUploadBytes = 512 << 20

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MetricsResponse is returned by GET /api/health/metrics.
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	ClipCount    int    `json:"clip_count"`
	SampleRate   int    `json:"sample_rate"`
	BackendURL   string `json:"backend_url,omitempty"`
}

// ScoreResponse is returned by the scoring endpoints.
type ScoreResponse struct {
	Source string      `json:"source,omitempty"`
	Scores models.Axes `json:"scores"`
}

// BatchScoreRequest is the request body for POST /api/score/batch.
type BatchScoreRequest struct {
	Records []dataset.Record `json:"records"`
}

// BatchScoreResponse returns one score record per input record, in
// input order.
type BatchScoreResponse struct {
	Results []models.Axes `json:"results"`
}

// RemoteScoreRequest is the request body for POST /api/score/remote.
type RemoteScoreRequest struct {
	URL string `json:"url"`
}
