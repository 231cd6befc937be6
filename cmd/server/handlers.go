package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/audiometrics/aesthete/internal/aggregate"
	"github.com/audiometrics/aesthete/pkg/aesthete"
	"github.com/audiometrics/aesthete/pkg/logger"
	"github.com/audiometrics/aesthete/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service aesthete.Service
	config  *ServerConfig
	log     aesthete.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	BackendURL     string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service aesthete.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Aesthete API",
		"version": "1.0.0",
		"axes":    []string{"CE", "CU", "PC", "PQ"},
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"scoreFile":   "POST /api/score",
			"scoreBatch":  "POST /api/score/batch",
			"scoreRemote": "POST /api/score/remote",
			"listScores":  "GET /api/scores",
			"getScore":    "GET /api/scores/{id}",
			"deleteScore": "DELETE /api/scores/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	scores, err := s.service.ListScores()
	if err != nil {
		s.log.Errorf("Failed to get clip count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		ClipCount:    len(scores),
		SampleRate:   s.config.SampleRate,
		BackendURL:   s.config.BackendURL,
	})
}

// handleScoreFile handles POST /api/score: a multipart upload with an
// "audio" part, scored synchronously.
func (s *Server) handleScoreFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Missing audio upload: %v", err))
		return
	}
	defer file.Close()

	uploadDir := filepath.Join(s.config.TempDir, "aesthete-uploads")
	if err := utils.MakeDir(uploadDir); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	uploadPath := filepath.Join(uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	dst, err := os.Create(uploadPath)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer utils.DeleteFile(uploadPath)

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	dst.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	scores, err := s.service.ScoreFile(ctx, uploadPath)
	if err != nil {
		s.log.Errorf("ScoreFile failed for upload %s: %v", header.Filename, err)
		s.respondError(w, statusForScoreError(err), fmt.Sprintf("Scoring failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, ScoreResponse{Source: header.Filename, Scores: scores})
}

// handleScoreBatch handles POST /api/score/batch with a JSON body of
// dataset records. Results come back in input order.
func (s *Server) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req BatchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if len(req.Records) == 0 {
		s.respondError(w, http.StatusBadRequest, "records cannot be empty")
		return
	}
	for i, rec := range req.Records {
		if err := rec.Validate(); err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("record %d: %v", i, err))
			return
		}
	}

	results, err := s.service.ScoreDataset(r.Context(), req.Records)
	if err != nil {
		s.log.Errorf("ScoreDataset failed after %d/%d records: %v", len(results), len(req.Records), err)
		s.respondError(w, statusForScoreError(err), fmt.Sprintf("Scoring failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, BatchScoreResponse{Results: results})
}

// handleScoreRemote handles POST /api/score/remote
func (s *Server) handleScoreRemote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req RemoteScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	scores, err := s.service.ScoreRemote(ctx, req.URL)
	if err != nil {
		s.log.Errorf("ScoreRemote failed for %s: %v", req.URL, err)
		s.respondError(w, statusForScoreError(err), fmt.Sprintf("Scoring failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, ScoreResponse{Source: req.URL, Scores: scores})
}

// handleListScores handles GET /api/scores
func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Use GET")
		return
	}

	scores, err := s.service.ListScores()
	if err != nil {
		s.log.Errorf("Failed to list scores: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve scores")
		return
	}
	s.respondJSON(w, http.StatusOK, scores)
}

// handleScore handles GET and DELETE on /api/scores/{id}
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	clipID := strings.TrimPrefix(r.URL.Path, "/api/scores/")
	if clipID == "" || strings.Contains(clipID, "/") {
		s.respondError(w, http.StatusBadRequest, "Invalid clip id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		cs, err := s.service.GetScoreByID(clipID)
		if err != nil || cs == nil {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Clip %s not found", clipID))
			return
		}
		s.respondJSON(w, http.StatusOK, cs)
	case http.MethodDelete:
		if err := s.service.DeleteScore(clipID); err != nil {
			s.log.Errorf("DeleteScore %s failed: %v", clipID, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to delete clip")
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"deleted": clipID})
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Use GET or DELETE")
	}
}

// statusForScoreError maps scoring failures onto HTTP statuses:
// degenerate input is the client's fault, everything else is ours.
func statusForScoreError(err error) int {
	if errors.Is(err, aggregate.ErrDegenerateClip) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
