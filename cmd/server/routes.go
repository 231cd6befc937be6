package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/audiometrics/aesthete/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Root endpoint
	mux.HandleFunc("/", s.handleRoot)

	// Health endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health/metrics", s.handleMetrics)

	// Scoring endpoints
	mux.HandleFunc("/api/score", s.handleScoreFile)
	mux.HandleFunc("/api/score/batch", s.handleScoreBatch)
	mux.HandleFunc("/api/score/remote", s.handleScoreRemote)

	// Cache endpoints
	mux.HandleFunc("/api/scores", s.handleListScores)
	mux.HandleFunc("/api/scores/", s.handleScore)

	// Wrap with CORS and request logging
	return corsMiddleware(s.config.AllowedOrigins)(loggingMiddleware(mux))
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Check if origin is allowed
			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.GetLogger().Infof("%s %s from %s -> %d", r.Method, r.URL.Path, getClientIP(r), wrapped.statusCode)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("Aesthete server starting on %s", addr)
	s.log.Infof("   Database: %s", s.config.DBPath)
	s.log.Infof("   Sample Rate: %d Hz", s.config.SampleRate)
	if s.config.BackendURL != "" {
		s.log.Infof("   Backend: %s", s.config.BackendURL)
	} else {
		s.log.Infof("   Backend: offline DSP scorer")
	}
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                  - Health check")
	s.log.Infof("   GET    /api/health/metrics      - Server metrics")
	s.log.Infof("   POST   /api/score               - Score uploaded audio file")
	s.log.Infof("   POST   /api/score/batch         - Score a batch of records")
	s.log.Infof("   POST   /api/score/remote        - Score audio from a remote URL")
	s.log.Infof("   GET    /api/scores              - List cached scores")
	s.log.Infof("   GET    /api/scores/{id}         - Get cached score by clip id")
	s.log.Infof("   DELETE /api/scores/{id}         - Delete cached score")

	return http.ListenAndServe(addr, handler)
}
