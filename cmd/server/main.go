package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/audiometrics/aesthete/pkg/aesthete"
)

var (
	port           int
	dbPath         string
	tempDir        string
	statsPath      string
	backendURL     string
	batchSize      int
	sampleRate     int
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("AESTHETE_DB_PATH", "aesthete.sqlite3"), "Path to SQLite score cache")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("AESTHETE_TEMP_DIR", "/tmp"), "Temporary directory")
	flag.StringVar(&statsPath, "stats", os.Getenv("AESTHETE_STATS"), "Per-axis mean/std JSON file")
	flag.StringVar(&backendURL, "backend", os.Getenv("AESTHETE_BACKEND_URL"), "Inference sidecar URL")
	flag.IntVar(&batchSize, "batch", 10, "Clips per scoring call")
	flag.IntVar(&sampleRate, "rate", 16000, "Target sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := aesthete.NewService(
		aesthete.WithDBPath(dbPath),
		aesthete.WithTempDir(tempDir),
		aesthete.WithStatsPath(statsPath),
		aesthete.WithBackendURL(backendURL),
		aesthete.WithBatchSize(batchSize),
		aesthete.WithSampleRate(sampleRate),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		BackendURL:     backendURL,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
