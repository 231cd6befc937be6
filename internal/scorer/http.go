package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/audiometrics/aesthete/internal/segment"
	"github.com/audiometrics/aesthete/pkg/models"
)

// HTTPBackend scores batches by posting them to an inference sidecar
// that runs the neural encoder. The sidecar owns the model weights
// and the compute device; this client only speaks the batch-in,
// scores-out contract.
type HTTPBackend struct {
	url       string
	precision string
	client    *http.Client
}

// scoreRequest is the wire format sent to the sidecar. Masks travel
// alongside waveforms so the encoder can ignore padded samples.
type scoreRequest struct {
	Wavs      [][]float64 `json:"wavs"`
	Masks     [][]bool    `json:"masks"`
	Precision string      `json:"precision"`
}

type scoreResponse struct {
	Scores []models.Axes `json:"scores"`
	Error  string        `json:"error,omitempty"`
}

// NewHTTPBackend returns a backend targeting the sidecar at url.
// precision is resolved leniently: unsupported values degrade to full
// precision with a warning.
func NewHTTPBackend(url, precision string) *HTTPBackend {
	return &HTTPBackend{
		url:       url,
		precision: ResolvePrecision(precision),
		client:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Score submits one batch and returns per-window raw scores. A score
// count differing from the window count aborts the chunk.
func (h *HTTPBackend) Score(ctx context.Context, batch *segment.Batch) ([]models.Axes, error) {
	body, err := json.Marshal(scoreRequest{
		Wavs:      batch.Wavs,
		Masks:     batch.Masks,
		Precision: h.precision,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("scoring backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding score response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("scoring backend error: %s", decoded.Error)
	}
	if err := checkCount(len(decoded.Scores), batch.Len()); err != nil {
		return nil, err
	}
	return decoded.Scores, nil
}
