package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/audiometrics/aesthete/pkg/models"
)

// Record is one clip to score: either a file path or an inline
// waveform with its sample rate, never both. Optional start/end times
// trim the clip before scoring.
type Record struct {
	Path       string    `json:"path,omitempty"`
	Waveform   []float64 `json:"waveform,omitempty"`
	SampleRate int       `json:"sample_rate,omitempty"`
	StartTime  float64   `json:"start_time,omitempty"`
	EndTime    float64   `json:"end_time,omitempty"` // zero means end of clip
}

// Validate checks the path/waveform exclusivity and time bounds.
func (r Record) Validate() error {
	switch {
	case r.Path == "" && len(r.Waveform) == 0:
		return errors.New("record needs a path or a waveform")
	case r.Path != "" && len(r.Waveform) > 0:
		return errors.New("path and waveform are mutually exclusive")
	case len(r.Waveform) > 0 && r.SampleRate <= 0:
		return errors.New("inline waveform requires a positive sample_rate")
	case r.StartTime < 0:
		return fmt.Errorf("start_time %g is negative", r.StartTime)
	case r.EndTime > 0 && r.EndTime < r.StartTime:
		return fmt.Errorf("end_time %g precedes start_time %g", r.EndTime, r.StartTime)
	}
	return nil
}

// LoadDataset reads the JSONL records in lines [start, end) of path.
// end <= 0 means "to the end of the file". Blank lines are skipped;
// a malformed line is fatal with its line number.
func LoadDataset(path string, start, end int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if end <= 0 {
		end = int(^uint(0) >> 1)
	}

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for line := 0; scanner.Scan(); line++ {
		if line < start || line >= end {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// WriteResults emits one JSON line per score record, in input order,
// with exactly the keys CE, CU, PC and PQ.
func WriteResults(w io.Writer, scores []models.Axes) error {
	enc := json.NewEncoder(w)
	for i, s := range scores {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("writing result %d: %w", i, err)
		}
	}
	return nil
}
