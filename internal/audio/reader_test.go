package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes an interleaved PCM WAV fixture.
func writeTestWAV(t *testing.T, path string, data []int, sampleRate, bitDepth, channels int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close fixture: %v", err)
	}
}

func TestReadWAVMono16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	// Full scale positive, zero, half scale negative.
	writeTestWAV(t, path, []int{16384, 0, -16384, 32767}, 16000, 16, 1)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if len(samples) != 4 {
		t.Fatalf("Expected 4 samples, got %d", len(samples))
	}

	want := []float64{0.5, 0, -0.5, 32767.0 / 32768.0}
	for i, w := range want {
		if math.Abs(samples[i]-w) > 1e-6 {
			t.Errorf("Sample %d: expected %g, got %g", i, w, samples[i])
		}
	}
}

func TestReadWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// Frames: (L, R) = (16384, 0), (-16384, 16384).
	writeTestWAV(t, path, []int{16384, 0, -16384, 16384}, 44100, 16, 2)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", rate)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 mono frames, got %d", len(samples))
	}
	if math.Abs(samples[0]-0.25) > 1e-6 {
		t.Errorf("Frame 0: expected 0.25, got %g", samples[0])
	}
	if math.Abs(samples[1]-0) > 1e-6 {
		t.Errorf("Frame 1: expected 0, got %g", samples[1])
	}
}

func TestReadWAVRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.wav")
	data := make([]int, 200)
	for i := range data {
		data[i] = (i - 100) * 300
	}
	writeTestWAV(t, path, data, 8000, 16, 1)

	samples, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Errorf("Sample %d: value %g outside [-1, 1]", i, s)
		}
	}
}

func TestReadWAVInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("this is not audio"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, _, err := ReadWAV(path); err == nil {
		t.Error("Expected error for invalid WAV file")
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	if _, _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestTrim(t *testing.T) {
	samples := make([]float64, 1000) // 10 s at 100 Hz
	for i := range samples {
		samples[i] = float64(i)
	}

	tests := []struct {
		name        string
		start, end  float64
		wantLen     int
		wantFirst   float64
		expectError bool
	}{
		{"Full clip", 0, 0, 1000, 0, false},
		{"Middle slice", 2, 5, 300, 200, false},
		{"Open end", 8, 0, 200, 800, false},
		{"End past clip", 5, 100, 500, 500, false},
		{"Start past clip", 50, 0, 0, 0, false},
		{"Negative start", -1, 5, 0, 0, true},
		{"End before start", 5, 2, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Trim(samples, 100, tt.start, tt.end)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Trim failed: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("Expected %d samples, got %d", tt.wantLen, len(got))
			}
			if tt.wantLen > 0 && got[0] != tt.wantFirst {
				t.Errorf("Expected first sample %g, got %g", tt.wantFirst, got[0])
			}
		})
	}
}
