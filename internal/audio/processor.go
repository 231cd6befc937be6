package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/audiometrics/aesthete/pkg/utils"
)

// ConvertWAVConfig controls ffmpeg transcoding of arbitrary audio
// inputs into the mono PCM WAV the scorer consumes.
type ConvertWAVConfig struct {
	SampleRate int // e.g. 16000, 22050, 44100
}

// ConvertToMonoWAV converts an audio file to mono 16-bit PCM WAV at
// the configured rate and saves it under outputDir, preserving the
// base filename with a .wav extension.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}

	// Defensive timeout
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
	outputPath := filepath.Join(outputDir, base)

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// DownloadRemoteAudio fetches the best audio stream of a remote URL
// with yt-dlp into outputDir and returns the downloaded path. The
// file still needs ConvertToMonoWAV before scoring.
func DownloadRemoteAudio(ctx context.Context, url string, outputDir string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputTemplate := filepath.Join(outputDir, "%(id)s.%(ext)s")

	cmd := exec.CommandContext(
		ctx,
		"yt-dlp",
		"-f", "ba", // best audio stream
		"--no-warnings",
		"--no-playlist",
		"--print", "after_move:filepath",
		"-o", outputTemplate,
		url,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("yt-dlp download failed: %w", err)
	}

	downloadedPath := strings.TrimSpace(string(out))
	if downloadedPath == "" {
		return "", fmt.Errorf("yt-dlp reported no output file for %s", url)
	}
	if _, err := os.Stat(downloadedPath); err != nil {
		return "", fmt.Errorf("downloaded audio file not found: %w", err)
	}

	return downloadedPath, nil
}
