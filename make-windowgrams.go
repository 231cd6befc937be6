package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/eligwz/spectrogram"

	"github.com/audiometrics/aesthete/internal/audio"
	"github.com/audiometrics/aesthete/pkg/utils"
)

// Dev helper: renders a spectrogram PNG for every WAV in a directory
// so clips can be eyeballed before scoring. Not part of the scoring
// path.
func main() {
	inputDir := flag.String("in", "testdata", "Directory of WAV files")
	outputDir := flag.String("out", "testdata/windowgrams", "Directory for rendered PNGs")
	flag.Parse()

	if err := utils.MakeDir(*outputDir); err != nil {
		log.Fatal(err)
	}

	err := filepath.WalkDir(*inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".wav" {
			return nil
		}

		fmt.Printf("Rendering %s...\n", path)

		samples, sampleRate, err := audio.ReadWAV(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			return nil
		}
		if len(samples) == 0 {
			log.Printf("No samples in %s", path)
			return nil
		}

		const (
			width  = 1600
			height = 400
		)
		img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
		draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor("000000")), image.Point{}, draw.Src)

		// Hamming window, FFT, magnitude, linear scale.
		spectrogram.Drawfft(
			img,
			samples,
			uint32(sampleRate),
			uint32(height),
			false, // RECTANGLE
			false, // DFT
			true,  // MAG
			false, // LOG10
		)

		outputPath := filepath.Join(*outputDir, filepath.Base(path)+".png")
		if err := spectrogram.SavePng(img, outputPath); err != nil {
			log.Printf("Error saving %s: %v", outputPath, err)
			return nil
		}

		fmt.Printf("Saved %s\n", outputPath)
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}
}
