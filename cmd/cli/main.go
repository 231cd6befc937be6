package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/audiometrics/aesthete/internal/dataset"
	"github.com/audiometrics/aesthete/pkg/aesthete"
	"github.com/audiometrics/aesthete/pkg/logger"
	"github.com/audiometrics/aesthete/pkg/models"
)

// commonOpts are the flags shared by every subcommand.
type commonOpts struct {
	dbPath     string
	tempDir    string
	statsPath  string
	backendURL string
	precision  string
	batchSize  int
	sampleRate int
	window     float64
	hop        float64
	noPad      bool
}

func addCommonFlags(fs *flag.FlagSet) *commonOpts {
	o := &commonOpts{}
	fs.StringVar(&o.dbPath, "db", getEnvOrDefault("AESTHETE_DB_PATH", "aesthete.sqlite3"), "Path to the SQLite score cache")
	fs.StringVar(&o.tempDir, "temp", getEnvOrDefault("AESTHETE_TEMP_DIR", "/tmp"), "Directory for temporary audio conversion files")
	fs.StringVar(&o.statsPath, "stats", os.Getenv("AESTHETE_STATS"), "Path to per-axis mean/std JSON (identity when empty)")
	fs.StringVar(&o.backendURL, "backend", os.Getenv("AESTHETE_BACKEND_URL"), "Inference sidecar URL (offline DSP scorer when empty)")
	fs.StringVar(&o.precision, "precision", "bf16", "Encoder numeric precision: 16, bf16 or 32")
	fs.IntVar(&o.batchSize, "batch", 10, "Clips per scoring call")
	fs.IntVar(&o.sampleRate, "rate", 16000, "Target sample rate for scoring")
	fs.Float64Var(&o.window, "window", 10, "Window length in seconds")
	fs.Float64Var(&o.hop, "hop", 10, "Hop between window starts in seconds")
	fs.BoolVar(&o.noPad, "no-pad", false, "Drop trailing short windows instead of zero-padding")
	return o
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (o *commonOpts) createService() (aesthete.Service, error) {
	return aesthete.NewService(
		aesthete.WithDBPath(o.dbPath),
		aesthete.WithTempDir(o.tempDir),
		aesthete.WithStatsPath(o.statsPath),
		aesthete.WithBackendURL(o.backendURL),
		aesthete.WithPrecision(o.precision),
		aesthete.WithBatchSize(o.batchSize),
		aesthete.WithSampleRate(o.sampleRate),
		aesthete.WithWindowSize(o.window),
		aesthete.WithHopSize(o.hop),
		aesthete.WithPadding(!o.noPad),
	)
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "score":
		handleScore()
	case "predict":
		handlePredict()
	case "list":
		handleList()
	case "delete":
		handleDelete()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleScore() {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("score", flag.ExitOnError)
	opts := addCommonFlags(fs)
	url := fs.String("url", "", "Score a remote clip instead of local files")
	fs.Parse(os.Args[2:])

	targets := fs.Args()
	if *url == "" && len(targets) == 0 {
		fmt.Println("Usage: aesthete score [flags] <audio files...>")
		fmt.Println("   OR: aesthete score --url <remote url>")
		os.Exit(1)
	}

	svc, err := opts.createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *url != "" {
		scores, err := svc.ScoreRemote(ctx, *url)
		if err != nil {
			fmt.Printf("Failed to score %s: %v\n", *url, err)
			log.Errorf("ScoreRemote failed: %v", err)
			os.Exit(1)
		}
		printScoreRow(*url, scores)
		return
	}

	printScoreHeader()
	for _, path := range targets {
		scores, err := svc.ScoreFile(ctx, path)
		if err != nil {
			fmt.Printf("Failed to score %s: %v\n", path, err)
			log.Errorf("ScoreFile %s failed: %v", path, err)
			os.Exit(1)
		}
		label := path
		if info, err := os.Stat(path); err == nil {
			label = fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size())))
		}
		printScoreRow(label, scores)
	}
}

func handlePredict() {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	opts := addCommonFlags(fs)
	input := fs.String("input", "", "Input JSONL file (one record per line)")
	output := fs.String("output", "", "Output JSONL file (stdout when empty)")
	fs.Parse(os.Args[2:])

	if *input == "" {
		fmt.Println("Usage: aesthete predict --input in.jsonl [--output out.jsonl]")
		os.Exit(1)
	}

	records, err := dataset.LoadDataset(*input, 0, 0)
	if err != nil {
		fmt.Printf("Failed to load dataset: %v\n", err)
		log.Errorf("LoadDataset failed: %v", err)
		os.Exit(1)
	}
	log.Infof("Loaded %d records from %s", len(records), *input)

	svc, err := opts.createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	started := time.Now()
	results, err := svc.ScoreDataset(context.Background(), records)
	if err != nil {
		// Completed chunks are still worth flushing before bailing.
		log.Errorf("ScoreDataset failed after %d/%d records: %v", len(results), len(records), err)
		if len(results) > 0 {
			partial := *output
			if partial != "" {
				partial += ".partial"
			}
			writeResults(partial, results)
		}
		os.Exit(1)
	}
	log.Infof("Scored %d clips in %s", len(results), humanize.RelTime(started, time.Now(), "", ""))

	writeResults(*output, results)
}

func writeResults(output string, results []models.Axes) {
	log := logger.GetLogger()

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := dataset.WriteResults(out, results); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	if out != os.Stdout {
		log.Infof("Wrote %d result lines to %s", len(results), output)
	}
}

func handleList() {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("list", flag.ExitOnError)
	opts := addCommonFlags(fs)
	fs.Parse(os.Args[2:])

	svc, err := opts.createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	scores, err := svc.ListScores()
	if err != nil {
		fmt.Printf("Failed to list scores: %v\n", err)
		log.Errorf("ListScores failed: %v", err)
		os.Exit(1)
	}

	if len(scores) == 0 {
		fmt.Println("No scored clips in cache")
		return
	}

	fmt.Printf("Found %d scored clip(s):\n\n", len(scores))
	for i, cs := range scores {
		duration := time.Duration(cs.DurationMs) * time.Millisecond
		fmt.Printf("%d. %s\n", i+1, cs.Source)
		fmt.Printf("   ID: %s | Duration: %s | Scored %s\n",
			cs.ClipID, duration.Round(time.Second), humanize.Time(cs.CreatedAt))
		fmt.Printf("   CE %.2f | CU %.2f | PC %.2f | PQ %.2f\n\n",
			cs.Scores.CE, cs.Scores.CU, cs.Scores.PC, cs.Scores.PQ)
	}
}

func handleDelete() {
	log := logger.GetLogger()

	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	opts := addCommonFlags(fs)
	fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: aesthete delete <clip_id>")
		os.Exit(1)
	}
	clipID := fs.Arg(0)

	svc, err := opts.createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	cs, err := svc.GetScoreByID(clipID)
	if err != nil {
		fmt.Printf("Clip not found (ID: %s)\n", clipID)
		log.Warnf("Clip %s not found: %v", clipID, err)
		os.Exit(1)
	}

	if err := svc.DeleteScore(clipID); err != nil {
		fmt.Printf("Failed to delete clip: %v\n", err)
		log.Errorf("DeleteScore failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted cached score for %s\n", cs.Source)
	log.Infof("Deleted clip ID=%s (%s)", clipID, cs.Source)
}

func printScoreHeader() {
	fmt.Printf("%-8s %-8s %-8s %-8s  %s\n", "CE", "CU", "PC", "PQ", "clip")
	fmt.Println(strings.Repeat("-", 60))
}

func printScoreRow(label string, scores models.Axes) {
	fmt.Printf("%-8.3f %-8.3f %-8.3f %-8.3f  %s\n",
		scores.CE, scores.CU, scores.PC, scores.PQ, label)
}

func printUsage() {
	fmt.Println("Aesthete - Audio Aesthetics Scoring CLI")
	fmt.Println("\nScores clips along four axes: Content Enjoyment (CE), Content")
	fmt.Println("Usefulness (CU), Production Complexity (PC), Production Quality (PQ).")
	fmt.Println("\nUsage:")
	fmt.Println("  aesthete score [flags] <audio files...>")
	fmt.Println("  aesthete score [flags] --url <remote url>")
	fmt.Println("  aesthete predict [flags] --input in.jsonl [--output out.jsonl]")
	fmt.Println("  aesthete list [flags]")
	fmt.Println("  aesthete delete [flags] <clip_id>")
	fmt.Println("\nCommon flags:")
	fmt.Println("  --db <path>        SQLite score cache (env: AESTHETE_DB_PATH)")
	fmt.Println("  --temp <dir>       Temp dir for audio conversion (env: AESTHETE_TEMP_DIR)")
	fmt.Println("  --stats <path>     Per-axis mean/std JSON (env: AESTHETE_STATS)")
	fmt.Println("  --backend <url>    Inference sidecar URL (env: AESTHETE_BACKEND_URL)")
	fmt.Println("  --batch <n>        Clips per scoring call (default 10)")
	fmt.Println("  --rate <hz>        Target sample rate (default 16000)")
	fmt.Println("  --window <sec>     Window length (default 10)")
	fmt.Println("  --hop <sec>        Hop between windows (default 10)")
	fmt.Println("  --no-pad           Drop trailing short windows instead of padding")
	fmt.Println("\nExamples:")
	fmt.Println("  aesthete score podcast.wav music.mp3")
	fmt.Println("  aesthete predict --input clips.jsonl --output scores.jsonl")
	fmt.Println("  aesthete score --backend http://localhost:9077/score track.wav")
}
