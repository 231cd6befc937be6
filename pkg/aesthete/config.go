package aesthete

import (
	"github.com/audiometrics/aesthete/internal/scorer"
	"github.com/audiometrics/aesthete/internal/segment"
)

type Config struct {
	DBPath     string
	TempDir    string
	StatsPath  string // per-axis mean/std JSON; identity when empty
	BackendURL string // inference sidecar; DSP heuristic when empty
	Precision  string
	BatchSize  int
	SampleRate int
	WindowSize float64
	HopSize    float64
	PadZero    bool
	Logger     Logger
	Storage    Storage
	Backend    scorer.Backend
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithStatsPath(path string) Option {
	return func(c *Config) {
		c.StatsPath = path
	}
}

func WithBackendURL(url string) Option {
	return func(c *Config) {
		c.BackendURL = url
	}
}

func WithPrecision(precision string) Option {
	return func(c *Config) {
		c.Precision = precision
	}
}

func WithBatchSize(n int) Option {
	return func(c *Config) {
		c.BatchSize = n
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithWindowSize(seconds float64) Option {
	return func(c *Config) {
		c.WindowSize = seconds
	}
}

func WithHopSize(seconds float64) Option {
	return func(c *Config) {
		c.HopSize = seconds
	}
}

func WithPadding(pad bool) Option {
	return func(c *Config) {
		c.PadZero = pad
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithBackend injects a scoring backend directly, bypassing the
// BackendURL/DSP selection. Tests use this for deterministic doubles.
func WithBackend(backend scorer.Backend) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     "aesthete.sqlite3",
		TempDir:    "/tmp",
		Precision:  scorer.PrecisionBfloat16,
		BatchSize:  10,
		SampleRate: segment.DefaultSampleRate,
		WindowSize: segment.DefaultWindowSize,
		HopSize:    segment.DefaultHopSize,
		PadZero:    true,
	}
}
