package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all dropoff configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Engine  EngineConfig  `yaml:"engine"`
	Model   ModelConfig   `yaml:"model"`
	Report  ReportConfig  `yaml:"report"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SourceConfig selects where raw log lines come from.
type SourceConfig struct {
	Provider string `yaml:"provider"` // "file", "http" or "synthetic"
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	Token    string `yaml:"-"`      // env only
	Orders   int    `yaml:"orders"` // synthetic only
	Seed     int64  `yaml:"seed"`   // synthetic only
}

// EngineConfig holds extraction and sessionization constants.
type EngineConfig struct {
	SuccessSymbol   string   `yaml:"success_symbol"`
	EventPrefixes   []string `yaml:"event_prefixes"`
	UnknownEvent    string   `yaml:"unknown_event"`
	Severities      []string `yaml:"severities"`
	DefaultSeverity string   `yaml:"default_severity"`
	Timezone        string   `yaml:"timezone"`
	Workers         int      `yaml:"workers"`
}

// ModelConfig holds the sequence classifier shape and schedule.
type ModelConfig struct {
	MaxSeqLen    int     `yaml:"max_seq_len"`
	EmbeddingDim int     `yaml:"embedding_dim"`
	HiddenDim    int     `yaml:"hidden_dim"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
	ONNXPath     string  `yaml:"onnx_path"` // optional exported scorer
}

// ReportConfig holds failure triage thresholds, in percent.
type ReportConfig struct {
	CriticalAbove float64 `yaml:"critical_above"`
	WarningFrom   float64 `yaml:"warning_from"`
}

// OutputConfig holds report destination settings.
type OutputConfig struct {
	Format    string `yaml:"format"` // "stdout", "file" or "both"
	Path      string `yaml:"path"`
	MaxBytes  int64  `yaml:"max_bytes"` // file rotation size, 0 disables
	Pretty    bool   `yaml:"pretty"`
	Verbosity string `yaml:"verbosity"` // "minimal", "standard", "full"
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig controls the end-of-run metrics dump.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // Prometheus text format, empty disables
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: SourceConfig{Provider: "synthetic", Orders: 100, Seed: 42},
		Engine: EngineConfig{
			SuccessSymbol:   "Screen_S14",
			EventPrefixes:   []string{"UseCase_", "Screen_"},
			UnknownEvent:    "UnknownEvent",
			Severities:      []string{"INFO", "WARN", "ERROR"},
			DefaultSeverity: "INFO",
			Timezone:        "UTC",
			Workers:         4,
		},
		Model: ModelConfig{
			MaxSeqLen:    15,
			EmbeddingDim: 16,
			HiddenDim:    32,
			Epochs:       10,
			LearningRate: 0.01,
			Seed:         42,
		},
		Report:  ReportConfig{CriticalAbove: 50, WarningFrom: 30},
		Output:  OutputConfig{Format: "stdout", Verbosity: "standard"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// DROPOFF_CONFIG (if set), then DROPOFF_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("DROPOFF_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads a YAML file on top of the defaults. Environment variables
// are not consulted.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Source.Provider = getenv("DROPOFF_SOURCE", c.Source.Provider)
	c.Source.Path = getenv("DROPOFF_SOURCE_PATH", c.Source.Path)
	c.Source.URL = getenv("DROPOFF_SOURCE_URL", c.Source.URL)
	c.Source.Token = getenv("DROPOFF_SOURCE_TOKEN", c.Source.Token)
	c.Source.Orders = getenvInt("DROPOFF_SYNTHETIC_ORDERS", c.Source.Orders)

	c.Engine.SuccessSymbol = getenv("DROPOFF_SUCCESS_SYMBOL", c.Engine.SuccessSymbol)
	c.Engine.EventPrefixes = getenvList("DROPOFF_EVENT_PREFIXES", c.Engine.EventPrefixes)
	c.Engine.Severities = getenvList("DROPOFF_SEVERITIES", c.Engine.Severities)
	c.Engine.Workers = getenvInt("DROPOFF_WORKERS", c.Engine.Workers)

	c.Model.MaxSeqLen = getenvInt("DROPOFF_MAX_SEQ_LEN", c.Model.MaxSeqLen)
	c.Model.EmbeddingDim = getenvInt("DROPOFF_EMBEDDING_DIM", c.Model.EmbeddingDim)
	c.Model.HiddenDim = getenvInt("DROPOFF_HIDDEN_DIM", c.Model.HiddenDim)
	c.Model.Epochs = getenvInt("DROPOFF_EPOCHS", c.Model.Epochs)
	c.Model.LearningRate = getenvFloat("DROPOFF_LEARNING_RATE", c.Model.LearningRate)
	c.Model.ONNXPath = getenv("DROPOFF_ONNX_PATH", c.Model.ONNXPath)

	c.Output.Format = getenv("DROPOFF_OUTPUT", c.Output.Format)
	c.Output.Path = getenv("DROPOFF_OUTPUT_PATH", c.Output.Path)
	c.Output.MaxBytes = int64(getenvInt("DROPOFF_OUTPUT_MAX_BYTES", int(c.Output.MaxBytes)))
	c.Output.Pretty = getenvBool("DROPOFF_OUTPUT_PRETTY", c.Output.Pretty)
	c.Output.Verbosity = getenv("DROPOFF_VERBOSITY", c.Output.Verbosity)

	c.Logging.Level = getenv("DROPOFF_LOG_LEVEL", c.Logging.Level)
	c.Metrics.Textfile = getenv("DROPOFF_METRICS_TEXTFILE", c.Metrics.Textfile)
}

// Validate checks the configuration for errors. Returns all problems at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Source.Provider {
	case "file":
		if c.Source.Path == "" {
			errs = append(errs, errors.New("file source requires DROPOFF_SOURCE_PATH"))
		}
	case "http":
		if c.Source.URL == "" {
			errs = append(errs, errors.New("http source requires DROPOFF_SOURCE_URL"))
		}
	case "synthetic":
		if c.Source.Orders <= 0 {
			errs = append(errs, fmt.Errorf("synthetic orders must be positive, got %d", c.Source.Orders))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source provider %q", c.Source.Provider))
	}

	if c.Engine.SuccessSymbol == "" {
		errs = append(errs, errors.New("success symbol must not be empty"))
	}
	if len(c.Engine.EventPrefixes) == 0 {
		errs = append(errs, errors.New("at least one event prefix is required"))
	}
	if len(c.Engine.Severities) == 0 {
		errs = append(errs, errors.New("at least one severity marker is required"))
	}
	if c.Engine.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Engine.Workers))
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"max_seq_len", c.Model.MaxSeqLen},
		{"embedding_dim", c.Model.EmbeddingDim},
		{"hidden_dim", c.Model.HiddenDim},
		{"epochs", c.Model.Epochs},
	} {
		if f.v <= 0 {
			errs = append(errs, fmt.Errorf("model %s must be positive, got %d", f.name, f.v))
		}
	}
	if c.Model.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("model learning_rate must be positive, got %g", c.Model.LearningRate))
	}

	if c.Report.WarningFrom < 0 || c.Report.CriticalAbove > 100 || c.Report.WarningFrom > c.Report.CriticalAbove {
		errs = append(errs, fmt.Errorf("report thresholds must satisfy 0 <= warning_from (%g) <= critical_above (%g) <= 100",
			c.Report.WarningFrom, c.Report.CriticalAbove))
	}

	switch c.Output.Format {
	case "stdout":
	case "file", "both":
		if c.Output.Path == "" {
			errs = append(errs, errors.New("file output requires DROPOFF_OUTPUT_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output.Format))
	}
	if c.Output.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("output max_bytes must be >= 0, got %d", c.Output.MaxBytes))
	}
	switch c.Output.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("invalid verbosity %q (must be minimal, standard or full)", c.Output.Verbosity))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getenvList splits a comma-separated variable, dropping empty items.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
