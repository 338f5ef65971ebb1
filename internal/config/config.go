package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/pagelens/pagelens/layout"
)

// Config is the runtime configuration of the CLI and server. Values are
// resolved in order: built-in defaults, then the YAML file, then
// PAGELENS_* environment variables. Zero-valued tuning knobs fall back
// to the engine defaults.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Workers bounds page-level concurrency during document analysis.
	Workers int `yaml:"workers"`

	// GlobalFontStats reclassifies font-sensitive types against
	// document-wide statistics.
	GlobalFontStats bool `yaml:"global_font_stats"`

	Layout LayoutConfig `yaml:"layout"`
}

// LayoutConfig exposes the commonly tuned engine thresholds. Anything
// left at zero keeps the engine default.
type LayoutConfig struct {
	WordGapThreshold  float64 `yaml:"word_gap_threshold"`
	LineTolerance     float64 `yaml:"line_tolerance"`
	LineSplitGap      float64 `yaml:"line_split_gap"`
	LineGapMultiplier float64 `yaml:"line_gap_multiplier"`

	MinGapThreshold float64 `yaml:"min_gap_threshold"`
	ExpectedColumns int     `yaml:"expected_columns"`
	MinConfidence   float64 `yaml:"min_confidence"`

	HeadingSizeRatio    float64 `yaml:"heading_size_ratio"`
	SpanningWidthFactor float64 `yaml:"spanning_width_factor"`
}

// Load resolves the configuration. An empty path skips the file layer;
// a named file that cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:     "8080",
		LogLevel: "info",
		Workers:  0, // one per CPU
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Port = envOr("PAGELENS_PORT", cfg.Port)
	cfg.LogLevel = envOr("PAGELENS_LOG_LEVEL", cfg.LogLevel)
	cfg.Workers = envInt("PAGELENS_WORKERS", cfg.Workers)
	cfg.Layout.ExpectedColumns = envInt("PAGELENS_EXPECTED_COLUMNS", cfg.Layout.ExpectedColumns)
	cfg.Layout.MinConfidence = envFloat("PAGELENS_MIN_CONFIDENCE", cfg.Layout.MinConfidence)

	return cfg, nil
}

// Validate checks value ranges. Load does not call it; callers validate
// once after assembling flags on top.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port %q is not numeric", c.Port)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.Layout.MinConfidence < 0 || c.Layout.MinConfidence > 1 {
		return fmt.Errorf("min_confidence %g out of [0,1]", c.Layout.MinConfidence)
	}
	if c.Layout.ExpectedColumns < 0 {
		return fmt.Errorf("expected_columns must not be negative")
	}
	if _, ok := levelNames[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	if level, ok := levelNames[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// AnalyzerConfig maps the tuning knobs onto the engine configuration,
// keeping engine defaults for anything unset.
func (c Config) AnalyzerConfig() layout.AnalyzerConfig {
	ac := layout.DefaultAnalyzerConfig()
	l := c.Layout

	if l.WordGapThreshold > 0 {
		ac.Assembler.WordGapThreshold = l.WordGapThreshold
	}
	if l.LineTolerance > 0 {
		ac.Assembler.LineTolerance = l.LineTolerance
	}
	if l.LineSplitGap > 0 {
		ac.Assembler.LineSplitGap = l.LineSplitGap
	}
	if l.LineGapMultiplier > 0 {
		ac.Assembler.LineGapMultiplier = l.LineGapMultiplier
	}
	if l.MinGapThreshold > 0 {
		ac.Column.MinGapThreshold = l.MinGapThreshold
	}
	if l.ExpectedColumns > 0 {
		ac.Column.ExpectedColumns = l.ExpectedColumns
	}
	if l.MinConfidence > 0 {
		ac.Column.MinConfidence = l.MinConfidence
	}
	if l.HeadingSizeRatio > 0 {
		ac.Classifier.HeadingSizeRatio = l.HeadingSizeRatio
	}
	if l.SpanningWidthFactor > 0 {
		ac.Spanning.WidthFactor = l.SpanningWidthFactor
	}
	return ac
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
