// Package config loads decoder settings from a YAML file and JOCHRE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-text/typesetting/di"
	"gopkg.in/yaml.v3"

	"github.com/urieli/jochre-sub004/analyse"
	"github.com/urieli/jochre-sub004/boundary"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/recovery"
	"github.com/urieli/jochre-sub004/sequence"
)

// Segmentation modes.
const (
	SegmentOriginal      = "original"
	SegmentProbabilistic = "probabilistic"
	SegmentDeterministic = "deterministic"
)

// LocaleAuto takes the reading direction from the script of the lexicon.
const LocaleAuto = "auto"

// Config holds all configuration values.
type Config struct {
	// Locale of the pages, such as "yi" or "he"; it sets the reading
	// direction. LocaleAuto detects it from the lexicon.
	Locale string `yaml:"locale"`
	// Recovery is "lenient" (log warnings and continue) or "strict".
	Recovery string `yaml:"recovery"`

	Analyser Analyser `yaml:"analyser"`
	Splitter Splitter `yaml:"splitter"`
	Lexicon  Lexicon  `yaml:"lexicon"`
	Logging  Logging  `yaml:"logging"`
}

type Analyser struct {
	BeamWidth        int     `yaml:"beam_width"`
	MinOutcomeWeight float64 `yaml:"min_outcome_weight"`
	// Scoring names the letter sequence scoring strategy.
	Scoring string `yaml:"scoring"`
}

type Splitter struct {
	// Mode selects the boundary detector: original, probabilistic or
	// deterministic.
	Mode               string  `yaml:"mode"`
	MaxDepth           int     `yaml:"max_depth"`
	MinWidthRatio      float64 `yaml:"min_width_ratio"`
	BeamWidth          int     `yaml:"beam_width"`
	MinProbForDecision float64 `yaml:"min_prob_for_decision"`
	// Projection split candidate finder.
	MinDistance int     `yaml:"min_distance"`
	MaxInkRatio float64 `yaml:"max_ink_ratio"`
}

type Lexicon struct {
	Path              string  `yaml:"path"`
	StripMarks        bool    `yaml:"strip_marks"`
	UnknownWordFactor float64 `yaml:"unknown_word_factor"`
	LogBase           float64 `yaml:"log_base"`
}

type Logging struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	finder := graphics.NewProjectionSplitFinder()
	split := boundary.DefaultSplitterConfig()
	return Config{
		Locale:   "yi",
		Recovery: "lenient",
		Analyser: Analyser{
			BeamWidth: analyse.DefaultConfig().BeamWidth,
			Scoring:   sequence.DefaultScoring.Name(),
		},
		Splitter: Splitter{
			Mode:               SegmentOriginal,
			MaxDepth:           split.MaxDepth,
			MinWidthRatio:      split.MinWidthRatio,
			BeamWidth:          split.BeamWidth,
			MinProbForDecision: 0.5,
			MinDistance:        finder.MinDistance,
			MaxInkRatio:        finder.MaxInkRatio,
		},
		Lexicon: Lexicon{
			UnknownWordFactor: 0.75,
			LogBase:           10,
		},
		Logging: Logging{Level: "INFO"},
	}
}

// Load applies, in order, the defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Locale = getEnv("JOCHRE_LOCALE", c.Locale)
	c.Recovery = getEnv("JOCHRE_RECOVERY", c.Recovery)
	c.Analyser.Scoring = getEnv("JOCHRE_SCORING", c.Analyser.Scoring)
	c.Splitter.Mode = getEnv("JOCHRE_SEGMENTATION", c.Splitter.Mode)
	c.Lexicon.Path = getEnv("JOCHRE_LEXICON", c.Lexicon.Path)
	c.Logging.File = getEnv("JOCHRE_LOG_FILE", c.Logging.File)
	c.Logging.Level = getEnv("JOCHRE_LOG_LEVEL", c.Logging.Level)

	var errs []error
	errs = append(errs,
		envInt("JOCHRE_BEAM_WIDTH", &c.Analyser.BeamWidth),
		envFloat("JOCHRE_MIN_OUTCOME_WEIGHT", &c.Analyser.MinOutcomeWeight),
		envInt("JOCHRE_MAX_DEPTH", &c.Splitter.MaxDepth),
		envFloat("JOCHRE_MIN_WIDTH_RATIO", &c.Splitter.MinWidthRatio),
	)
	return errors.Join(errs...)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Analyser.BeamWidth <= 0 {
		errs = append(errs, fmt.Errorf("analyser.beam_width must be positive, got %d", c.Analyser.BeamWidth))
	}
	if c.Analyser.MinOutcomeWeight < 0 || c.Analyser.MinOutcomeWeight >= 1 {
		errs = append(errs, fmt.Errorf("analyser.min_outcome_weight must be in [0, 1), got %g", c.Analyser.MinOutcomeWeight))
	}
	if _, err := sequence.ScoringByName(c.Analyser.Scoring); err != nil {
		errs = append(errs, fmt.Errorf("analyser.scoring: %w", err))
	}
	switch c.Splitter.Mode {
	case SegmentOriginal, SegmentProbabilistic, SegmentDeterministic:
	default:
		errs = append(errs, fmt.Errorf("splitter.mode %q is not one of original, probabilistic, deterministic", c.Splitter.Mode))
	}
	if c.Splitter.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("splitter.max_depth must be positive, got %d", c.Splitter.MaxDepth))
	}
	if c.Splitter.MinWidthRatio <= 0 {
		errs = append(errs, fmt.Errorf("splitter.min_width_ratio must be positive, got %g", c.Splitter.MinWidthRatio))
	}
	if c.Splitter.BeamWidth <= 0 {
		errs = append(errs, fmt.Errorf("splitter.beam_width must be positive, got %d", c.Splitter.BeamWidth))
	}
	switch strings.ToLower(c.Recovery) {
	case "lenient", "strict":
	default:
		errs = append(errs, fmt.Errorf("recovery %q is not one of lenient, strict", c.Recovery))
	}
	return errors.Join(errs...)
}

// Direction returns the reading direction of the configured locale, left to
// right for LocaleAuto.
func (c Config) Direction() di.Direction {
	if c.Locale == LocaleAuto {
		return di.DirectionLTR
	}
	return graphics.LocaleDirection(c.Locale)
}

// AnalyserConfig returns the beam search bounds.
func (c Config) AnalyserConfig() analyse.Config {
	return analyse.Config{BeamWidth: c.Analyser.BeamWidth, MinOutcomeWeight: c.Analyser.MinOutcomeWeight}
}

// SplitterConfig returns the recursive splitter bounds.
func (c Config) SplitterConfig() boundary.SplitterConfig {
	return boundary.SplitterConfig{
		MaxDepth:      c.Splitter.MaxDepth,
		MinWidthRatio: c.Splitter.MinWidthRatio,
		BeamWidth:     c.Splitter.BeamWidth,
	}
}

// SplitFinder returns the projection split candidate finder.
func (c Config) SplitFinder() *graphics.ProjectionSplitFinder {
	return &graphics.ProjectionSplitFinder{MinDistance: c.Splitter.MinDistance, MaxInkRatio: c.Splitter.MaxInkRatio}
}

// Scoring returns the configured scoring strategy.
func (c Config) Scoring() sequence.ScoringStrategy {
	s, err := sequence.ScoringByName(c.Analyser.Scoring)
	if err != nil {
		return sequence.DefaultScoring
	}
	return s
}

// Strategy returns a fresh recovery strategy for one run.
func (c Config) Strategy() recovery.Strategy {
	if strings.EqualFold(c.Recovery, "strict") {
		return recovery.NewStrictStrategy()
	}
	return recovery.NewLenientStrategy()
}

// LogLevel returns the parsed logging level.
func (c Config) LogLevel() slog.Level {
	return parseLogLevel(c.Logging.Level)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, dst *int) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
