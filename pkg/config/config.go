// Package config loads calohits settings from a YAML file.
//
// Example:
//
//	features:
//	  max_separation: 100
//	  density_weight_power: 2
//	  use_simple_isolation_scheme: false
//	log:
//	  level: debug
//	  format: json
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sanonone/calohits/pkg/core/features"
	"gopkg.in/yaml.v3"
)

// Settings is the root of the configuration file.
type Settings struct {
	Features features.Config `yaml:"features"`
	Log      LogConfig       `yaml:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Features: features.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates the settings at path. Values missing from the
// file keep their defaults; an empty path returns the defaults. Environment
// variables ($VAR, ${VAR}) are expanded before decoding and unknown keys are
// rejected.
func Load(path string) (Settings, error) {
	settings := Default()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	decoder := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	decoder.KnownFields(true)

	if err := decoder.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration in '%s': %w", path, err)
	}
	return settings, nil
}

// Validate checks every section.
func (s Settings) Validate() error {
	if err := s.Features.Validate(); err != nil {
		return err
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(s.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", s.Log.Format)
	}
	return nil
}

// NewLogger builds a logger writing to w according to the log section.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
