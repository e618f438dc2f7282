package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the effective runtime configuration.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Dial     DialConfig     `yaml:"dial"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Storage  StorageConfig  `yaml:"storage"`
	Status   StatusConfig   `yaml:"status"`
	Logging  LoggingConfig  `yaml:"logging"`

	// explicit records keys set by a file, the environment or a flag, as
	// opposed to defaults. Persisted preferences only fill the rest.
	explicit map[string]bool
}

// ScanConfig selects discovery sources.
type ScanConfig struct {
	Adapter string `yaml:"adapter"`
	Classic bool   `yaml:"classic"`
	Demo    bool   `yaml:"demo"`
}

// DialConfig sizes the ring and its staleness timing.
type DialConfig struct {
	Capacity      int      `yaml:"capacity"`
	StaleTimeout  Duration `yaml:"stale_timeout"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// FeedbackConfig controls arrival announcements.
type FeedbackConfig struct {
	Chime bool `yaml:"chime"`
}

// StorageConfig locates the preferences database.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// StatusConfig controls the read-only HTTP status endpoint.
type StatusConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "5s" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ParseDuration accepts Go duration strings or plain seconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return td, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
