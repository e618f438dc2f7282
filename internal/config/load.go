package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ble-dial.klederson.com/internal/dial"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Keys tracked for precedence against persisted preferences.
const (
	KeyCapacity = "dial.capacity"
	KeyChime    = "feedback.chime"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{Adapter: "hci0"},
		Dial: DialConfig{
			Capacity:      DefaultCapacity,
			StaleTimeout:  Duration(DefaultStaleTimeout),
			SweepInterval: Duration(DefaultSweepInterval),
		},
		Storage:  StorageConfig{DataDir: defaultDataDir()},
		Logging:  LoggingConfig{Level: "info"},
		explicit: make(map[string]bool),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ble-dial"
	}
	return filepath.Join(home, ".ble-dial")
}

// LoadDotEnv loads a .env file into the process environment if present.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadFile overlays a YAML file onto c. A missing file is not an error
// unless required is set.
func (c *Config) LoadFile(path string, required bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	// Record which preference keys the file actually set.
	var present struct {
		Dial struct {
			Capacity *int `yaml:"capacity"`
		} `yaml:"dial"`
		Feedback struct {
			Chime *bool `yaml:"chime"`
		} `yaml:"feedback"`
	}
	if err := yaml.Unmarshal(b, &present); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if present.Dial.Capacity != nil {
		c.MarkExplicit(KeyCapacity)
	}
	if present.Feedback.Chime != nil {
		c.MarkExplicit(KeyChime)
	}
	return nil
}

// ApplyEnv overlays BLEDIAL_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("ADAPTER"); ok {
		c.Scan.Adapter = v
	}
	if v, ok := get("CLASSIC"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCLASSIC: %w", EnvPrefix, err)
		}
		c.Scan.Classic = b
	}
	if v, ok := get("DEMO"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEMO: %w", EnvPrefix, err)
		}
		c.Scan.Demo = b
	}
	if v, ok := get("CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCAPACITY: %w", EnvPrefix, err)
		}
		c.Dial.Capacity = n
		c.MarkExplicit(KeyCapacity)
	}
	if v, ok := get("STALE_TIMEOUT"); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSTALE_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Dial.StaleTimeout = Duration(d)
	}
	if v, ok := get("SWEEP_INTERVAL"); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSWEEP_INTERVAL: %w", EnvPrefix, err)
		}
		c.Dial.SweepInterval = Duration(d)
	}
	if v, ok := get("CHIME"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCHIME: %w", EnvPrefix, err)
		}
		c.Feedback.Chime = b
		c.MarkExplicit(KeyChime)
	}
	if v, ok := get("DATA_DIR"); ok {
		c.Storage.DataDir = v
	}
	if v, ok := get("METRICS_ADDR"); ok {
		c.Status.MetricsAddr = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.Logging.File = v
	}
	return nil
}

// MarkExplicit records that key was set by the user.
func (c *Config) MarkExplicit(key string) {
	if c.explicit == nil {
		c.explicit = make(map[string]bool)
	}
	c.explicit[key] = true
}

// Explicit reports whether key was set by a file, env var or flag.
func (c *Config) Explicit(key string) bool {
	return c.explicit[key]
}

// LogFile returns the log destination, defaulting into the data dir.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Storage.DataDir, "ble-dial.log")
}

// DBPath returns the preferences database directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.Storage.DataDir, "prefs")
}

// Validate checks ranges. It does not fill defaults.
func (c *Config) Validate() error {
	if c.Dial.Capacity < dial.MinCapacity || c.Dial.Capacity > dial.MaxCapacity {
		return fmt.Errorf("dial.capacity: %w: %d not in [%d, %d]",
			dial.ErrCapacityOutOfRange, c.Dial.Capacity, dial.MinCapacity, dial.MaxCapacity)
	}
	if c.Dial.StaleTimeout.Duration() <= 0 {
		return fmt.Errorf("dial.stale_timeout must be positive")
	}
	if c.Dial.SweepInterval.Duration() <= 0 {
		return fmt.Errorf("dial.sweep_interval must be positive")
	}
	if c.Dial.SweepInterval.Duration() >= c.Dial.StaleTimeout.Duration() {
		return fmt.Errorf("dial.sweep_interval (%s) must be shorter than dial.stale_timeout (%s)",
			c.Dial.SweepInterval.Duration(), c.Dial.StaleTimeout.Duration())
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	return nil
}
