// Package config loads zeitgeist settings from defaults, an optional YAML
// file, an optional .env file and ZEITGEIST_* environment variables, in that
// order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/zeitgeist/internal/maintenance"
	"github.com/roach88/zeitgeist/internal/relevance"
)

// Environment variables that override file values.
const (
	EnvDatabase            = "ZEITGEIST_DATABASE"
	EnvLogLevel            = "ZEITGEIST_LOG_LEVEL"
	EnvMaintenanceSchedule = "ZEITGEIST_MAINTENANCE_SCHEDULE"
)

// Config is the full set of runtime settings.
type Config struct {
	Database    string            `yaml:"database"`
	LogLevel    string            `yaml:"log_level"`
	BusyTimeout int               `yaml:"busy_timeout_ms"`
	Related     RelatedConfig     `yaml:"related"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// RelatedConfig holds the defaults for temporal relatedness queries.
type RelatedConfig struct {
	Horizon Duration `yaml:"horizon"`
	Radius  Duration `yaml:"radius"`
	Limit   int      `yaml:"limit"`
}

// MaintenanceConfig controls scheduled housekeeping.
type MaintenanceConfig struct {
	Schedule       string   `yaml:"schedule"`
	FocusRetention Duration `yaml:"focus_retention"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:    DefaultDatabasePath(),
		LogLevel:    "info",
		BusyTimeout: 5000,
		Related: RelatedConfig{
			Horizon: Duration(relevance.DefaultHorizon),
			Radius:  Duration(relevance.DefaultRadius),
			Limit:   relevance.DefaultLimit,
		},
		Maintenance: MaintenanceConfig{
			Schedule:       "@daily",
			FocusRetention: Duration(maintenance.DefaultRetention),
		},
	}
}

// DefaultDatabasePath is $XDG_DATA_HOME/zeitgeist/activity.sqlite, falling
// back to ~/.local/share when XDG_DATA_HOME is unset.
func DefaultDatabasePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "zeitgeist", "activity.sqlite")
}

// Load builds the configuration. An empty path skips the YAML file; a
// named file that does not exist is an error. A missing .env is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file decodes to io.EOF and leaves the defaults alone.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvMaintenanceSchedule); v != "" {
		c.Maintenance.Schedule = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("database path is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.BusyTimeout <= 0 {
		return fmt.Errorf("busy_timeout_ms must be positive, got %d", c.BusyTimeout)
	}
	if c.Related.Horizon <= 0 {
		return fmt.Errorf("related.horizon must be positive, got %s", c.Related.Horizon)
	}
	if c.Related.Radius <= 0 {
		return fmt.Errorf("related.radius must be positive, got %s", c.Related.Radius)
	}
	if c.Related.Limit <= 0 {
		return fmt.Errorf("related.limit must be positive, got %d", c.Related.Limit)
	}
	if c.Maintenance.FocusRetention <= 0 {
		return fmt.Errorf("maintenance.focus_retention must be positive, got %s", c.Maintenance.FocusRetention)
	}
	if _, err := maintenance.ParseSchedule(c.Maintenance.Schedule); err != nil {
		return fmt.Errorf("maintenance.schedule: %w", err)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// RelatedOptions converts the related section for the relevance engine.
func (c Config) RelatedOptions() relevance.RelatedOptions {
	return relevance.RelatedOptions{
		Horizon: time.Duration(c.Related.Horizon),
		Radius:  time.Duration(c.Related.Radius),
		Limit:   c.Related.Limit,
	}
}

// Duration is a time.Duration that also accepts a whole-day suffix ("90d")
// in YAML.
type Duration time.Duration

// ParseDuration parses Go duration syntax or an integer number of days.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return Duration(time.Duration(n) * 24 * time.Hour), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d Duration) String() string {
	td := time.Duration(d)
	if td > 0 && td%(24*time.Hour) == 0 {
		return strconv.Itoa(int(td/(24*time.Hour))) + "d"
	}
	return td.String()
}
