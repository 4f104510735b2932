package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"eventcal/internal/store"
)

const (
	FileName = "config.yaml"

	PolicyLastWriterWins = "last-writer-wins"
	PolicyReject         = "reject"

	defaultListen         = "127.0.0.1:3336"
	defaultWeekStart      = "sunday"
	defaultIndicatorCap   = 1
	defaultBackupSchedule = "@daily"
	defaultBackupKeep     = 7
	defaultLogLevel       = "info"
)

type BackupConfig struct {
	// Schedule is a cron expression (or descriptor like @daily) used by `eventcal web`.
	// Empty disables scheduled backups.
	Schedule string `yaml:"schedule" json:"schedule"`
	Keep     int    `yaml:"keep" json:"keep"`
}

type Config struct {
	// Listen is the address `eventcal web` binds when --addr is not given.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is an IANA zone name; empty means the system local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// IndicatorCap is how many category dots a grid cell shows.
	IndicatorCap int `yaml:"indicator_cap" json:"indicator_cap"`

	// ConflictPolicy decides what happens when another process saved in between.
	ConflictPolicy string `yaml:"conflict_policy" json:"conflict_policy"`

	Backup BackupConfig `yaml:"backup" json:"backup"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

func Default() *Config {
	return &Config{
		Listen:         defaultListen,
		WeekStart:      defaultWeekStart,
		IndicatorCap:   defaultIndicatorCap,
		ConflictPolicy: PolicyLastWriterWins,
		Backup: BackupConfig{
			Schedule: defaultBackupSchedule,
			Keep:     defaultBackupKeep,
		},
		LogLevel: defaultLogLevel,
	}
}

// Normalize repairs missing or invalid values so older or hand-edited files still work.
func (c *Config) Normalize() {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			c.Timezone = ""
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = defaultWeekStart
	}
	if c.IndicatorCap <= 0 {
		c.IndicatorCap = defaultIndicatorCap
	}
	switch strings.ToLower(strings.TrimSpace(c.ConflictPolicy)) {
	case PolicyReject:
		c.ConflictPolicy = PolicyReject
	default:
		c.ConflictPolicy = PolicyLastWriterWins
	}
	c.Backup.Schedule = strings.TrimSpace(c.Backup.Schedule)
	if c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			c.Backup.Schedule = defaultBackupSchedule
		}
	}
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = defaultBackupKeep
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	default:
		c.LogLevel = defaultLogLevel
	}
}

func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location returns the configured zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Path resolves the config file: explicit override, then EVENTCAL_CONFIG, then <dir>/config.yaml.
func Path(dir, override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTCAL_CONFIG")); v != "" {
		return v
	}
	return filepath.Join(dir, FileName)
}

// Load reads path, writing a default file on first run.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(path, data, 0o600)
}

// Keys lists the settable keys in file order.
func Keys() []string {
	return []string{"listen", "timezone", "week_start", "indicator_cap", "conflict_policy", "backup.schedule", "backup.keep", "log_level"}
}

// Get returns one field by its yaml key, formatted as `config set` accepts it.
func (c *Config) Get(key string) (string, error) {
	switch strings.TrimSpace(key) {
	case "listen":
		return c.Listen, nil
	case "timezone":
		return c.Timezone, nil
	case "week_start":
		return c.WeekStart, nil
	case "indicator_cap":
		return strconv.Itoa(c.IndicatorCap), nil
	case "conflict_policy":
		return c.ConflictPolicy, nil
	case "backup.schedule":
		return c.Backup.Schedule, nil
	case "backup.keep":
		return strconv.Itoa(c.Backup.Keep), nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", errors.New("unknown config key: " + key)
}

// Set updates one field by its yaml key (used by `eventcal config set`).
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "listen":
		c.Listen = value
	case "timezone":
		if value != "" {
			if _, err := time.LoadLocation(value); err != nil {
				return err
			}
		}
		c.Timezone = value
	case "week_start":
		v := strings.ToLower(value)
		if v != "sunday" && v != "monday" {
			return errors.New("week_start must be sunday or monday")
		}
		c.WeekStart = v
	case "indicator_cap":
		n, err := parsePositive(value)
		if err != nil {
			return err
		}
		c.IndicatorCap = n
	case "conflict_policy":
		if value != PolicyLastWriterWins && value != PolicyReject {
			return errors.New("conflict_policy must be last-writer-wins or reject")
		}
		c.ConflictPolicy = value
	case "backup.schedule":
		if value != "" {
			if _, err := cron.ParseStandard(value); err != nil {
				return err
			}
		}
		c.Backup.Schedule = value
	case "backup.keep":
		n, err := parsePositive(value)
		if err != nil {
			return err
		}
		c.Backup.Keep = n
	case "log_level":
		c.LogLevel = value
	default:
		return errors.New("unknown config key: " + key)
	}
	c.Normalize()
	return nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("expected a positive integer")
	}
	return n, nil
}
