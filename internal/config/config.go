// Package config loads <root>/config.yaml, the per-installation settings
// for the tickets CLI: which storage backend to use, the bundled CSV files
// read on first run, display and logging options.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/ticket-tracker/internal/fsutil"
)

const (
	FileName      = "config.yaml"
	CurrentSchema = 1

	EnvRoot     = "TICKETS_ROOT"
	EnvLogLevel = "TICKETS_LOG_LEVEL"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Schema   int     `yaml:"schema"`
	Storage  Storage `yaml:"storage"`
	Bundled  Bundled `yaml:"bundled"`
	Display  Display `yaml:"display"`
	Log      Log     `yaml:"log"`
	Timezone string  `yaml:"timezone"`
}

type Storage struct {
	Backend string `yaml:"backend"` // file|sqlite|memory
	// Path is a directory for file, a database file for sqlite. Relative
	// paths are resolved against the root. Empty picks a default.
	Path string `yaml:"path"`
	// QuotaBytes caps stored data. Zero means unlimited.
	QuotaBytes int64 `yaml:"quota_bytes,omitempty"`
}

// Bundled names the CSV files read when storage holds nothing yet.
type Bundled struct {
	TasksCSV    string `yaml:"tasks_csv"`
	SettingsCSV string `yaml:"settings_csv"`
}

type Display struct {
	PageSize int    `yaml:"page_size"`
	Color    string `yaml:"color"` // auto|always|never
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

func Default() Config {
	return Config{
		Schema:   CurrentSchema,
		Storage:  Storage{Backend: BackendFile},
		Display:  Display{PageSize: 20, Color: ColorAuto},
		Log:      Log{Level: "info", Format: "text"},
		Timezone: "Local",
	}
}

// DefaultRoot is $TICKETS_ROOT, else ~/.tickets.
func DefaultRoot() string {
	if env := os.Getenv(EnvRoot); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	if home != "" {
		return filepath.Join(home, ".tickets")
	}
	return ".tickets"
}

func Path(root string) string {
	return filepath.Join(fsutil.ExpandHome(root), FileName)
}

// Load reads the config under root. A missing file yields Default with
// exists=false. Fields left out of the file keep their defaults.
func Load(root string) (cfg Config, exists bool, err error) {
	cfg = Default()
	b, err := os.ReadFile(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg.withEnv(), false, nil
	}
	if err != nil {
		return cfg, false, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, true, fmt.Errorf("%w: %s: %v", ErrInvalid, Path(root), err)
	}
	cfg = cfg.withEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, true, err
	}
	return cfg, true, nil
}

func (c Config) withEnv() Config {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Log.Level = lvl
	}
	return c
}

// Save writes cfg to <root>/config.yaml, creating root if needed.
func Save(root string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(Path(root), b, 0o644)
}

func (c Config) Validate() error {
	if c.Schema != CurrentSchema {
		return fmt.Errorf("%w: unsupported schema %d", ErrInvalid, c.Schema)
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("%w: storage.backend %q (want file|sqlite|memory)", ErrInvalid, c.Storage.Backend)
	}
	if c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("%w: storage.quota_bytes must not be negative", ErrInvalid)
	}
	switch c.Display.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: display.color %q (want auto|always|never)", ErrInvalid, c.Display.Color)
	}
	if c.Display.PageSize < 0 {
		return fmt.Errorf("%w: display.page_size must not be negative", ErrInvalid)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text|json)", ErrInvalid, c.Log.Format)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return lvl, nil
}

// Location resolves the timezone used to read and print DD/MM/YYYY times.
func (c Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	return loc, nil
}

// StoragePath is the resolved location of the backend's data.
func (c Config) StoragePath(root string) string {
	p := c.Storage.Path
	if p == "" {
		switch c.Storage.Backend {
		case BackendSQLite:
			p = "tickets.db"
		default:
			p = "data"
		}
	}
	return resolve(root, p)
}

// BundledTasks and BundledSettings return resolved paths, or "".
func (c Config) BundledTasks(root string) string { return resolve(root, c.Bundled.TasksCSV) }

func (c Config) BundledSettings(root string) string { return resolve(root, c.Bundled.SettingsCSV) }

func resolve(root, p string) string {
	if p == "" {
		return ""
	}
	p = fsutil.ExpandHome(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(fsutil.ExpandHome(root), p)
}
