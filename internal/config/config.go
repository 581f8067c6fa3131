package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Listen     string  `yaml:"listen"`
	DBPath     string  `yaml:"database"`
	BasePath   string  `yaml:"base_path"`
	PidFile    string  `yaml:"pid_file"`
	LogFile    string  `yaml:"log_file"`
	StorageKey string  `yaml:"storage_key"`
	DragDist   float64 `yaml:"drag_distance"`

	// Keep the layout in memory only (no database).
	Ephemeral bool `yaml:"ephemeral"`

	// Parsed from command line (not YAML)
	ConfigPath string `yaml:"-"`
	Verbose    bool   `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:     "127.0.0.1:9924",
		DBPath:     "khlan.db",
		BasePath:   "/",
		PidFile:    "khlan.pid",
		LogFile:    "khlan.log",
		StorageKey: "khlan-widget-order",
		DragDist:   5,
		ConfigPath: "config.yaml",
	}
}

// RegisterFlags adds the command line flags that override file and
// environment settings.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("config", d.ConfigPath, "Path to config.yaml")
	fs.String("listen", d.Listen, "HTTP listen address (host:port)")
	fs.String("db", d.DBPath, "SQLite database path")
	fs.String("base-path", d.BasePath, "Base URL path for reverse proxy")
	fs.String("pid-file", d.PidFile, "PID file path")
	fs.String("log-file", d.LogFile, "Log file path")
	fs.String("storage-key", d.StorageKey, "Storage key for the widget layout")
	fs.Float64("drag-distance", d.DragDist, "Pointer travel in px before a press becomes a drag")
	fs.Bool("ephemeral", false, "Keep the layout in memory only")
	fs.BoolP("verbose", "v", false, "Enable debug logging")
}

// Load reads configuration with priority: defaults < config.yaml < env vars < flags.
// Only flags the user set explicitly override earlier layers. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	// 1) Which file to read
	if fs != nil {
		if v, err := fs.GetString("config"); err == nil && v != "" {
			cfg.ConfigPath = v
		}
	}
	if v := os.Getenv("KHLAN_CONFIG"); v != "" && (fs == nil || !fs.Changed("config")) {
		cfg.ConfigPath = v
	}

	// 2) YAML config file; a missing file is not an error
	data, err := os.ReadFile(cfg.ConfigPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.ConfigPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", cfg.ConfigPath, err)
	}

	// 3) Environment variables override YAML
	if v := os.Getenv("KHLAN_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("KHLAN_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("KHLAN_BASE_PATH"); v != "" {
		cfg.BasePath = v
	}
	if v := os.Getenv("KHLAN_STORAGE_KEY"); v != "" {
		cfg.StorageKey = v
	}
	if v := os.Getenv("KHLAN_DRAG_DISTANCE"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("KHLAN_DRAG_DISTANCE: %w", err)
		}
		cfg.DragDist = n
	}

	// 4) Flags override everything
	if fs != nil {
		applyFlags(fs, cfg)
	}

	cfg.BasePath = normalizeBasePath(cfg.BasePath)
	if cfg.StorageKey == "" {
		return nil, errors.New("storage_key must not be empty")
	}
	if cfg.DragDist < 0 {
		return nil, fmt.Errorf("drag_distance must be >= 0, got %v", cfg.DragDist)
	}
	return cfg, nil
}

func applyFlags(fs *pflag.FlagSet, cfg *Config) {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	str("listen", &cfg.Listen)
	str("db", &cfg.DBPath)
	str("base-path", &cfg.BasePath)
	str("pid-file", &cfg.PidFile)
	str("log-file", &cfg.LogFile)
	str("storage-key", &cfg.StorageKey)
	if fs.Changed("drag-distance") {
		cfg.DragDist, _ = fs.GetFloat64("drag-distance")
	}
	if fs.Changed("ephemeral") {
		cfg.Ephemeral, _ = fs.GetBool("ephemeral")
	}
	if fs.Lookup("verbose") != nil {
		cfg.Verbose, _ = fs.GetBool("verbose")
	}
}

// normalizeBasePath ensures the base path starts with "/" and has no trailing "/".
// Returns "/" for empty or root paths.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	return p
}
