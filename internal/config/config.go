// Package config loads hostshot configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (HOSTSHOT_*)
//  2. Config file
//  3. TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID
//  4. Built-in defaults
//
// Config file search order, unless a path is given explicitly:
//  1. .hostshot.yaml in current directory
//  2. ~/.config/hostshot/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all hostshot configuration.
type Config struct {
	// Messaging channel
	TelegramToken string  `yaml:"telegram_token"`
	AllowedChats  []int64 `yaml:"allowed_chats"`
	Workers       int     `yaml:"workers"` // Commands handled concurrently

	// Capture
	TempDir           string   `yaml:"temp_dir"`
	MethodTimeout     string   `yaml:"method_timeout"` // Go duration string, e.g. "10s"
	X11Display        string   `yaml:"x11_display"`
	WaylandDisplay    string   `yaml:"wayland_display"`
	ExtraX11Tools     []string `yaml:"extra_x11_tools"`
	ExtraWaylandTools []string `yaml:"extra_wayland_tools"`

	// Multiplexer fallback
	Multiplexer      string `yaml:"multiplexer"` // tmux, zellij; empty auto-detects
	FallbackMaxPanes int    `yaml:"fallback_max_panes"`
	FallbackLines    int    `yaml:"fallback_lines"`
	FallbackMaxChars int    `yaml:"fallback_max_chars"`

	// /logs command
	LogDirs  []string `yaml:"log_dirs"`
	LogLines int      `yaml:"log_lines"`

	// Agent logging
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	MethodTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Workers:          2,
		MethodTimeout:    "10s",
		X11Display:       ":0",
		WaylandDisplay:   "wayland-0",
		FallbackMaxPanes: 3,
		FallbackLines:    15,
		FallbackMaxChars: 3500,
		LogLines:         15,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads configuration from path (or the default search locations when
// path is empty) and environment variables. Environment variables always
// override file values.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		path, data, err = findConfigFile()
	}
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	cfg.MethodTimeoutDuration, err = parsePositiveDuration(cfg.MethodTimeout, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid method timeout %q: %w", cfg.MethodTimeout, err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q (supported: text, json)", cfg.LogFormat)
	}

	return cfg, nil
}

// ValidateBot checks the settings the bot cannot run without.
func (c *Config) ValidateBot() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("no bot token: set telegram_token, HOSTSHOT_TELEGRAM_TOKEN or TELEGRAM_BOT_TOKEN"))
	}
	if len(c.AllowedChats) == 0 {
		errs = append(errs, errors.New("no allowed chats: set allowed_chats, HOSTSHOT_ALLOWED_CHATS or TELEGRAM_CHAT_ID"))
	}
	return errors.Join(errs...)
}

// IsAllowedChat reports whether chatID may issue commands.
func (c *Config) IsAllowedChat(chatID int64) bool {
	for _, id := range c.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".hostshot.yaml"); err == nil {
		return ".hostshot.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "hostshot", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.TelegramToken != "" {
		cfg.TelegramToken = file.TelegramToken
	}
	if len(file.AllowedChats) > 0 {
		cfg.AllowedChats = file.AllowedChats
	}
	if file.Workers > 0 {
		cfg.Workers = file.Workers
	}
	if file.TempDir != "" {
		cfg.TempDir = file.TempDir
	}
	if file.MethodTimeout != "" {
		cfg.MethodTimeout = file.MethodTimeout
	}
	if file.X11Display != "" {
		cfg.X11Display = file.X11Display
	}
	if file.WaylandDisplay != "" {
		cfg.WaylandDisplay = file.WaylandDisplay
	}
	if len(file.ExtraX11Tools) > 0 {
		cfg.ExtraX11Tools = file.ExtraX11Tools
	}
	if len(file.ExtraWaylandTools) > 0 {
		cfg.ExtraWaylandTools = file.ExtraWaylandTools
	}
	if file.Multiplexer != "" {
		cfg.Multiplexer = file.Multiplexer
	}
	if file.FallbackMaxPanes > 0 {
		cfg.FallbackMaxPanes = file.FallbackMaxPanes
	}
	if file.FallbackLines > 0 {
		cfg.FallbackLines = file.FallbackLines
	}
	if file.FallbackMaxChars > 0 {
		cfg.FallbackMaxChars = file.FallbackMaxChars
	}
	if len(file.LogDirs) > 0 {
		cfg.LogDirs = file.LogDirs
	}
	if file.LogLines > 0 {
		cfg.LogLines = file.LogLines
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		cfg.LogFormat = file.LogFormat
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	if v := os.Getenv("HOSTSHOT_TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
	} else if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" && cfg.TelegramToken == "" {
		cfg.TelegramToken = v
	}

	chats := os.Getenv("HOSTSHOT_ALLOWED_CHATS")
	if chats == "" && len(cfg.AllowedChats) == 0 {
		chats = os.Getenv("TELEGRAM_CHAT_ID")
	}
	if chats != "" {
		ids, err := parseChatIDs(chats)
		if err != nil {
			return fmt.Errorf("invalid allowed chats %q: %w", chats, err)
		}
		cfg.AllowedChats = ids
	}

	if v := os.Getenv("HOSTSHOT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid HOSTSHOT_WORKERS %q", v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("HOSTSHOT_TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}
	if v := os.Getenv("HOSTSHOT_METHOD_TIMEOUT"); v != "" {
		cfg.MethodTimeout = v
	}
	if v := os.Getenv("HOSTSHOT_X11_DISPLAY"); v != "" {
		cfg.X11Display = v
	}
	if v := os.Getenv("HOSTSHOT_WAYLAND_DISPLAY"); v != "" {
		cfg.WaylandDisplay = v
	}
	if v := os.Getenv("HOSTSHOT_MULTIPLEXER"); v != "" {
		cfg.Multiplexer = v
	}
	if v := os.Getenv("HOSTSHOT_LOG_DIRS"); v != "" {
		cfg.LogDirs = filepath.SplitList(v)
	}
	if v := os.Getenv("HOSTSHOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HOSTSHOT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	return nil
}

// parseChatIDs parses a comma-separated list of numeric chat IDs.
func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePositiveDuration parses a duration string. Empty returns the
// fallback; zero or negative durations are rejected.
func parsePositiveDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}
