// Package logging configures the agent's structured logger and provides
// user-facing output helpers for the CLI.
//
// Structured logs go through log/slog. Setup installs the configured handler
// as slog.Default, so components that hold no logger of their own share it.
//
// User output is written with a status indicator:
//   - ℹ (info) and ✓ (success) to stdout
//   - ⚠ (warning) and ✗ (error) to stderr
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", name)
	}
}

// Setup builds a logger at the given level, text or JSON, writing to w
// (stderr when nil), and installs it as the slog default.
func Setup(level slog.Level, jsonOutput bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var logger *slog.Logger
	if jsonOutput {
		logger = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(w, opts))
	}
	slog.SetDefault(logger)
	return logger
}
