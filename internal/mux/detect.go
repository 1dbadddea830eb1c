package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNotDetected is returned when no multiplexer is running.
var ErrNotDetected = errors.New("no supported terminal multiplexer detected")

// Detector finds the active terminal multiplexer. Zero fields fall back to
// the process environment and real commands.
type Detector struct {
	Getenv   func(string) string
	LookPath func(string) (string, error)
	// Run executes a multiplexer command and returns its stdout.
	Run func(ctx context.Context, bin string, args ...string) (string, error)
}

// Detect auto-detects the active terminal multiplexer using the process
// environment and installed binaries.
func Detect(ctx context.Context) (Multiplexer, error) {
	return (&Detector{}).Detect(ctx)
}

// Detect checks $TMUX and $ZELLIJ first, then whether a tmux server or a
// live zellij session is running.
func (d *Detector) Detect(ctx context.Context) (Multiplexer, error) {
	getenv, lookPath, run := d.Getenv, d.LookPath, d.Run
	if getenv == nil {
		getenv = os.Getenv
	}
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if run == nil {
		run = runMux
	}

	if getenv("TMUX") != "" {
		return NewTmux(), nil
	}
	if getenv("ZELLIJ") != "" {
		return NewZellij(), nil
	}

	if _, err := lookPath("tmux"); err == nil {
		if _, err := run(ctx, "tmux", "list-sessions"); err == nil {
			return NewTmux(), nil
		}
	}
	if _, err := lookPath("zellij"); err == nil {
		out, err := run(ctx, "zellij", "list-sessions", "--no-formatting")
		if err == nil && len(parseSessionList(out)) > 0 {
			return NewZellij(), nil
		}
	}

	return nil, ErrNotDetected
}

// FromName creates a Multiplexer by name.
func FromName(name string) (Multiplexer, error) {
	switch strings.ToLower(name) {
	case "tmux":
		return NewTmux(), nil
	case "zellij":
		return NewZellij(), nil
	default:
		return nil, fmt.Errorf("unknown multiplexer: %q (supported: tmux, zellij)", name)
	}
}
