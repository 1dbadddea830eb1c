// Package mux reads state from terminal multiplexers (tmux, zellij). It is
// the source of the textual report sent when no screenshot can be taken.
package mux

import (
	"context"

	"github.com/timvw/hostshot/internal/model"
)

// Multiplexer abstracts terminal multiplexer operations.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux", "zellij").
	Name() string

	// ListPanes returns all panes, optionally filtered by a session name regex pattern.
	// An empty filter returns all panes.
	ListPanes(ctx context.Context, filter string) ([]model.Pane, error)

	// CapturePane captures the visible content of a pane.
	// The target format depends on the multiplexer (e.g., "session:window.pane" for tmux).
	CapturePane(ctx context.Context, target string) (string, error)
}
