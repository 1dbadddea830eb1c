package mux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/timvw/hostshot/internal/model"
)

// Zellij implements the Multiplexer interface for zellij. Zellij exposes no
// per-pane listing on the command line, so each live session is reported as
// a single pane whose target is the session name.
type Zellij struct {
	// TempDir receives dump-screen files; empty means os.TempDir().
	TempDir string
}

// NewZellij creates a new zellij multiplexer.
func NewZellij() *Zellij {
	return &Zellij{}
}

// Name returns "zellij".
func (z *Zellij) Name() string {
	return "zellij"
}

// ListPanes returns one pane per live zellij session.
func (z *Zellij) ListPanes(ctx context.Context, filter string) ([]model.Pane, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		re, err = regexp.Compile(filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	out, err := runMux(ctx, "zellij", "list-sessions", "--no-formatting")
	if err != nil {
		return nil, fmt.Errorf("zellij list-sessions: %w", err)
	}

	var panes []model.Pane
	for _, p := range parseSessionList(out) {
		if re != nil && !re.MatchString(p.Session) {
			continue
		}
		panes = append(panes, p)
	}
	return panes, nil
}

// parseSessionList parses `zellij list-sessions --no-formatting` output:
//
//	main [Created 2h ago] (current)
//	old [Created 3days ago] (EXITED - attach to resurrect)
//
// Exited sessions are skipped.
func parseSessionList(out string) []model.Pane {
	var panes []model.Pane
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "EXITED") || strings.HasPrefix(line, "No active") {
			continue
		}
		name, _, _ := strings.Cut(line, " ")
		panes = append(panes, model.Pane{
			Target:  name,
			Session: name,
			Command: "zellij",
			Active:  strings.Contains(line, "(current)"),
		})
	}
	return panes
}

// CapturePane dumps the focused pane of a session. When dump-screen fails
// (it needs an attached client) the session layout is returned instead.
func (z *Zellij) CapturePane(ctx context.Context, target string) (string, error) {
	dir := z.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "hostshot-dump-"+uuid.NewString()+".txt")
	defer os.Remove(path)

	_, dumpErr := runMux(ctx, "zellij", "--session", target, "action", "dump-screen", path)
	if dumpErr == nil {
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	layout, err := runMux(ctx, "zellij", "--session", target, "action", "dump-layout")
	if err != nil {
		return "", fmt.Errorf("zellij dump-screen %s: %v; dump-layout: %w", target, dumpErr, err)
	}
	return layout, nil
}
