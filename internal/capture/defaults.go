package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/timvw/hostshot/internal/model"
)

// Options configures DefaultRegistry.
type Options struct {
	Runner Runner
	// X11Display is exported as DISPLAY to X11 tools when the agent has none.
	X11Display string
	// WaylandDisplay is exported as WAYLAND_DISPLAY to Wayland tools when
	// the agent has none.
	WaylandDisplay string
	// ExtraX11Tools and ExtraWaylandTools are shell-quoted command lines
	// tried after the built-in tools. "{path}" marks where the output path
	// goes; without it the path is appended.
	ExtraX11Tools     []string
	ExtraWaylandTools []string
	// Getenv reads the agent environment; nil means os.Getenv.
	Getenv func(string) string
}

// DefaultRegistry registers the built-in methods in priority order:
// native OS capture, WSL host passthrough, X11 tools, Wayland tools, then
// the Windows to WSL bridge.
func DefaultRegistry(opts Options) (*Registry, error) {
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	x11Display := opts.X11Display
	if x11Display == "" {
		x11Display = ":0"
	}
	x11Env := defaultEnv(getenv, "DISPLAY", x11Display)
	waylandEnv := defaultEnv(getenv, "WAYLAND_DISPLAY", opts.WaylandDisplay)

	r := NewRegistry()

	r.Register(&toolMethod{
		name:    "screencapture",
		bin:     "screencapture",
		args:    []string{"-x", "-t", "png", pathPlaceholder},
		applies: func(c model.Classification) bool { return c.OS == "darwin" },
		runner:  runner,
	})
	r.Register(&windowsMethod{runner: runner})

	// Inside WSL the compatibility variant tries the host first, then the
	// Linux display tools.
	bothVariants := []model.Variant{model.VariantScreen, model.VariantCompat}
	r.Register(&hostPassthroughMethod{runner: runner}, bothVariants...)

	x11Tools := []*toolMethod{
		{name: "scrot", bin: "scrot", args: []string{"-o", pathPlaceholder}},
		{name: "gnome-screenshot", bin: "gnome-screenshot", args: []string{"-f", pathPlaceholder}},
		{name: "import", bin: "import", args: []string{"-window", "root", pathPlaceholder}},
	}
	for _, t := range x11Tools {
		t.env, t.applies, t.runner = x11Env, appliesX11, runner
		r.Register(t, bothVariants...)
	}
	r.Register(&xwdMethod{env: x11Env, runner: runner}, bothVariants...)
	extraX11, err := parseTools(opts.ExtraX11Tools, x11Env, appliesX11, runner)
	if err != nil {
		return nil, fmt.Errorf("extra x11 tools: %w", err)
	}
	for _, t := range extraX11 {
		r.Register(t, bothVariants...)
	}

	waylandTools := []*toolMethod{
		{name: "grim", bin: "grim", args: []string{pathPlaceholder}},
		{name: "spectacle", bin: "spectacle", args: []string{"-b", "-n", "-f", "-o", pathPlaceholder}},
	}
	for _, t := range waylandTools {
		t.env, t.applies, t.runner = waylandEnv, appliesWayland, runner
		r.Register(t, bothVariants...)
	}
	extraWayland, err := parseTools(opts.ExtraWaylandTools, waylandEnv, appliesWayland, runner)
	if err != nil {
		return nil, fmt.Errorf("extra wayland tools: %w", err)
	}
	for _, t := range extraWayland {
		r.Register(t, bothVariants...)
	}

	waylandDisplay := opts.WaylandDisplay
	if waylandDisplay == "" {
		waylandDisplay = "wayland-0"
	}
	r.Register(&wslBridgeMethod{
		tools:  bridgeTools(x11Display, waylandDisplay),
		runner: runner,
	}, model.VariantCompat)

	return r, nil
}

// defaultEnv returns key=fallback when the agent does not set key itself.
func defaultEnv(getenv func(string) string, key, fallback string) []string {
	if fallback == "" || getenv(key) != "" {
		return nil
	}
	return []string{key + "=" + fallback}
}

// parseTools turns configured command lines into tool methods.
func parseTools(lines []string, env []string, applies func(model.Classification) bool, runner Runner) ([]*toolMethod, error) {
	var out []*toolMethod
	for _, line := range lines {
		words, err := shellquote.Split(line)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", line, err)
		}
		if len(words) == 0 {
			continue
		}
		args := words[1:]
		if !slices.ContainsFunc(args, func(a string) bool { return strings.Contains(a, pathPlaceholder) }) {
			args = append(args, pathPlaceholder)
		}
		out = append(out, &toolMethod{
			name:    filepath.Base(words[0]),
			bin:     words[0],
			args:    args,
			env:     env,
			applies: applies,
			runner:  runner,
		})
	}
	return out, nil
}
