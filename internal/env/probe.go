// Package env classifies the host the agent runs on: operating system,
// whether it sits inside a Linux compatibility layer (WSL), and which
// display subsystem a capture tool could talk to.
package env

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/timvw/hostshot/internal/model"
)

// Probe classifies the current environment. Classify never fails; signals
// that cannot be read are treated as absent.
type Probe interface {
	Classify(ctx context.Context) model.Classification
}

// HostProbe reads the real host. Every input is a field so tests can
// substitute a fake host.
type HostProbe struct {
	GOOS     string
	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)
	Glob     func(string) ([]string, error)
	// KernelRelease returns the uname release string.
	KernelRelease func() (string, error)
	Logger        *slog.Logger
}

// NewHostProbe returns a probe wired to the running process.
func NewHostProbe() *HostProbe {
	return &HostProbe{
		GOOS:          runtime.GOOS,
		Getenv:        os.Getenv,
		ReadFile:      os.ReadFile,
		Glob:          filepath.Glob,
		KernelRelease: kernelRelease,
		Logger:        slog.Default(),
	}
}

// compatMarkers identify a WSL kernel in /proc/version or the uname release.
var compatMarkers = []string{"microsoft", "wsl"}

// Classify inspects the host and returns its classification.
func (p *HostProbe) Classify(ctx context.Context) model.Classification {
	c := model.Classification{
		OS:      p.GOOS,
		Context: model.Native,
		Display: model.DisplayNone,
	}
	if p.KernelRelease != nil {
		if rel, err := p.KernelRelease(); err == nil {
			c.KernelRelease = rel
		}
	}

	// macOS and Windows capture through their own facility.
	if c.OS == "darwin" || c.OS == "windows" {
		p.logger().DebugContext(ctx, "environment classified", "classification", c.String())
		return c
	}

	if p.inCompatibilityLayer(c.KernelRelease) {
		c.Context = model.CompatibilityLayer
	}
	c.Display, c.DisplayName = p.display()

	p.logger().DebugContext(ctx, "environment classified",
		"classification", c.String(),
		"kernel", c.KernelRelease,
		"display_name", c.DisplayName)
	return c
}

func (p *HostProbe) inCompatibilityLayer(release string) bool {
	if p.getenv("WSL_DISTRO_NAME") != "" || p.getenv("WSL_INTEROP") != "" {
		return true
	}
	if hasMarker(release) {
		return true
	}
	if p.ReadFile == nil {
		return false
	}
	data, err := p.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return hasMarker(string(data))
}

func hasMarker(s string) bool {
	s = strings.ToLower(s)
	for _, m := range compatMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// display resolves the display subsystem. Wayland wins when both Wayland and
// X11 variables are set (XWayland sessions export both).
func (p *HostProbe) display() (model.DisplaySubsystem, string) {
	wayland := p.getenv("WAYLAND_DISPLAY")
	x11 := p.getenv("DISPLAY")
	session := strings.ToLower(p.getenv("XDG_SESSION_TYPE"))

	switch {
	case wayland != "" || session == "wayland":
		return model.DisplayWayland, wayland
	case x11 != "" || session == "x11":
		return model.DisplayX11, x11
	}

	// No variables, but a display server may still be reachable through
	// its socket (services, cron, WSLg without an exported DISPLAY).
	patterns := []string{"/tmp/.X11-unix/X*", "/mnt/wslg/.X11-unix/X*"}
	if dir := p.getenv("XDG_RUNTIME_DIR"); dir != "" {
		patterns = append(patterns, filepath.Join(dir, "wayland-*"))
	}
	for _, pattern := range patterns {
		if p.exists(pattern) {
			return model.DisplayUnknown, ""
		}
	}
	return model.DisplayNone, ""
}

func (p *HostProbe) exists(pattern string) bool {
	if p.Glob == nil {
		return false
	}
	matches, err := p.Glob(pattern)
	return err == nil && len(matches) > 0
}

func (p *HostProbe) getenv(key string) string {
	if p.Getenv == nil {
		return ""
	}
	return p.Getenv(key)
}

func (p *HostProbe) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
