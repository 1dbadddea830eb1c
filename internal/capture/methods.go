package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/timvw/hostshot/internal/model"
)

// pathPlaceholder is replaced by the artifact path in tool arguments.
const pathPlaceholder = "{path}"

func expandArgs(args []string, path string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, pathPlaceholder, path)
	}
	return out
}

func isDesktopOS(c model.Classification) bool {
	return c.OS == "darwin" || c.OS == "windows"
}

func appliesX11(c model.Classification) bool {
	return !isDesktopOS(c) && (c.Display == model.DisplayX11 || c.Display == model.DisplayUnknown)
}

func appliesWayland(c model.Classification) bool {
	return !isDesktopOS(c) && (c.Display == model.DisplayWayland || c.Display == model.DisplayUnknown)
}

// toolMethod runs a single program that writes the screen to a path given
// on its command line.
type toolMethod struct {
	name    string
	bin     string
	args    []string
	env     []string
	applies func(model.Classification) bool
	runner  Runner
}

func (t *toolMethod) Name() string { return t.name }

func (t *toolMethod) AppliesTo(c model.Classification) bool { return t.applies(c) }

func (t *toolMethod) Available(ctx context.Context) bool {
	_, err := t.runner.LookPath(t.bin)
	return err == nil
}

func (t *toolMethod) Capture(ctx context.Context, a *Artifact) error {
	if _, err := t.runner.Run(ctx, t.bin, expandArgs(t.args, a.Path), RunOpts{Env: t.env}); err != nil {
		return &CaptureError{Method: t.name, Reason: "command failed", Err: err}
	}
	return verifyOutput(t.name, a.Path)
}

// xwdMethod dumps the root window with xwd and converts it to PNG with
// ImageMagick. The dump is piped through memory, never written to disk.
type xwdMethod struct {
	env    []string
	runner Runner
}

func (x *xwdMethod) Name() string { return "xwd" }

func (x *xwdMethod) AppliesTo(c model.Classification) bool { return appliesX11(c) }

func (x *xwdMethod) Available(ctx context.Context) bool {
	for _, bin := range []string{"xwd", "convert"} {
		if _, err := x.runner.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

func (x *xwdMethod) Capture(ctx context.Context, a *Artifact) error {
	dump, err := x.runner.Run(ctx, "xwd", []string{"-root", "-silent"}, RunOpts{Env: x.env})
	if err != nil {
		return &CaptureError{Method: x.Name(), Reason: "xwd failed", Err: err}
	}
	if len(dump) == 0 {
		return &CaptureError{Method: x.Name(), Reason: "xwd produced no data"}
	}
	_, err = x.runner.Run(ctx, "convert", []string{"xwd:-", "png:" + a.Path}, RunOpts{Stdin: bytes.NewReader(dump)})
	if err != nil {
		return &CaptureError{Method: x.Name(), Reason: "convert failed", Err: err}
	}
	return verifyOutput(x.Name(), a.Path)
}

// psQuote quotes s as a single-quoted PowerShell string literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// powerShellCaptureScript copies the primary screen into a PNG at winPath.
func powerShellCaptureScript(winPath string) string {
	return strings.Join([]string{
		"$ErrorActionPreference = 'Stop'",
		"Add-Type -AssemblyName System.Windows.Forms",
		"Add-Type -AssemblyName System.Drawing",
		"$bounds = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds",
		"$bitmap = New-Object System.Drawing.Bitmap $bounds.Width, $bounds.Height",
		"$graphics = [System.Drawing.Graphics]::FromImage($bitmap)",
		"$graphics.CopyFromScreen($bounds.Location, [System.Drawing.Point]::Empty, $bounds.Size)",
		fmt.Sprintf("$bitmap.Save(%s, [System.Drawing.Imaging.ImageFormat]::Png)", psQuote(winPath)),
		"$graphics.Dispose()",
		"$bitmap.Dispose()",
	}, "; ")
}

func powerShellArgs(script string) []string {
	return []string{"-NoProfile", "-NonInteractive", "-Command", script}
}

// windowsMethod captures the desktop of a native Windows agent.
type windowsMethod struct {
	runner Runner
}

func (w *windowsMethod) Name() string { return "powershell" }

func (w *windowsMethod) AppliesTo(c model.Classification) bool {
	return c.OS == "windows" && c.Context == model.Native
}

func (w *windowsMethod) Available(ctx context.Context) bool {
	_, err := w.runner.LookPath("powershell")
	return err == nil
}

func (w *windowsMethod) Capture(ctx context.Context, a *Artifact) error {
	if _, err := w.runner.Run(ctx, "powershell", powerShellArgs(powerShellCaptureScript(a.Path)), RunOpts{}); err != nil {
		return &CaptureError{Method: w.Name(), Reason: "command failed", Err: err}
	}
	return verifyOutput(w.Name(), a.Path)
}

// hostPassthroughMethod captures the Windows host screen from inside WSL.
// The artifact path is translated with wslpath so PowerShell on the host
// writes straight into the Linux file system.
type hostPassthroughMethod struct {
	runner Runner
}

func (h *hostPassthroughMethod) Name() string { return "wsl-host" }

func (h *hostPassthroughMethod) AppliesTo(c model.Classification) bool {
	return c.Context == model.CompatibilityLayer
}

func (h *hostPassthroughMethod) Available(ctx context.Context) bool {
	for _, bin := range []string{"wslpath", "powershell.exe"} {
		if _, err := h.runner.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

func (h *hostPassthroughMethod) Capture(ctx context.Context, a *Artifact) error {
	out, err := h.runner.Run(ctx, "wslpath", []string{"-w", a.Path}, RunOpts{})
	if err != nil {
		return &CaptureError{Method: h.Name(), Reason: "path translation failed", Err: err}
	}
	winPath := strings.TrimSpace(string(out))
	if winPath == "" {
		return &CaptureError{Method: h.Name(), Reason: "wslpath returned an empty path"}
	}
	if _, err := h.runner.Run(ctx, "powershell.exe", powerShellArgs(powerShellCaptureScript(winPath)), RunOpts{}); err != nil {
		return &CaptureError{Method: h.Name(), Reason: "host capture failed", Err: err}
	}
	return verifyOutput(h.Name(), a.Path)
}

// bridgeTool is one command line run inside WSL by the bridge.
type bridgeTool struct {
	name string
	args []string // after "wsl -e"; pathPlaceholder marks the output path
}

// bridgeTools lists the Linux tools the bridge tries, X11 first.
func bridgeTools(x11Display, waylandDisplay string) []bridgeTool {
	x11 := []string{"env", "DISPLAY=" + x11Display}
	return []bridgeTool{
		{name: "scrot", args: append(slices.Clone(x11), "scrot", "-o", pathPlaceholder)},
		{name: "gnome-screenshot", args: append(slices.Clone(x11), "gnome-screenshot", "-f", pathPlaceholder)},
		{name: "import", args: append(slices.Clone(x11), "import", "-window", "root", pathPlaceholder)},
		{name: "grim", args: []string{"env", "WAYLAND_DISPLAY=" + waylandDisplay, "grim", pathPlaceholder}},
	}
}

// wslBridgeMethod runs Linux capture tools inside the default WSL
// distribution from a native Windows agent, writing through the
// /mnt/<drive> mount. Tools are tried in order until one leaves a usable
// image in the artifact.
type wslBridgeMethod struct {
	tools  []bridgeTool
	runner Runner
	// toLinux maps the artifact path to its WSL view; nil means mountPath.
	toLinux func(string) (string, error)
}

func (b *wslBridgeMethod) Name() string { return "wsl-bridge" }

func (b *wslBridgeMethod) AppliesTo(c model.Classification) bool {
	return c.OS == "windows" && c.Context == model.Native
}

func (b *wslBridgeMethod) Available(ctx context.Context) bool {
	_, err := b.runner.LookPath("wsl")
	return err == nil
}

func (b *wslBridgeMethod) Capture(ctx context.Context, a *Artifact) error {
	toLinux := b.toLinux
	if toLinux == nil {
		toLinux = mountPath
	}
	linuxPath, err := toLinux(a.Path)
	if err != nil {
		return &CaptureError{Method: b.Name(), Reason: "path translation failed", Err: err}
	}
	var errs []error
	for _, t := range b.tools {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		args := append([]string{"-e"}, expandArgs(t.args, linuxPath)...)
		if _, err := b.runner.Run(ctx, "wsl", args, RunOpts{}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
			os.Remove(a.Path)
			continue
		}
		if err := verifyOutput(b.Name(), a.Path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
			os.Remove(a.Path)
			continue
		}
		return nil
	}
	return &CaptureError{Method: b.Name(), Reason: "no tool inside WSL produced an image", Err: errors.Join(errs...)}
}

// mountPath maps a Windows drive path (C:\Temp\x.png) to its WSL mount
// (/mnt/c/Temp/x.png).
func mountPath(winPath string) (string, error) {
	if len(winPath) < 3 || winPath[1] != ':' || (winPath[2] != '\\' && winPath[2] != '/') {
		return "", fmt.Errorf("not a drive path: %q", winPath)
	}
	drive := strings.ToLower(winPath[:1])
	rest := strings.ReplaceAll(winPath[3:], `\`, "/")
	return "/mnt/" + drive + "/" + rest, nil
}
