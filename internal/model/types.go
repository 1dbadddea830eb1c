// Package model holds the values passed between the probe, the capture
// chain, the multiplexer fallback and the command router.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ExecutionContext tells whether the agent runs directly on the host OS or
// inside a Linux compatibility layer hosted by another OS (WSL).
type ExecutionContext int

const (
	Native ExecutionContext = iota
	CompatibilityLayer
)

func (c ExecutionContext) String() string {
	switch c {
	case CompatibilityLayer:
		return "compatibility-layer"
	default:
		return "native"
	}
}

// MarshalText renders the context by name in JSON output.
func (c ExecutionContext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// DisplaySubsystem is the graphical session type visible to the agent.
type DisplaySubsystem int

const (
	DisplayNone DisplaySubsystem = iota
	DisplayX11
	DisplayWayland
	// DisplayUnknown means signals of a display exist but the session type
	// could not be determined. Both X11 and Wayland tools are tried.
	DisplayUnknown
)

func (d DisplaySubsystem) String() string {
	switch d {
	case DisplayX11:
		return "x11"
	case DisplayWayland:
		return "wayland"
	case DisplayUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// MarshalText renders the display subsystem by name in JSON output.
func (d DisplaySubsystem) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Classification is the result of probing the host environment.
// It is computed once per request and never mutated afterwards.
type Classification struct {
	// OS is the runtime.GOOS value of the agent process (e.g., "linux").
	OS string `json:"os"`
	// Context is Native or CompatibilityLayer.
	Context ExecutionContext `json:"context"`
	// Display is the detected display subsystem.
	Display DisplaySubsystem `json:"display"`
	// DisplayName is the value of $WAYLAND_DISPLAY or $DISPLAY, if any.
	DisplayName string `json:"display_name,omitempty"`
	// KernelRelease is the uname release string, empty when unavailable.
	KernelRelease string `json:"kernel_release,omitempty"`
}

func (c Classification) String() string {
	return fmt.Sprintf("os=%s context=%s display=%s", c.OS, c.Context, c.Display)
}

// Variant selects which capture methods a request is allowed to use.
type Variant int

const (
	// VariantScreen tries the full capture chain.
	VariantScreen Variant = iota
	// VariantCompat targets the compatibility layer: inside WSL the host
	// passthrough and then the Linux display tools, on Windows the WSL bridge.
	// Native-only methods (screencapture, powershell) are excluded.
	VariantCompat
)

func (v Variant) String() string {
	if v == VariantCompat {
		return "compat"
	}
	return "screen"
}

// Pane represents a terminal multiplexer pane.
type Pane struct {
	// Target is the fully qualified pane identifier (e.g., "session:0.0").
	Target string `json:"target"`
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index.
	Window int `json:"window"`
	// Pane is the pane index.
	Pane int `json:"pane"`
	// PID is the pane's shell process ID.
	PID int `json:"pid"`
	// Command is the current command running in the pane (e.g., "node", "bash").
	Command string `json:"command"`
	// Active is true for the focused pane of the focused window, or the
	// current session for multiplexers that only expose sessions.
	Active bool `json:"active"`
}

// PaneExcerpt is the tail of one pane's visible content.
type PaneExcerpt struct {
	Pane  Pane     `json:"pane"`
	Lines []string `json:"lines,omitempty"`
	// Error is set when the pane was listed but could not be captured.
	Error string `json:"error,omitempty"`
}

// FallbackReport is the textual substitute for a screenshot, built from
// terminal multiplexer state.
type FallbackReport struct {
	Multiplexer string        `json:"multiplexer"`
	Sessions    []string      `json:"sessions"`
	Excerpts    []PaneExcerpt `json:"excerpts"`
	CapturedAt  time.Time     `json:"captured_at"`
}

// Text renders the report as a user-facing message of at most maxChars
// characters. A maxChars of 0 or less disables truncation.
func (r *FallbackReport) Text(maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Screen capture failed, but here is what %s shows.\n\n", r.Multiplexer)
	fmt.Fprintf(&b, "🖥 Sessions: %s\n", strings.Join(r.Sessions, ", "))
	for _, e := range r.Excerpts {
		label := e.Pane.Target
		if e.Pane.Command != "" {
			label = fmt.Sprintf("%s (%s)", label, e.Pane.Command)
		}
		if e.Pane.Active {
			label += " *"
		}
		fmt.Fprintf(&b, "\n▶ %s\n", label)
		if e.Error != "" {
			fmt.Fprintf(&b, "(capture failed: %s)\n", e.Error)
			continue
		}
		if len(e.Lines) == 0 {
			b.WriteString("(empty)\n")
			continue
		}
		for _, l := range e.Lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return Truncate(strings.TrimRight(b.String(), "\n"), maxChars)
}

// DeliveryKind is what the router should send back to the requester.
type DeliveryKind int

const (
	SendText DeliveryKind = iota
	SendPhoto
	SendDocument
)

func (k DeliveryKind) String() string {
	switch k {
	case SendPhoto:
		return "photo"
	case SendDocument:
		return "document"
	default:
		return "text"
	}
}

// DeliveryAction is the outcome of handling a request. It is the only value
// handed back to the messaging layer.
type DeliveryAction struct {
	Kind   DeliveryKind
	ChatID int64
	// Text is the message body for SendText.
	Text string
	// Caption accompanies SendPhoto and SendDocument.
	Caption     string
	Filename    string
	ContentType string
	Data        []byte
}

// TextAction builds a SendText action.
func TextAction(chatID int64, text string) DeliveryAction {
	return DeliveryAction{Kind: SendText, ChatID: chatID, Text: text}
}

const truncationMarker = "\n…"

// Truncate shortens s to at most limit runes, marking the cut.
// A limit of 0 or less returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(truncationMarker)
	if keep <= 0 {
		return string([]rune(s)[:limit])
	}
	return string([]rune(s)[:keep]) + truncationMarker
}
