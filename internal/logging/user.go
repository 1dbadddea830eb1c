package logging

import (
	"fmt"
	"io"
	"os"
)

// Printer writes user-facing messages with styled status indicators.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Styles Styles
}

// NewPrinter returns a Printer on stdout/stderr with the dark theme.
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, Styles: NewStyles(DarkTheme())}
}

var std = NewPrinter()

// Info prints an info message to Out.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Styles.Info.Render("ℹ"), fmt.Sprintf(format, args...))
}

// Success prints a success message to Out.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.Out, "%s %s\n", p.Styles.Good.Render("✓"), fmt.Sprintf(format, args...))
}

// Warning prints a warning message to Err.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintf(p.Err, "%s %s\n", p.Styles.Warn.Render("⚠"), fmt.Sprintf(format, args...))
}

// Error prints an error message to Err.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.Err, "%s %s\n", p.Styles.Bad.Render("✗"), fmt.Sprintf(format, args...))
}

// UserInfo prints an info message to stdout.
func UserInfo(format string, args ...any) { std.Info(format, args...) }

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...any) { std.Success(format, args...) }

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...any) { std.Warning(format, args...) }

// UserError prints an error message to stderr.
func UserError(format string, args ...any) { std.Error(format, args...) }
