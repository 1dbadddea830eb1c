package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/timvw/hostshot/internal/proc"
)

// maxStderr caps how much tool stderr is carried into error messages.
const maxStderr = 4096

// RunOpts tunes a single process invocation.
type RunOpts struct {
	// Env is appended to the agent's own environment.
	Env   []string
	Stdin io.Reader
}

// Runner starts external programs. Tests replace it with a fake.
type Runner interface {
	// Run executes name with args and returns its stdout. A non-zero exit
	// is an error carrying the (capped) stderr.
	Run(ctx context.Context, name string, args []string, opts RunOpts) ([]byte, error)
	// LookPath reports where name is installed.
	LookPath(name string) (string, error)
}

// ExecRunner runs programs with os/exec. A deadline on ctx kills the tool
// together with any children it started.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) ([]byte, error) {
	cmd := proc.Command(ctx, name, args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.Stdin = opts.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with code %d: %s", name, exitErr.ExitCode(), capStderr(stderr.String()))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// LookPath implements Runner.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func capStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "... (truncated)"
	}
	if s == "" {
		return "(no stderr)"
	}
	return s
}
