package proc

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestCommandKillsChildrenOnDeadline(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// The shell forks sleep, which inherits stdout and outlives a plain kill.
	cmd := Command(ctx, "sh", "-c", "sleep 4; true")
	start := time.Now()
	_, err := cmd.Output()
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Output() succeeded, want a deadline failure")
	}
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Errorf("ctx.Err() = %v", ctx.Err())
	}
	if elapsed > 300*time.Millisecond+WaitDelay+time.Second {
		t.Errorf("Output() returned after %v, want shortly after the deadline", elapsed)
	}
}

func TestCommandRunsToCompletion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	out, err := Command(context.Background(), "sh", "-c", "echo ok").Output()
	if err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if string(out) != "ok\n" {
		t.Errorf("Output() = %q", out)
	}
}
