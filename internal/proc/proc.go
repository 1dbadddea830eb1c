// Package proc builds external commands whose lifetime is bounded by a
// context, including any children they spawn.
package proc

import (
	"context"
	"os/exec"
	"time"
)

// WaitDelay bounds how long Wait keeps draining output after the context
// is done and the process group has been killed.
const WaitDelay = time.Second

// Command is exec.CommandContext with the process started in its own group.
// Cancelling ctx kills the whole group, and Wait gives up on inherited
// stdout/stderr pipes after WaitDelay.
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = WaitDelay
	killGroupOnCancel(cmd)
	return cmd
}
