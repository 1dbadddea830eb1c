//go:build !unix

package proc

import "os/exec"

// Without process groups only the direct child is killed; WaitDelay still
// stops Wait from blocking on orphaned pipes.
func killGroupOnCancel(*exec.Cmd) {}
