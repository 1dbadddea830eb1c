//go:build !linux && !darwin

package sysinfo

// collectPlatform leaves kernel, memory, boot time and disk unknown.
func collectPlatform(*Info) {}
