package sysinfo

import (
	"time"

	"golang.org/x/sys/unix"
)

func collectPlatform(info *Info) {
	if release, err := unix.Sysctl("kern.osrelease"); err == nil {
		info.Kernel = release
	}
	if total, err := unix.SysctlUint64("hw.memsize"); err == nil {
		info.Memory.Total = total
	}
	if tv, err := unix.SysctlTimeval("kern.boottime"); err == nil {
		sec, nsec := tv.Unix()
		info.BootTime = time.Unix(sec, nsec)
	}

	var st unix.Statfs_t
	if err := unix.Statfs(info.DiskPath, &st); err == nil {
		bsize := uint64(st.Bsize)
		info.Disk = Usage{Total: st.Blocks * bsize, Available: st.Bavail * bsize}
	}
}
