package sysinfo

import (
	"time"

	"golang.org/x/sys/unix"
)

func collectPlatform(info *Info) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.Kernel = unix.ByteSliceToString(uts.Release[:])
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		unit := uint64(si.Unit)
		if unit == 0 {
			unit = 1
		}
		info.Memory = Usage{
			Total:     uint64(si.Totalram) * unit,
			Available: (uint64(si.Freeram) + uint64(si.Bufferram)) * unit,
		}
		info.BootTime = info.Collected.Add(-time.Duration(si.Uptime) * time.Second).Truncate(time.Second)
	}

	info.Disk = statDisk(info.DiskPath)
}

func statDisk(path string) Usage {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}
	}
	bsize := uint64(st.Bsize)
	return Usage{Total: st.Blocks * bsize, Available: st.Bavail * bsize}
}
