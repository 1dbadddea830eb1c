// Package sysinfo collects the host summary sent in reply to /status.
package sysinfo

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"
)

// Info is a point-in-time host summary. Zero values mean "unknown".
type Info struct {
	User       string
	Hostname   string
	OS         string
	Kernel     string
	Arch       string
	CPUs       int
	BootTime   time.Time
	Memory     Usage
	Disk       Usage
	DiskPath   string
	Interfaces []Interface
	Collected  time.Time
}

// Usage is a capacity figure in bytes.
type Usage struct {
	Total     uint64
	Available uint64
}

// Used returns Total minus Available.
func (u Usage) Used() uint64 {
	if u.Available > u.Total {
		return 0
	}
	return u.Total - u.Available
}

// Percent returns the used share in percent, or -1 when unknown.
func (u Usage) Percent() float64 {
	if u.Total == 0 {
		return -1
	}
	return float64(u.Used()) / float64(u.Total) * 100
}

// Interface is an active, non-loopback network interface.
type Interface struct {
	Name  string
	Kind  string // WiFi, Ethernet, Mobile, Other
	Addrs []string
}

// Collect gathers what the platform exposes; missing pieces stay zero.
func Collect() Info {
	info := Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		DiskPath:  rootPath(),
		Collected: time.Now(),
	}
	if u, err := user.Current(); err == nil {
		info.User = u.Username
	} else {
		info.User = os.Getenv("USER")
	}
	info.Hostname, _ = os.Hostname()
	collectPlatform(&info)
	info.Interfaces = interfaces()
	return info
}

func interfaces() []Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var out []Interface
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		entry := Interface{Name: ifc.Name, Kind: interfaceKind(ifc.Name)}
		for _, a := range addrs {
			entry.Addrs = append(entry.Addrs, a.String())
		}
		if len(entry.Addrs) > 0 {
			out = append(out, entry)
		}
	}
	return out
}

// interfaceKind guesses the link type from common interface naming schemes.
func interfaceKind(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "wlan"), strings.Contains(n, "wifi"), strings.Contains(n, "wireless"), strings.HasPrefix(n, "wl"):
		return "WiFi"
	case strings.HasPrefix(n, "eth"), strings.HasPrefix(n, "enp"), strings.HasPrefix(n, "eno"),
		strings.HasPrefix(n, "ens"), strings.Contains(n, "ethernet"):
		return "Ethernet"
	case strings.HasPrefix(n, "ppp"), strings.HasPrefix(n, "wwan"), strings.Contains(n, "mobile"):
		return "Mobile"
	default:
		return "Other"
	}
}

// Report renders info as the /status message.
func Report(info Info) string {
	var b strings.Builder
	b.WriteString("🖥️ SYSTEM STATUS\n")
	b.WriteString(strings.Repeat("=", 30) + "\n\n")

	b.WriteString("📋 General:\n")
	fmt.Fprintf(&b, "👤 User: %s\n", orNA(info.User))
	fmt.Fprintf(&b, "🏠 Hostname: %s\n", orNA(info.Hostname))
	osLine := info.OS
	if info.Kernel != "" {
		osLine += " " + info.Kernel
	}
	fmt.Fprintf(&b, "💻 OS: %s\n", orNA(osLine))
	fmt.Fprintf(&b, "🏗️ Architecture: %s\n", orNA(info.Arch))
	if info.BootTime.IsZero() {
		b.WriteString("🔄 Last boot: N/A\n")
	} else {
		up := info.Collected.Sub(info.BootTime).Truncate(time.Minute)
		fmt.Fprintf(&b, "🔄 Last boot: %s (up %s)\n", info.BootTime.Format(time.DateTime), up)
	}
	fmt.Fprintf(&b, "⚡ CPUs: %d\n\n", info.CPUs)

	b.WriteString("🧠 Memory:\n")
	writeUsage(&b, info.Memory, "Available")
	b.WriteString("\n💿 Disk")
	if info.DiskPath != "" {
		fmt.Fprintf(&b, " (%s)", info.DiskPath)
	}
	b.WriteString(":\n")
	writeUsage(&b, info.Disk, "Free")

	b.WriteString("\n🌐 Networks:\n")
	if len(info.Interfaces) == 0 {
		b.WriteString("❌ No active network interface found\n")
	}
	for _, ifc := range info.Interfaces {
		fmt.Fprintf(&b, "📶 %s (%s):\n", ifc.Kind, ifc.Name)
		for _, a := range ifc.Addrs {
			fmt.Fprintf(&b, "   📍 %s\n", a)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeUsage(b *strings.Builder, u Usage, freeLabel string) {
	if u.Total == 0 {
		b.WriteString("💾 Total: N/A\n")
		return
	}
	fmt.Fprintf(b, "💾 Total: %s\n", FormatBytes(u.Total))
	if u.Available == 0 {
		return
	}
	fmt.Fprintf(b, "📊 Used: %s (%.1f%%)\n", FormatBytes(u.Used()), u.Percent())
	fmt.Fprintf(b, "🆓 %s: %s\n", freeLabel, FormatBytes(u.Available))
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func rootPath() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}
