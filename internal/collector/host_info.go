package collector

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/nhdewitt/rabbit/internal/protocol"
	"github.com/shirou/gopsutil/v3/host"
)

// StaticInfo captures the host facts that are exported unchanged for the
// lifetime of the process. Fields gopsutil cannot provide fall back to
// /etc/os-release and uname.
func (h *Host) StaticInfo(ctx context.Context) protocol.StaticInfo {
	rel := h.osRelease()

	si := protocol.StaticInfo{
		Name:           rel.Name,
		OSVersion:      rel.VersionID,
		DistributionID: rel.ID,
		KernelVersion:  kernelRelease(),
		BootTime:       h.BootTime(ctx),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		if si.DistributionID == "" {
			si.DistributionID = info.Platform
		}
		if si.OSVersion == "" {
			si.OSVersion = info.PlatformVersion
		}
		if info.KernelVersion != "" {
			si.KernelVersion = info.KernelVersion
		}
		si.Hostname = info.Hostname
		if si.BootTime == 0 {
			si.BootTime = info.BootTime
		}
	}

	if si.Hostname == "" {
		si.Hostname, _ = os.Hostname()
	}
	if si.Name == "" {
		si.Name = capitalize(runtime.GOOS)
	}
	if si.DistributionID == "" {
		si.DistributionID = runtime.GOOS
	}
	si.LongOSVersion = longOSVersion(si)

	return si
}

// longOSVersion renders e.g. "Linux 22.04 Ubuntu".
func longOSVersion(si protocol.StaticInfo) string {
	parts := []string{capitalize(runtime.GOOS)}
	if si.OSVersion != "" {
		parts = append(parts, si.OSVersion)
	}
	if si.Name != "" && !strings.EqualFold(si.Name, runtime.GOOS) {
		parts = append(parts, si.Name)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
