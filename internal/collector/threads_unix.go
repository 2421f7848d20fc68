//go:build !windows

package collector

import (
	"runtime"

	"github.com/tklauser/go-sysconf"
)

// ThreadCount returns the number of online logical CPUs.
func (h *Host) ThreadCount() uint64 {
	if n, err := sysconf.Sysconf(sysconf.SC_NPROCESSORS_ONLN); err == nil && n > 0 {
		return uint64(n)
	}
	return uint64(runtime.NumCPU())
}
