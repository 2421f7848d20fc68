//go:build windows

package collector

import "runtime"

func (h *Host) ThreadCount() uint64 {
	return uint64(runtime.NumCPU())
}
