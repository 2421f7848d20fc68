//go:build !linux

package collector

type osRelease struct {
	ID        string
	Name      string
	VersionID string
}

func (h *Host) osRelease() osRelease { return osRelease{} }

func kernelRelease() string { return "" }
