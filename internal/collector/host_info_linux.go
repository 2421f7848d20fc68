//go:build linux

package collector

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

type osRelease struct {
	ID        string
	Name      string
	VersionID string
}

func (h *Host) osRelease() osRelease {
	f, err := os.Open(filepath.Join(h.etcRoot, "os-release"))
	if err != nil {
		return osRelease{ID: "linux"}
	}
	defer f.Close()

	return parseOSReleaseFrom(f)
}

func parseOSReleaseFrom(r io.Reader) osRelease {
	var rel osRelease
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"`))

		switch key {
		case "ID":
			rel.ID = value
		case "NAME":
			rel.Name = value
		case "VERSION_ID":
			rel.VersionID = value
		}
	}

	if rel.ID == "" {
		rel.ID = "linux"
	}
	return rel
}

func kernelRelease() string {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uname.Release[:])
}
