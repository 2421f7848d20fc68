package collector

// ignoredFilesystems are virtual, network, or special-purpose filesystems
// that shouldn't appear in storage metrics.
var ignoredFilesystems = map[string]struct{}{
	// Kernel/system virtual filesystems
	"proc":        {},
	"sysfs":       {},
	"devtmpfs":    {},
	"devpts":      {},
	"tmpfs":       {}, // RAM-backed
	"ramfs":       {},
	"rootfs":      {},
	"debugfs":     {},
	"tracefs":     {},
	"securityfs":  {},
	"configfs":    {},
	"fusectl":     {},
	"mqueue":      {},
	"hugetlbfs":   {},
	"binfmt_misc": {},
	"pstore":      {},
	"efivarfs":    {},
	"cgroup":      {},
	"cgroup2":     {},
	"selinuxfs":   {},
	"bpf":         {},
	"nsfs":        {},
	"autofs":      {},

	// Network filesystems are reported by the host that owns them
	"nfs":        {},
	"nfs4":       {},
	"nfsd":       {},
	"cifs":       {},
	"smbfs":      {},
	"9p":         {},
	"rpc_pipefs": {},
	"sunrpc":     {},

	"fuse.gvfsd-fuse": {},
	"fuse.sshfs":      {},

	// Container layers and read-only images
	"overlay":  {},
	"squashfs": {},
	"iso9660":  {},
	"udf":      {},

	// macOS/BSD
	"devfs":     {},
	"fdescfs":   {},
	"linprocfs": {},
}

func shouldIgnoreFilesystem(fstype string) bool {
	_, ignored := ignoredFilesystems[fstype]
	return ignored
}
