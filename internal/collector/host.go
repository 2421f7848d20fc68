package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// ErrUnavailable reports a fact this host does not provide: no swap, no
// battery, no ipmitool and so on.
var ErrUnavailable = errors.New("not available on this host")

type LoadAvg struct {
	Load1, Load5, Load15 float64
}

type CPUInfo struct {
	Name  string
	Brand string
	MHz   uint64
}

type MemoryStat struct {
	Total, Available, Used, Free uint64
}

type SwapStat struct {
	Total, Used, Free uint64
}

// DiskStat carries capacity plus cumulative IO counters for one device.
type DiskStat struct {
	Name         string
	MountPoint   string
	Total        uint64
	Free         uint64
	ReadBytes    uint64
	WrittenBytes uint64
}

type InterfaceStat struct {
	Name        string
	BytesRecv   uint64
	BytesSent   uint64
	PacketsRecv uint64
	PacketsSent uint64
	ErrIn       uint64
	ErrOut      uint64
}

type ComponentStat struct {
	Label       string
	Temperature *float64
	Critical    *float64
	Max         *float64
}

type ProcessInfo struct {
	PID  uint32
	Name string
}

type ProcessStat struct {
	PID           uint32
	Name          string
	CPU           float64
	Memory        uint64
	VirtualMemory uint64
}

// Host is the gopsutil-backed source of every platform fact. Its methods are
// point-in-time queries; the only state kept is gopsutil process handles so
// per-process CPU percentages are computed between consecutive calls.
type Host struct {
	procRoot string
	sysRoot  string
	etcRoot  string
	run      CommandRunner
	tools    map[string]string // resolved paths of external tools

	mu    sync.Mutex
	procs map[int32]*process.Process
}

func NewHost() *Host {
	return &Host{
		procRoot: "/proc",
		sysRoot:  "/sys",
		etcRoot:  "/etc",
		run:      runCommand,
		procs:    make(map[int32]*process.Process),
	}
}

func (h *Host) procPath(parts ...string) string {
	return filepath.Join(append([]string{h.procRoot}, parts...)...)
}

func (h *Host) sysPath(parts ...string) string {
	return filepath.Join(append([]string{h.sysRoot}, parts...)...)
}

// Arch returns the kernel architecture string (x86_64, aarch64, ...).
func (h *Host) Arch() string {
	if arch, err := host.KernelArch(); err == nil && arch != "" {
		return arch
	}
	return runtime.GOARCH
}

func (h *Host) CPUInfo(ctx context.Context) ([]CPUInfo, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cpu info: %w", err)
	}

	out := make([]CPUInfo, 0, len(infos))
	for i, info := range infos {
		mhz := uint64(0)
		if info.Mhz > 0 {
			mhz = uint64(info.Mhz)
		}
		out = append(out, CPUInfo{
			Name:  fmt.Sprintf("cpu%d", i),
			Brand: strings.TrimSpace(info.ModelName),
			MHz:   mhz,
		})
	}
	return out, nil
}

func (h *Host) LoadAverage(ctx context.Context) (LoadAvg, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return LoadAvg{}, fmt.Errorf("reading load average: %w", err)
	}
	return LoadAvg{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}, nil
}

func (h *Host) Memory(ctx context.Context) (MemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, fmt.Errorf("reading memory: %w", err)
	}
	return MemoryStat{
		Total:     vm.Total,
		Available: vm.Available,
		Used:      vm.Used,
		Free:      vm.Free,
	}, nil
}

func (h *Host) Swap(ctx context.Context) (SwapStat, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return SwapStat{}, fmt.Errorf("reading swap: %w", err)
	}
	return SwapStat{Total: sw.Total, Used: sw.Used, Free: sw.Free}, nil
}

// Disks returns one entry per physical device. When a device is mounted more
// than once, the lexically first mount point wins.
func (h *Host) Disks(ctx context.Context) ([]DiskStat, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil && len(parts) == 0 {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].Mountpoint < parts[j].Mountpoint })

	io, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		io = nil
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]DiskStat, 0, len(parts))

	for _, p := range parts {
		if shouldIgnoreFilesystem(p.Fstype) {
			continue
		}
		if _, dup := seen[p.Device]; dup {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		seen[p.Device] = struct{}{}

		st := DiskStat{
			Name:       p.Device,
			MountPoint: p.Mountpoint,
			Total:      usage.Total,
			Free:       usage.Free,
		}
		if c, ok := io[filepath.Base(p.Device)]; ok {
			st.ReadBytes = c.ReadBytes
			st.WrittenBytes = c.WriteBytes
		}
		out = append(out, st)
	}

	return out, nil
}

func (h *Host) Interfaces(ctx context.Context) ([]InterfaceStat, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("reading interface counters: %w", err)
	}

	out := make([]InterfaceStat, 0, len(counters))
	for _, c := range counters {
		out = append(out, InterfaceStat{
			Name:        c.Name,
			BytesRecv:   c.BytesRecv,
			BytesSent:   c.BytesSent,
			PacketsRecv: c.PacketsRecv,
			PacketsSent: c.PacketsSent,
			ErrIn:       c.Errin,
			ErrOut:      c.Errout,
		})
	}
	return out, nil
}

// Components returns thermal sensors. gopsutil reports partial results
// together with a warnings error; those results are kept.
func (h *Host) Components(ctx context.Context) ([]ComponentStat, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return nil, fmt.Errorf("reading sensors: %w", err)
	}

	out := make([]ComponentStat, 0, len(temps))
	for _, t := range temps {
		out = append(out, ComponentStat{
			Label:       t.SensorKey,
			Temperature: ptr(t.Temperature),
			Critical:    positive(t.Critical),
			Max:         positive(t.High),
		})
	}
	return out, nil
}

func (h *Host) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		out = append(out, ProcessInfo{PID: uint32(p.Pid), Name: name})
	}
	return out, nil
}

// ProcessStat samples one process. CPU is the utilization since the previous
// ProcessStat call for the same PID (0 on the first call).
func (h *Host) ProcessStat(ctx context.Context, pid uint32) (ProcessStat, error) {
	p, err := h.handle(ctx, int32(pid))
	if err != nil {
		return ProcessStat{}, err
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		h.forget(int32(pid))
		return ProcessStat{}, fmt.Errorf("process %d: %w", pid, err)
	}

	st := ProcessStat{PID: pid, Name: name}
	if pct, err := p.PercentWithContext(ctx, 0); err == nil {
		st.CPU = pct
	}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		st.Memory = mi.RSS
		st.VirtualMemory = mi.VMS
	}
	return st, nil
}

func (h *Host) handle(ctx context.Context, pid int32) (*process.Process, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok := h.procs[pid]; ok {
		return p, nil
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	h.procs[pid] = p
	return p, nil
}

// Retain drops cached process handles for every PID not in pids. Callers pass
// the PIDs they still track so restarted processes do not leak handles.
func (h *Host) Retain(pids []uint32) {
	keep := make(map[int32]struct{}, len(pids))
	for _, pid := range pids {
		keep[int32(pid)] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for pid := range h.procs {
		if _, ok := keep[pid]; !ok {
			delete(h.procs, pid)
		}
	}
}

func (h *Host) forget(pid int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.procs, pid)
}

// BootTime returns the host boot time in epoch seconds.
func (h *Host) BootTime(ctx context.Context) uint64 {
	bt, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return 0
	}
	return bt
}

func ptr[T any](v T) *T { return &v }

// positive treats a zero threshold as "not reported".
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
