package agent

import (
	"context"

	"github.com/nhdewitt/rabbit/internal/collector"
)

// Provider is the platform facts source the scheduler samples.
// *collector.Host is the production implementation.
type Provider interface {
	CPUCounters(ctx context.Context) (map[string]collector.CPURaw, error)
	CPUInfo(ctx context.Context) ([]collector.CPUInfo, error)
	LoadAverage(ctx context.Context) (collector.LoadAvg, error)
	Memory(ctx context.Context) (collector.MemoryStat, error)
	Swap(ctx context.Context) (collector.SwapStat, error)
	Disks(ctx context.Context) ([]collector.DiskStat, error)
	Interfaces(ctx context.Context) ([]collector.InterfaceStat, error)
	Components(ctx context.Context) ([]collector.ComponentStat, error)
	Processes(ctx context.Context) ([]collector.ProcessInfo, error)
	ProcessStat(ctx context.Context, pid uint32) (collector.ProcessStat, error)
	Retain(pids []uint32)
	DCMIPower(ctx context.Context) (collector.DCMIReading, error)
	SensorPower(ctx context.Context) (float64, error)
	UPS(ctx context.Context, name string) (collector.UPSStat, error)
	Batteries(ctx context.Context) ([]collector.BatteryStat, error)
}

var _ Provider = (*collector.Host)(nil)
