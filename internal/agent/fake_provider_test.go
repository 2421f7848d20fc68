package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/nhdewitt/rabbit/internal/collector"
)

var errFake = errors.New("fake sensor failure")

// fakeProvider returns canned readings. Fields may be changed between
// refresh cycles; the mutex covers access from the detached power read.
type fakeProvider struct {
	mu sync.Mutex

	counters   map[string]collector.CPURaw
	cpuInfo    []collector.CPUInfo
	load       collector.LoadAvg
	memory     collector.MemoryStat
	memoryErr  error
	swap       collector.SwapStat
	disks      []collector.DiskStat
	disksErr   error
	ifaces     []collector.InterfaceStat
	components []collector.ComponentStat
	procs      []collector.ProcessInfo
	procStats  map[uint32]collector.ProcessStat
	retained   []uint32
	ups        map[string]collector.UPSStat
	batteries  []collector.BatteryStat

	dcmi    collector.DCMIReading
	dcmiErr error

	// sensor blocks until released (when non-nil) and then returns
	// sensorWatts/sensorErr.
	sensor      chan struct{}
	sensorWatts float64
	sensorErr   error
	sensorCalls int
	dcmiCalls   int

	panicOnMemory bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		procStats: make(map[uint32]collector.ProcessStat),
		ups:       make(map[string]collector.UPSStat),
	}
}

func (f *fakeProvider) set(fn func(f *fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProvider) CPUCounters(context.Context) (map[string]collector.CPURaw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counters == nil {
		return nil, errFake
	}
	return f.counters, nil
}

func (f *fakeProvider) CPUInfo(context.Context) ([]collector.CPUInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cpuInfo, nil
}

func (f *fakeProvider) LoadAverage(context.Context) (collector.LoadAvg, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load, nil
}

func (f *fakeProvider) Memory(context.Context) (collector.MemoryStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnMemory {
		panic("memory sensor exploded")
	}
	return f.memory, f.memoryErr
}

func (f *fakeProvider) Swap(context.Context) (collector.SwapStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.swap, nil
}

func (f *fakeProvider) Disks(context.Context) ([]collector.DiskStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disks, f.disksErr
}

func (f *fakeProvider) Interfaces(context.Context) ([]collector.InterfaceStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ifaces, nil
}

func (f *fakeProvider) Components(context.Context) ([]collector.ComponentStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.components, nil
}

func (f *fakeProvider) Processes(context.Context) ([]collector.ProcessInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]collector.ProcessInfo(nil), f.procs...), nil
}

func (f *fakeProvider) ProcessStat(_ context.Context, pid uint32) (collector.ProcessStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.procStats[pid]
	if !ok {
		return collector.ProcessStat{}, errFake
	}
	return st, nil
}

func (f *fakeProvider) Retain(pids []uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retained = append([]uint32(nil), pids...)
}

func (f *fakeProvider) DCMIPower(context.Context) (collector.DCMIReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dcmiCalls++
	return f.dcmi, f.dcmiErr
}

func (f *fakeProvider) SensorPower(ctx context.Context) (float64, error) {
	f.mu.Lock()
	f.sensorCalls++
	gate := f.sensor
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sensorWatts, f.sensorErr
}

func (f *fakeProvider) UPS(_ context.Context, name string) (collector.UPSStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.ups[name]
	if !ok {
		return collector.UPSStat{}, errFake
	}
	return u, nil
}

func (f *fakeProvider) Batteries(context.Context) ([]collector.BatteryStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batteries) == 0 {
		return nil, collector.ErrUnavailable
	}
	return f.batteries, nil
}

func (f *fakeProvider) calls() (sensor, dcmi int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sensorCalls, f.dcmiCalls
}
