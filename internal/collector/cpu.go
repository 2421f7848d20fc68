package collector

import (
	"sync"
	"time"
)

// MinCPUInterval is the shortest gap between two samples the tracker will
// compute a utilization over. Closer samples are dominated by tick noise.
const MinCPUInterval = 100 * time.Millisecond

// CPURaw holds cumulative CPU time counters in clock ticks.
type CPURaw struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

type CPUDelta struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
	Total   uint64 // Sum of all time
	Used    uint64 // Total - Idle - IOWait
}

// calculateCPUDelta subtracts prev from cur per category. Each category
// saturates at zero so a counter reset never underflows.
func calculateCPUDelta(cur, prev CPURaw) CPUDelta {
	d := CPUDelta{
		User:    Delta(prev.User, cur.User),
		Nice:    Delta(prev.Nice, cur.Nice),
		System:  Delta(prev.System, cur.System),
		Idle:    Delta(prev.Idle, cur.Idle),
		IOWait:  Delta(prev.IOWait, cur.IOWait),
		IRQ:     Delta(prev.IRQ, cur.IRQ),
		SoftIRQ: Delta(prev.SoftIRQ, cur.SoftIRQ),
		Steal:   Delta(prev.Steal, cur.Steal),
	}
	// Guest and GuestNice are already included in User and Nice by the kernel.
	d.Total = d.User + d.Nice + d.System + d.Idle + d.IOWait + d.IRQ + d.SoftIRQ + d.Steal
	d.Used = d.Total - (d.Idle + d.IOWait)
	return d
}

// CPUTracker turns successive cumulative counter readings into a busy
// percentage. The zero value is ready to use; the first Update only records
// a baseline.
type CPUTracker struct {
	mu       sync.Mutex
	prev     CPURaw
	prevTime time.Time
	primed   bool
	last     float64
}

// Update feeds a new reading taken at now and returns the utilization since
// the previous reading. Readings closer than MinCPUInterval to the previous
// one are ignored and the last value is returned unchanged.
func (t *CPUTracker) Update(cur CPURaw, now time.Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.primed {
		t.prev, t.prevTime, t.primed = cur, now, true
		return t.last
	}
	if now.Sub(t.prevTime) < MinCPUInterval {
		return t.last
	}

	d := calculateCPUDelta(cur, t.prev)
	t.prev, t.prevTime = cur, now

	if d.Total == 0 {
		t.last = 0
		return t.last
	}
	t.last = ClampPercent(100 * (1 - float64(d.Idle+d.IOWait)/float64(d.Total)))
	return t.last
}

// Last returns the most recently computed utilization. Callers use it when
// the counters could not be read.
func (t *CPUTracker) Last() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
