//go:build !linux

package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// ticksPerSecond converts gopsutil's float seconds back into integer ticks so
// the tracker can use saturating integer deltas on every platform.
const ticksPerSecond = 100

func (h *Host) CPUCounters(ctx context.Context) (map[string]CPURaw, error) {
	result := make(map[string]CPURaw)

	total, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("reading cpu times: %w", err)
	}
	if len(total) > 0 {
		result["cpu"] = timesToRaw(total[0])
	}

	perCPU, err := cpu.TimesWithContext(ctx, true)
	if err == nil {
		for i, t := range perCPU {
			result[fmt.Sprintf("cpu%d", i)] = timesToRaw(t)
		}
	}

	return result, nil
}

func timesToRaw(t cpu.TimesStat) CPURaw {
	tick := func(v float64) uint64 {
		if v <= 0 {
			return 0
		}
		return uint64(v * ticksPerSecond)
	}
	return CPURaw{
		User:      tick(t.User),
		Nice:      tick(t.Nice),
		System:    tick(t.System),
		Idle:      tick(t.Idle),
		IOWait:    tick(t.Iowait),
		IRQ:       tick(t.Irq),
		SoftIRQ:   tick(t.Softirq),
		Steal:     tick(t.Steal),
		Guest:     tick(t.Guest),
		GuestNice: tick(t.GuestNice),
	}
}
