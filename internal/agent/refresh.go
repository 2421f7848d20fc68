package agent

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/nhdewitt/rabbit/internal/collector"
	"github.com/nhdewitt/rabbit/internal/protocol"
)

func (a *Agent) refreshCPU(ctx context.Context, _ float64) {
	counters, err := a.provider.CPUCounters(ctx)
	now := a.clock.Now()

	pct := a.cpu.Last()
	if err != nil {
		a.logger.Debug("cpu counters unavailable", "err", err)
	} else if agg, ok := counters["cpu"]; ok {
		pct = a.cpu.Update(agg, now)
	}

	infos, infoErr := a.provider.CPUInfo(ctx)
	if infoErr != nil {
		a.logger.Debug("cpu info unavailable", "err", infoErr)
	}
	threads := make([]protocol.Thread, 0, len(infos))
	for _, ci := range infos {
		tr := a.threadTracker(ci.Name)
		usage := tr.Last()
		if raw, ok := counters[ci.Name]; ok {
			usage = tr.Update(raw, now)
		}
		threads = append(threads, protocol.Thread{
			Name:      ci.Name,
			Brand:     ci.Brand,
			Usage:     usage,
			Frequency: ci.MHz,
		})
	}

	load, loadErr := a.provider.LoadAverage(ctx)
	if loadErr != nil {
		a.logger.Debug("load average unavailable", "err", loadErr)
	}

	a.store.WithWrite(func(s *protocol.Snapshot) {
		p := &s.Processor
		p.Percent = pct
		if infoErr == nil {
			p.Threads = threads
		}
		if loadErr == nil {
			p.Load1, p.Load5, p.Load15 = load.Load1, load.Load5, load.Load15
		}
		p.Refreshed = now
	})
}

func (a *Agent) threadTracker(name string) *collector.CPUTracker {
	tr, ok := a.threads[name]
	if !ok {
		tr = &collector.CPUTracker{}
		a.threads[name] = tr
	}
	return tr
}

func (a *Agent) refreshMemory(ctx context.Context, _ float64) {
	m, err := a.provider.Memory(ctx)
	if err != nil {
		a.logger.Debug("memory unavailable", "err", err)
		return
	}
	now := a.clock.Now()

	a.store.WithWrite(func(s *protocol.Snapshot) {
		s.Memory = protocol.Memory{
			Total:     m.Total,
			Available: m.Available,
			Used:      m.Used,
			Free:      m.Free,
			Percent:   collector.Percent(m.Used, m.Total),
			Refreshed: now,
		}
	})
}

func (a *Agent) refreshSwap(ctx context.Context, _ float64) {
	sw, err := a.provider.Swap(ctx)
	if err != nil {
		a.logger.Debug("swap unavailable", "err", err)
		return
	}
	now := a.clock.Now()

	a.store.WithWrite(func(s *protocol.Snapshot) {
		s.Swap = protocol.Swap{
			Total:     sw.Total,
			Used:      sw.Used,
			Free:      sw.Free,
			Percent:   collector.Percent(sw.Used, sw.Total),
			Refreshed: now,
		}
	})
}

// refreshStorage records capacity and IO rates per device. Rates need a
// previous reading, so a device's first sample reports 0.
func (a *Agent) refreshStorage(ctx context.Context, elapsed float64) {
	disks, err := a.provider.Disks(ctx)
	if err != nil {
		a.logger.Debug("disks unavailable", "err", err)
		return
	}
	now := a.clock.Now()

	entries := make([]protocol.Storage, 0, len(disks))
	for _, d := range disks {
		if !a.cfg.WantMount(d.MountPoint) {
			continue
		}

		used := collector.Delta(d.Free, d.Total)
		st := protocol.Storage{
			Name:              d.Name,
			MountPoint:        d.MountPoint,
			Total:             d.Total,
			Used:              used,
			Free:              d.Free,
			Percent:           collector.Percent(used, d.Total),
			TotalReadBytes:    d.ReadBytes,
			TotalWrittenBytes: d.WrittenBytes,
			Refreshed:         now,
		}
		if prev, ok := a.prevDisks[d.Name]; ok {
			st.ReadSpeed = collector.Rate(collector.Delta(prev.read, d.ReadBytes), elapsed)
			st.WriteSpeed = collector.Rate(collector.Delta(prev.written, d.WrittenBytes), elapsed)
		}
		a.prevDisks[d.Name] = diskCounters{read: d.ReadBytes, written: d.WrittenBytes}
		entries = append(entries, st)
	}

	a.store.WithWrite(func(s *protocol.Snapshot) {
		for _, st := range entries {
			s.Storage[st.Name] = st
		}
	})
}

func (a *Agent) refreshNetwork(ctx context.Context, elapsed float64) {
	ifaces, err := a.provider.Interfaces(ctx)
	if err != nil {
		a.logger.Debug("interfaces unavailable", "err", err)
		return
	}
	now := a.clock.Now()

	names := make([]string, 0, len(ifaces))
	entries := make([]protocol.Network, 0, len(ifaces))
	for _, n := range ifaces {
		if !a.cfg.WantInterface(n.Name) {
			continue
		}

		net := protocol.Network{
			ErrorsReceived:     n.ErrIn,
			ErrorsTransmitted:  n.ErrOut,
			PacketsReceived:    n.PacketsRecv,
			PacketsTransmitted: n.PacketsSent,
			Refreshed:          now,
		}
		if prev, ok := a.prevNets[n.Name]; ok {
			net.Download = collector.MegaBits(collector.Rate(collector.Delta(prev.recv, n.BytesRecv), elapsed))
			net.Upload = collector.MegaBits(collector.Rate(collector.Delta(prev.sent, n.BytesSent), elapsed))
		}
		a.prevNets[n.Name] = netCounters{recv: n.BytesRecv, sent: n.BytesSent}

		names = append(names, n.Name)
		entries = append(entries, net)
	}

	a.store.WithWrite(func(s *protocol.Snapshot) {
		for i, name := range names {
			s.Networks[name] = entries[i]
		}
	})
}

func (a *Agent) refreshComponents(ctx context.Context, _ float64) {
	comps, err := a.provider.Components(ctx)
	if err != nil {
		a.logger.Debug("components unavailable", "err", err)
		return
	}
	now := a.clock.Now()

	entries := make([]protocol.Component, 0, len(comps))
	for _, c := range comps {
		if c.Label == "" || !a.cfg.WantComponent(c.Label) {
			continue
		}
		entries = append(entries, protocol.Component{
			Label:       c.Label,
			Temperature: c.Temperature,
			Critical:    c.Critical,
			Max:         c.Max,
			Refreshed:   now,
		})
	}

	a.store.WithWrite(func(s *protocol.Snapshot) {
		for _, c := range entries {
			s.Components[c.Label] = c
		}
	})
}

// refreshProcesses samples every configured process identifier. A numeric
// identifier is a PID; anything else is a name that resolves each cycle to
// the lowest PID currently running under it. Entries are keyed by PID once
// that PID is already tracked, otherwise by process name.
func (a *Agent) refreshProcesses(ctx context.Context, _ float64) {
	if len(a.cfg.Processes) == 0 {
		return
	}

	var byName map[string]uint32
	pids := make([]uint32, 0, len(a.cfg.Processes))
	for _, id := range a.cfg.Processes {
		if pid, err := strconv.ParseUint(id, 10, 32); err == nil {
			pids = append(pids, uint32(pid))
			continue
		}
		if byName == nil {
			byName = a.lowestPIDs(ctx)
		}
		if pid, ok := byName[id]; ok {
			pids = append(pids, pid)
		}
	}
	a.provider.Retain(pids)

	stats := make([]collector.ProcessStat, 0, len(pids))
	for _, pid := range pids {
		st, err := a.provider.ProcessStat(ctx, pid)
		if err != nil {
			a.logger.Debug("process unavailable", "pid", pid, "err", err)
			continue
		}
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return
	}
	now := a.clock.Now()

	a.store.WithWrite(func(s *protocol.Snapshot) {
		for _, st := range stats {
			key := strconv.FormatUint(uint64(st.PID), 10)
			if _, tracked := s.Processes[key]; !tracked {
				key = st.Name
			}
			s.Processes[key] = protocol.Process{
				PID:           st.PID,
				Name:          st.Name,
				CPU:           collector.ClampPercent(st.CPU),
				Memory:        st.Memory,
				VirtualMemory: st.VirtualMemory,
				Refreshed:     now,
			}
		}
	})
}

func (a *Agent) lowestPIDs(ctx context.Context) map[string]uint32 {
	procs, err := a.provider.Processes(ctx)
	if err != nil {
		a.logger.Debug("process list unavailable", "err", err)
		return map[string]uint32{}
	}

	slices.SortFunc(procs, func(x, y collector.ProcessInfo) int {
		return cmp.Compare(x.PID, y.PID)
	})
	out := make(map[string]uint32, len(procs))
	for _, p := range procs {
		if _, seen := out[p.Name]; !seen {
			out[p.Name] = p.PID
		}
	}
	return out
}

func (a *Agent) refreshUPS(ctx context.Context, _ float64) {
	for _, name := range a.cfg.UPS {
		u, err := a.provider.UPS(ctx, name)
		if err != nil {
			a.logger.Debug("ups unavailable", "ups", name, "err", err)
			continue
		}
		now := a.clock.Now()

		a.store.WithWrite(func(s *protocol.Snapshot) {
			s.UPSes[name] = protocol.UPS{
				Manufacturer:     u.Manufacturer,
				Model:            u.Model,
				Status:           u.Status,
				ChargePercent:    u.ChargePercent,
				LoadPercent:      u.LoadPercent,
				RuntimeSeconds:   u.RuntimeSeconds,
				InputVoltage:     u.InputVoltage,
				OutputVoltage:    u.OutputVoltage,
				RealPowerNominal: u.RealPowerNominal,
				PowerUsage:       u.PowerUsage(),
				Refreshed:        now,
			}
		})
	}
}

func (a *Agent) refreshBatteries(ctx context.Context, _ float64) {
	if !a.cfg.Batteries {
		return
	}
	bats, err := a.provider.Batteries(ctx)
	if err != nil {
		a.logger.Debug("batteries unavailable", "err", err)
		return
	}
	now := a.clock.Now()

	a.store.WithWrite(func(s *protocol.Snapshot) {
		for _, b := range bats {
			s.Batteries[b.Name] = protocol.Battery{
				Vendor:        b.Vendor,
				Model:         b.Model,
				Serial:        b.Serial,
				State:         b.State,
				Technology:    b.Technology,
				ChargePercent: b.ChargePercent,
				HealthPercent: b.HealthPercent,
				Voltage:       b.Voltage,
				EnergyRate:    b.EnergyRate,
				Energy:        b.Energy,
				EnergyFull:    b.EnergyFull,
				CycleCount:    b.CycleCount,
				Refreshed:     now,
			}
		}
	})
}
