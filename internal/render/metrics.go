// Package render turns a Snapshot into the OpenMetrics exposition served on
// /metrics and the HTML status page served on /.
package render

import (
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/nhdewitt/rabbit/internal/config"
	"github.com/nhdewitt/rabbit/internal/protocol"
)

// Metrics writes the OpenMetrics document for s. Output depends only on s,
// cfg and version: map entries are emitted in key order and every sample
// carries its entry's own refresh time.
//
// Storage, network, component, process, UPS and battery families emit one
// sample per entry, so document size grows with the number of devices and
// tracked processes.
func Metrics(w io.Writer, s *protocol.Snapshot, cfg config.Config, version string) error {
	var e exposition

	writeHost(&e, s, version)
	writeProcessor(&e, s, cfg)
	writeMemory(&e, s, cfg)
	writeSwap(&e, s, cfg)
	writeStorage(&e, s, cfg)
	writeNetwork(&e, s, cfg)
	writeComponents(&e, s)
	writeProcesses(&e, s)
	writePower(&e, s, cfg)
	writeUPS(&e, s)
	writeBatteries(&e, s)
	e.eof()

	_, err := w.Write(e.buf.Bytes())
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func writeHost(e *exposition, s *protocol.Snapshot, version string) {
	exporter := &family{name: "exporter", help: "Exporter build information.", typ: info}
	exporter.add("", s.Refreshed, label{"version", version})
	e.write(exporter)

	st := s.Static
	system := &family{name: "system", help: "Static host information.", typ: info}
	system.add("", s.Refreshed,
		label{"name", st.Name},
		label{"kernel_version", st.KernelVersion},
		label{"os_version", st.OSVersion},
		label{"long_os_version", st.LongOSVersion},
		label{"distribution_id", st.DistributionID},
		label{"hostname", st.Hostname},
		label{"boot_time", integer(st.BootTime)},
	)
	e.write(system)
}

func writeProcessor(e *exposition, s *protocol.Snapshot, cfg config.Config) {
	p := s.Processor

	cpu := &family{name: "cpu", help: "Processor architecture and logical thread count.", typ: info}
	cpu.add("", p.Refreshed, label{"arch", p.Arch}, label{"threads", integer(p.ThreadCount)})
	e.write(cpu)

	load := &family{name: "cpu_load", unit: "percent", help: "Overall CPU utilization.", typ: gauge}
	load.add(fixed(p.Percent), p.Refreshed)
	e.write(load)

	if !cfg.Detailed(config.CPU) {
		return
	}

	avg := &family{name: "cpu_load_average", help: "System load average.", typ: gauge}
	avg.add(fixed(p.Load1), p.Refreshed, label{"period", "1m"})
	avg.add(fixed(p.Load5), p.Refreshed, label{"period", "5m"})
	avg.add(fixed(p.Load15), p.Refreshed, label{"period", "15m"})
	e.write(avg)

	usage := &family{name: "cpu_thread_usage", unit: "percent", help: "Per-thread CPU utilization.", typ: gauge}
	freq := &family{name: "cpu_thread_frequency", unit: "megahertz", help: "Per-thread CPU frequency.", typ: gauge}
	for _, t := range p.Threads {
		labels := []label{{"thread", t.Name}, {"brand", t.Brand}}
		usage.add(fixed(t.Usage), p.Refreshed, labels...)
		freq.add(integer(t.Frequency), p.Refreshed, labels...)
	}
	e.write(usage)
	e.write(freq)
}

func writeMemory(e *exposition, s *protocol.Snapshot, cfg config.Config) {
	m := s.Memory

	pct := &family{name: "memory", unit: "percent", help: "Memory in use.", typ: gauge}
	pct.add(fixed(m.Percent), m.Refreshed)
	e.write(pct)

	if !cfg.Detailed(config.Memory) {
		return
	}
	for _, f := range []struct {
		name, help string
		value      uint64
	}{
		{"memory_total", "Total memory.", m.Total},
		{"memory_available", "Memory available for new allocations.", m.Available},
		{"memory_used", "Memory in use.", m.Used},
		{"memory_free", "Unused memory.", m.Free},
	} {
		fam := &family{name: f.name, unit: "bytes", help: f.help, typ: gauge}
		fam.add(integer(f.value), m.Refreshed)
		e.write(fam)
	}
}

func writeSwap(e *exposition, s *protocol.Snapshot, cfg config.Config) {
	sw := s.Swap

	pct := &family{name: "swap", unit: "percent", help: "Swap in use.", typ: gauge}
	pct.add(fixed(sw.Percent), sw.Refreshed)
	e.write(pct)

	if !cfg.Detailed(config.Swap) {
		return
	}
	for _, f := range []struct {
		name, help string
		value      uint64
	}{
		{"swap_total", "Total swap.", sw.Total},
		{"swap_used", "Swap in use.", sw.Used},
		{"swap_free", "Unused swap.", sw.Free},
	} {
		fam := &family{name: f.name, unit: "bytes", help: f.help, typ: gauge}
		fam.add(integer(f.value), sw.Refreshed)
		e.write(fam)
	}
}

func writeStorage(e *exposition, s *protocol.Snapshot, cfg config.Config) {
	created := integer(s.Static.BootTime)

	pct := &family{name: "storage", unit: "percent", help: "Storage space in use.", typ: gauge}
	read := &family{name: "storage_read_speed", unit: "bytes_per_second", help: "Storage read throughput.", typ: gauge}
	write := &family{name: "storage_write_speed", unit: "bytes_per_second", help: "Storage write throughput.", typ: gauge}
	total := &family{name: "storage_total", unit: "bytes", help: "Storage capacity.", typ: gauge}
	used := &family{name: "storage_used", unit: "bytes", help: "Storage space in use.", typ: gauge}
	free := &family{name: "storage_free", unit: "bytes", help: "Storage space available.", typ: gauge}
	readTotal := &family{name: "storage_read", unit: "bytes", help: "Bytes read since boot.", typ: counter, created: created}
	written := &family{name: "storage_written", unit: "bytes", help: "Bytes written since boot.", typ: counter, created: created}

	for _, key := range sortedKeys(s.Storage) {
		d := s.Storage[key]
		labels := []label{{"device", key}, {"mount", d.MountPoint}}

		pct.add(fixed(d.Percent), d.Refreshed, labels...)
		read.add(fixed(d.ReadSpeed), d.Refreshed, labels...)
		write.add(fixed(d.WriteSpeed), d.Refreshed, labels...)
		total.add(integer(d.Total), d.Refreshed, labels...)
		used.add(integer(d.Used), d.Refreshed, labels...)
		free.add(integer(d.Free), d.Refreshed, labels...)
		readTotal.add(integer(d.TotalReadBytes), d.Refreshed, labels...)
		written.add(integer(d.TotalWrittenBytes), d.Refreshed, labels...)
	}

	e.write(pct)
	e.write(read)
	e.write(write)
	if cfg.Detailed(config.Storage) {
		e.write(total)
		e.write(used)
		e.write(free)
		e.write(readTotal)
		e.write(written)
	}
}

func writeNetwork(e *exposition, s *protocol.Snapshot, cfg config.Config) {
	created := integer(s.Static.BootTime)

	down := &family{name: "network_download", unit: "megabits_per_second", help: "Receive throughput.", typ: gauge}
	up := &family{name: "network_upload", unit: "megabits_per_second", help: "Transmit throughput.", typ: gauge}
	rxPackets := &family{name: "network_received_packets", help: "Packets received since boot.", typ: counter, created: created}
	txPackets := &family{name: "network_transmitted_packets", help: "Packets transmitted since boot.", typ: counter, created: created}
	rxErrors := &family{name: "network_received_errors", help: "Receive errors since boot.", typ: counter, created: created}
	txErrors := &family{name: "network_transmitted_errors", help: "Transmit errors since boot.", typ: counter, created: created}

	for _, key := range sortedKeys(s.Networks) {
		n := s.Networks[key]
		l := label{"interface", key}

		down.add(fixed(n.Download), n.Refreshed, l)
		up.add(fixed(n.Upload), n.Refreshed, l)
		rxPackets.add(integer(n.PacketsReceived), n.Refreshed, l)
		txPackets.add(integer(n.PacketsTransmitted), n.Refreshed, l)
		rxErrors.add(integer(n.ErrorsReceived), n.Refreshed, l)
		txErrors.add(integer(n.ErrorsTransmitted), n.Refreshed, l)
	}

	e.write(down)
	e.write(up)
	if cfg.Detailed(config.Network) {
		e.write(rxPackets)
		e.write(txPackets)
		e.write(rxErrors)
		e.write(txErrors)
	}
}

func writeComponents(e *exposition, s *protocol.Snapshot) {
	temp := &family{name: "component_temperature", unit: "celsius", help: "Component temperature.", typ: gauge}
	crit := &family{name: "component_critical_temperature", unit: "celsius", help: "Component critical temperature threshold.", typ: gauge}
	maximum := &family{name: "component_max_temperature", unit: "celsius", help: "Component maximum temperature threshold.", typ: gauge}

	for _, key := range sortedKeys(s.Components) {
		c := s.Components[key]
		l := label{"component", key}

		if c.Temperature != nil {
			temp.add(fixed(*c.Temperature), c.Refreshed, l)
		}
		if c.Critical != nil {
			crit.add(fixed(*c.Critical), c.Refreshed, l)
		}
		if c.Max != nil {
			maximum.add(fixed(*c.Max), c.Refreshed, l)
		}
	}

	e.write(temp)
	e.write(crit)
	e.write(maximum)
}

func writeProcesses(e *exposition, s *protocol.Snapshot) {
	cpu := &family{name: "process_cpu", unit: "percent", help: "Process CPU utilization.", typ: gauge}
	mem := &family{name: "process_memory", unit: "bytes", help: "Process resident memory.", typ: gauge}
	virt := &family{name: "process_virtual_memory", unit: "bytes", help: "Process virtual memory.", typ: gauge}

	for _, key := range sortedKeys(s.Processes) {
		p := s.Processes[key]
		labels := []label{{"pid", strconv.FormatUint(uint64(p.PID), 10)}, {"name", p.Name}}

		cpu.add(fixed(p.CPU), p.Refreshed, labels...)
		mem.add(integer(p.Memory), p.Refreshed, labels...)
		virt.add(integer(p.VirtualMemory), p.Refreshed, labels...)
	}

	e.write(cpu)
	e.write(mem)
	e.write(virt)
}

func writePower(e *exposition, s *protocol.Snapshot, cfg config.Config) {
	if !cfg.Power.Enabled || s.Power.Refreshed.IsZero() {
		return
	}
	f := &family{name: "power_consumption", unit: "watts", help: "Out-of-band system power draw.", typ: gauge}
	f.add(fixed(s.Power.Watts), s.Power.Refreshed)
	e.write(f)
}

func writeUPS(e *exposition, s *protocol.Snapshot) {
	meta := &family{name: "ups", help: "UPS identity and status.", typ: info}
	charge := &family{name: "ups_charge", unit: "percent", help: "UPS battery charge.", typ: gauge}
	load := &family{name: "ups_load", unit: "percent", help: "UPS load.", typ: gauge}
	runtime := &family{name: "ups_runtime", unit: "seconds", help: "UPS estimated runtime on battery.", typ: gauge}
	in := &family{name: "ups_input_voltage", unit: "volts", help: "UPS input voltage.", typ: gauge}
	out := &family{name: "ups_output_voltage", unit: "volts", help: "UPS output voltage.", typ: gauge}
	power := &family{name: "ups_power", unit: "watts", help: "UPS power draw derived from load and nominal real power.", typ: gauge}

	for _, key := range sortedKeys(s.UPSes) {
		u := s.UPSes[key]
		l := label{"ups", key}

		meta.add("", u.Refreshed, l, label{"manufacturer", u.Manufacturer}, label{"model", u.Model}, label{"status", u.Status})
		charge.add(fixed(u.ChargePercent), u.Refreshed, l)
		load.add(fixed(u.LoadPercent), u.Refreshed, l)
		runtime.add(integer(u.RuntimeSeconds), u.Refreshed, l)
		in.add(fixed(u.InputVoltage), u.Refreshed, l)
		out.add(fixed(u.OutputVoltage), u.Refreshed, l)
		power.add(fixed(u.PowerUsage), u.Refreshed, l)
	}

	for _, f := range []*family{meta, charge, load, runtime, in, out, power} {
		e.write(f)
	}
}

func writeBatteries(e *exposition, s *protocol.Snapshot) {
	meta := &family{name: "battery", help: "Battery identity and state.", typ: info}
	charge := &family{name: "battery_charge", unit: "percent", help: "Battery state of charge.", typ: gauge}
	health := &family{name: "battery_health", unit: "percent", help: "Battery full capacity relative to design capacity.", typ: gauge}
	voltage := &family{name: "battery_voltage", unit: "volts", help: "Battery voltage.", typ: gauge}
	rate := &family{name: "battery_energy_rate", unit: "watts", help: "Battery charge or discharge rate.", typ: gauge}
	energy := &family{name: "battery_energy", unit: "watt_hours", help: "Energy stored in the battery.", typ: gauge}
	cycles := &family{name: "battery_cycles", help: "Battery charge cycles.", typ: gauge}

	for _, key := range sortedKeys(s.Batteries) {
		b := s.Batteries[key]
		l := label{"battery", key}

		meta.add("", b.Refreshed, l,
			label{"vendor", b.Vendor},
			label{"model", b.Model},
			label{"serial", b.Serial},
			label{"state", b.State},
			label{"technology", b.Technology},
		)
		charge.add(fixed(b.ChargePercent), b.Refreshed, l)
		health.add(fixed(b.HealthPercent), b.Refreshed, l)
		voltage.add(fixed(b.Voltage), b.Refreshed, l)
		rate.add(fixed(b.EnergyRate), b.Refreshed, l)
		energy.add(fixed(b.Energy), b.Refreshed, l)
		if b.CycleCount != nil {
			cycles.add(integer(*b.CycleCount), b.Refreshed, l)
		}
	}

	for _, f := range []*family{meta, charge, health, voltage, rate, energy, cycles} {
		e.write(f)
	}
}
