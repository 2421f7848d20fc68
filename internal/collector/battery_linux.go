//go:build linux

package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Batteries reads every BAT* entry under /sys/class/power_supply.
func (h *Host) Batteries(ctx context.Context) ([]BatteryStat, error) {
	dirs, err := filepath.Glob(h.sysPath("class", "power_supply", "BAT*"))
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("power_supply: no batteries: %w", ErrUnavailable)
	}
	sort.Strings(dirs)

	out := make([]BatteryStat, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, parseBatteryAttrs(filepath.Base(dir), readAttrs(dir)))
	}
	return out, nil
}

// readAttrs loads every regular file in a sysfs directory, trimmed.
func readAttrs(dir string) map[string]string {
	attrs := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return attrs
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		attrs[e.Name()] = strings.TrimSpace(string(data))
	}
	return attrs
}

// parseBatteryAttrs converts raw power_supply attributes. Drivers report
// either energy_* (µWh) or charge_* (µAh); charge is converted to energy
// through the design voltage.
func parseBatteryAttrs(name string, attrs map[string]string) BatteryStat {
	micro := func(key string) (float64, bool) {
		v, err := strconv.ParseFloat(attrs[key], 64)
		if err != nil {
			return 0, false
		}
		return v / 1e6, true
	}

	b := BatteryStat{
		Name:       name,
		Vendor:     attrs["manufacturer"],
		Model:      attrs["model_name"],
		Serial:     attrs["serial_number"],
		State:      strings.ToLower(attrs["status"]),
		Technology: attrs["technology"],
	}

	b.Voltage, _ = micro("voltage_now")
	designVoltage, ok := micro("voltage_min_design")
	if !ok {
		designVoltage = b.Voltage
	}

	energy, hasEnergy := micro("energy_now")
	full, _ := micro("energy_full")
	design, _ := micro("energy_full_design")
	rate, _ := micro("power_now")

	if !hasEnergy {
		charge, _ := micro("charge_now")
		chargeFull, _ := micro("charge_full")
		chargeDesign, _ := micro("charge_full_design")
		current, _ := micro("current_now")

		energy = charge * designVoltage
		full = chargeFull * designVoltage
		design = chargeDesign * designVoltage
		rate = current * b.Voltage
	}

	b.Energy = energy
	b.EnergyFull = full
	b.EnergyRate = rate
	b.HealthPercent = Percent(full, design)

	if capacity, err := strconv.ParseFloat(attrs["capacity"], 64); err == nil {
		b.ChargePercent = ClampPercent(capacity)
	} else {
		b.ChargePercent = Percent(energy, full)
	}

	if n, err := strconv.ParseUint(attrs["cycle_count"], 10, 64); err == nil && n > 0 {
		b.CycleCount = &n
	}

	return b
}
