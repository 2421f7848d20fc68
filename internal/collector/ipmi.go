package collector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DCMIReading is the parsed output of `ipmitool dcmi power reading`.
type DCMIReading struct {
	Watts          float64
	HasWatts       bool
	SamplingPeriod time.Duration // 0 when the BMC does not report one
}

// systemPowerSensors name sensors that already report whole-system draw.
var systemPowerSensors = []string{
	"pwr consumption",
	"system power",
	"total power",
	"power meter",
	"power1",
}

// DCMIPower asks the BMC for its instantaneous power reading.
func (h *Host) DCMIPower(ctx context.Context) (DCMIReading, error) {
	out, err := h.run(ctx, h.tool("ipmitool"), "dcmi", "power", "reading")
	if err != nil {
		return DCMIReading{}, err
	}
	return parseDCMIFrom(bytes.NewReader(out)), nil
}

// SensorPower walks the full `ipmitool sensor` table. This can take tens of
// seconds on some BMCs.
func (h *Host) SensorPower(ctx context.Context) (float64, error) {
	out, err := h.run(ctx, h.tool("ipmitool"), "sensor")
	if err != nil {
		return 0, err
	}
	watts, ok := parseSensorPowerFrom(bytes.NewReader(out))
	if !ok {
		return 0, fmt.Errorf("ipmitool sensor: no power sensors: %w", ErrUnavailable)
	}
	return watts, nil
}

func parseDCMIFrom(r io.Reader) DCMIReading {
	var rd DCMIReading
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		fields := strings.Fields(value)
		if len(fields) == 0 {
			continue
		}

		switch {
		case strings.Contains(key, "instantaneous power reading"):
			if w, err := strconv.ParseFloat(fields[0], 64); err == nil {
				rd.Watts = w
				rd.HasWatts = true
			}
		case strings.Contains(key, "sampling period"):
			if s, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
				rd.SamplingPeriod = time.Duration(s) * time.Second
			}
		}
	}

	return rd
}

// parseSensorPowerFrom reads "name | value | units | status" rows. A
// system-wide sensor wins outright; otherwise CPU, DIMM and PSU input
// sensors are summed.
func parseSensorPowerFrom(r io.Reader) (float64, bool) {
	var total float64
	found := false
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "|")
		if len(parts) < 3 {
			continue
		}
		if !strings.Contains(strings.ToLower(parts[2]), "watt") {
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || value <= 0 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(parts[0]))
		for _, s := range systemPowerSensors {
			if strings.Contains(name, s) {
				return value, true
			}
		}

		if strings.Contains(name, "cpu") || strings.Contains(name, "dimm") ||
			(strings.Contains(name, "psu") && !strings.Contains(name, "out")) {
			total += value
			found = true
		}
	}

	return total, found && total > 0
}
