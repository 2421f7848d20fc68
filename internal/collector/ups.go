package collector

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// UPSStat is one NUT unit as reported by upsc.
type UPSStat struct {
	Name             string
	Manufacturer     string
	Model            string
	Status           string
	ChargePercent    float64
	LoadPercent      float64
	RuntimeSeconds   uint64
	InputVoltage     float64
	OutputVoltage    float64
	RealPowerNominal float64
}

// PowerUsage derives the current draw from load and nominal real power.
func (u UPSStat) PowerUsage() float64 {
	if u.RealPowerNominal <= 0 {
		return 0
	}
	return u.LoadPercent / 100 * u.RealPowerNominal
}

// UPSNames lists the units known to the local NUT server.
func (h *Host) UPSNames(ctx context.Context) ([]string, error) {
	out, err := h.run(ctx, h.tool("upsc"), "-l")
	if err != nil {
		return nil, err
	}
	names := parseUPSListFrom(bytes.NewReader(out))
	if len(names) == 0 {
		return nil, fmt.Errorf("upsc: no units: %w", ErrUnavailable)
	}
	return names, nil
}

func (h *Host) UPS(ctx context.Context, name string) (UPSStat, error) {
	out, err := h.run(ctx, h.tool("upsc"), name)
	if err != nil {
		return UPSStat{}, err
	}
	st := parseUPSFrom(bytes.NewReader(out))
	st.Name = name
	return st, nil
}

// isNUTNoise matches the SSL warning upsc prints before its real output.
func isNUTNoise(line string) bool {
	return strings.HasPrefix(line, "Init SSL")
}

func parseUPSListFrom(r io.Reader) []string {
	var names []string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if isNUTNoise(line) {
			continue
		}
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func parseUPSFrom(r io.Reader) UPSStat {
	var st UPSStat
	scanner := bufio.NewScanner(r)

	float := func(v string) float64 {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}

	for scanner.Scan() {
		line := scanner.Text()
		if isNUTNoise(line) {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "device.mfr":
			st.Manufacturer = value
		case "device.model":
			st.Model = value
		case "ups.status":
			st.Status = value
		case "battery.charge":
			st.ChargePercent = ClampPercent(float(value))
		case "ups.load":
			st.LoadPercent = ClampPercent(float(value))
		case "battery.runtime":
			if f := float(value); f > 0 {
				st.RuntimeSeconds = uint64(f)
			}
		case "input.voltage":
			st.InputVoltage = float(value)
		case "output.voltage":
			st.OutputVoltage = float(value)
		case "ups.realpower.nominal":
			st.RealPowerNominal = float(value)
		}
	}

	return st
}
