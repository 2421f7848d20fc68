// Package platform runs the one-shot startup probe that decides which
// optional sensors (out-of-band power, NUT UPS units, batteries) this host
// can serve.
package platform

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"slices"
	"time"

	"github.com/nhdewitt/rabbit/internal/collector"
	"github.com/nhdewitt/rabbit/internal/config"
)

type PowerMode int

const (
	PowerNone   PowerMode = iota
	PowerDCMI             // structured DCMI reading, cheap enough to run inline
	PowerSensor           // full sensor walk, dispatched off the refresh cycle
)

func (m PowerMode) String() string {
	switch m {
	case PowerDCMI:
		return "dcmi"
	case PowerSensor:
		return "sensor"
	}
	return "none"
}

type Info struct {
	// Out-of-band power
	IPMIToolPath  string
	Power         PowerMode
	PowerInterval time.Duration // native DCMI sampling period

	// NUT
	UPSCPath string
	UPSUnits []string

	Batteries []string
}

// Prober is the subset of the platform facts provider the probe needs.
type Prober interface {
	DCMIPower(ctx context.Context) (collector.DCMIReading, error)
	SensorPower(ctx context.Context) (float64, error)
	UPSNames(ctx context.Context) ([]string, error)
	Batteries(ctx context.Context) ([]collector.BatteryStat, error)
}

// Detect probes only the sensors cfg asks for. Each probe is bounded by the
// configured power timeout.
func Detect(ctx context.Context, p Prober, cfg config.Config, logger *slog.Logger) Info {
	var info Info

	if cfg.Power.Requested {
		info.IPMIToolPath, _ = exec.LookPath("ipmitool")
		info.Power, info.PowerInterval = detectPower(ctx, p, cfg)
		logger.Info("power probe", "mode", info.Power, "interval", info.PowerInterval, "ipmitool", info.IPMIToolPath)
	}

	if len(cfg.UPS) > 0 {
		info.UPSCPath, _ = exec.LookPath("upsc")
		info.UPSUnits = detectUPS(ctx, p, cfg)
		logger.Info("ups probe", "units", info.UPSUnits)
	}

	if cfg.Batteries {
		info.Batteries = detectBatteries(ctx, p)
		logger.Info("battery probe", "batteries", info.Batteries)
	}

	return info
}

func detectPower(ctx context.Context, p Prober, cfg config.Config) (PowerMode, time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Power.Timeout)
	defer cancel()

	rd, err := p.DCMIPower(ctx)
	if err == nil && rd.HasWatts {
		if rd.SamplingPeriod > 0 && rd.SamplingPeriod <= cfg.Cadence() {
			return PowerDCMI, rd.SamplingPeriod
		}
		return PowerSensor, rd.SamplingPeriod
	}
	if errors.Is(err, collector.ErrUnavailable) {
		return PowerNone, 0
	}

	if _, err := p.SensorPower(ctx); err == nil {
		return PowerSensor, 0
	}
	return PowerNone, 0
}

// detectUPS expands "all" into every unit upsc knows and otherwise keeps
// the requested units that upsc actually lists.
func detectUPS(ctx context.Context, p Prober, cfg config.Config) []string {
	names, err := p.UPSNames(ctx)
	if err != nil {
		return nil
	}
	if slices.Contains(cfg.UPS, "all") {
		return names
	}

	var out []string
	for _, want := range cfg.UPS {
		if slices.Contains(names, want) {
			out = append(out, want)
		}
	}
	return out
}

func detectBatteries(ctx context.Context, p Prober) []string {
	bats, err := p.Batteries(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(bats))
	for _, b := range bats {
		names = append(names, b.Name)
	}
	return names
}

// Apply records the probe results in cfg. Sensors the host cannot serve
// are switched off.
func (i Info) Apply(cfg *config.Config) {
	cfg.Power.Enabled = i.Power != PowerNone
	cfg.Power.Interval = i.PowerInterval
	cfg.UPS = i.UPSUnits
	cfg.Batteries = len(i.Batteries) > 0
}

// ApplyHost points h at the tool binaries the probe resolved, so later reads
// run exactly what was probed.
func (i Info) ApplyHost(h *collector.Host) {
	h.WithTool("ipmitool", i.IPMIToolPath).WithTool("upsc", i.UPSCPath)
}
