package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhdewitt/rabbit/internal/protocol"
)

// refreshPower reads out-of-band power. A DCMI reading whose native period
// fits the cadence runs inline; anything slower is handed to a single
// detached read. The Updating flag is tested and set under the write lock,
// so two cycles can never start overlapping slow reads.
func (a *Agent) refreshPower(ctx context.Context, _ float64) {
	if !a.cfg.Power.Enabled {
		return
	}

	if a.cfg.FastPower() {
		a.readPowerInline(ctx)
		return
	}

	dispatch := false
	a.store.WithWrite(func(s *protocol.Snapshot) {
		if !s.Power.Updating {
			s.Power.Updating = true
			dispatch = true
		}
	})
	if !dispatch {
		a.logger.Debug("power read still in flight, skipping")
		return
	}

	a.powerWG.Add(1)
	go a.readPowerDetached(ctx)
}

func (a *Agent) readPowerInline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Power.Timeout)
	defer cancel()

	rd, err := a.provider.DCMIPower(ctx)
	if err != nil || !rd.HasWatts {
		a.logger.Debug("dcmi power reading failed", "err", err)
		return
	}
	now := a.clock.Now()

	a.store.WithWrite(func(s *protocol.Snapshot) {
		s.Power.Watts = rd.Watts
		s.Power.Refreshed = now
	})
}

// readPowerDetached always clears Updating, whether the read succeeds,
// fails, times out or panics.
func (a *Agent) readPowerDetached(ctx context.Context) {
	defer a.powerWG.Done()

	var (
		watts float64
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			a.logger.Debug("power sensor read failed", "err", err)
		}
		now := a.clock.Now()
		a.store.WithWrite(func(s *protocol.Snapshot) {
			if err == nil {
				s.Power.Watts = watts
				s.Power.Refreshed = now
			}
			s.Power.Updating = false
		})
	}()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Power.Timeout)
	defer cancel()

	watts, err = a.slowPowerReading(ctx)
}

// slowPowerReading prefers the sensor table and falls back to DCMI when the
// BMC exposes no watt sensors.
func (a *Agent) slowPowerReading(ctx context.Context) (float64, error) {
	watts, err := a.provider.SensorPower(ctx)
	if err == nil {
		return watts, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}

	rd, dcmiErr := a.provider.DCMIPower(ctx)
	if dcmiErr != nil {
		return 0, errors.Join(err, dcmiErr)
	}
	if !rd.HasWatts {
		return 0, fmt.Errorf("dcmi: no instantaneous reading: %w", err)
	}
	return rd.Watts, nil
}
