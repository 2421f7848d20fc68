//go:build !linux

package collector

import "context"

func (h *Host) Batteries(ctx context.Context) ([]BatteryStat, error) {
	return nil, ErrUnavailable
}
