package collector

import (
	"log/slog"
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
)

type Numeric interface {
	constraints.Integer | constraints.Float
}

// Percent returns part/total as a percentage clamped to [0,100]. A zero total
// yields 0 rather than NaN.
func Percent[T Numeric](part, total T) float64 {
	if total == 0 {
		return 0.0
	}
	return ClampPercent((float64(part) / float64(total)) * 100.0)
}

// ClampPercent maps NaN and negative values to 0 and caps at 100.
func ClampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// Delta returns cur - prev, or 0 if the counter went backwards (reset or wrap).
func Delta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// Rate returns delta per second. Non-positive intervals yield 0.
func Rate(delta uint64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(delta) / seconds
}

// MegaBits converts a byte quantity to megabits (binary mega).
func MegaBits(bytes float64) float64 {
	return bytes / 1048576.0 * 8.0
}

// makeUintParser returns a function that parses fields[i] as uint64,
// logging errors with source context and returning 0 on failure.
func makeUintParser(fields []string, source string) func(int) uint64 {
	return func(index int) uint64 {
		v, err := strconv.ParseUint(fields[index], 10, 64)
		if err != nil {
			slog.Debug("parse error", "source", source, "field", index, "value", fields[index], "err", err)
			return 0
		}
		return v
	}
}
