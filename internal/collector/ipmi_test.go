package collector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const dcmiOutput = `
    Instantaneous power reading:                   214 Watts
    Minimum during sampling period:                 98 Watts
    Maximum during sampling period:                356 Watts
    Average power reading over sample period:      201 Watts
    IPMI timestamp:                           Thu Jan  1 00:00:00 2024
    Sampling period:                          00000001 Seconds.
    Power reading state is:                   activated
`

func TestParseDCMIFrom(t *testing.T) {
	got := parseDCMIFrom(strings.NewReader(dcmiOutput))

	if !got.HasWatts || got.Watts != 214 {
		t.Errorf("Watts: got %v (has=%v), want 214", got.Watts, got.HasWatts)
	}
	if got.SamplingPeriod != time.Second {
		t.Errorf("SamplingPeriod: got %v, want 1s", got.SamplingPeriod)
	}
}

func TestParseDCMIFrom_Empty(t *testing.T) {
	got := parseDCMIFrom(strings.NewReader("Error: unable to establish IPMI session\n"))
	if got.HasWatts || got.SamplingPeriod != 0 {
		t.Errorf("got %+v, want zero reading", got)
	}
}

func TestParseSensorPowerFrom(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{
			name: "system sensor wins",
			input: `CPU1 Power       | 45.000     | Watts      | ok
Pwr Consumption  | 168.000    | Watts      | ok
PSU1 Input       | 170.000    | Watts      | ok`,
			want:   168,
			wantOK: true,
		},
		{
			name: "components summed",
			input: `CPU1 Power       | 45.000     | Watts      | ok
CPU2 Power       | 40.000     | Watts      | ok
DIMM Power       | 15.500     | Watts      | ok
PSU1 Output      | 90.000     | Watts      | ok
Fan1             | 3600.000   | RPM        | ok`,
			want:   100.5,
			wantOK: true,
		},
		{
			name: "zero and unreadable skipped",
			input: `CPU1 Power       | 0.000      | Watts      | ok
CPU2 Power       | na         | Watts      | na`,
			wantOK: false,
		},
		{
			name:   "no watt sensors",
			input:  `Inlet Temp       | 22.000     | degrees C  | ok`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSensorPowerFrom(strings.NewReader(tt.input))
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("watts: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHost_DCMIPower_UsesRunner(t *testing.T) {
	var gotArgs []string
	h := NewHost().WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(dcmiOutput), nil
	})

	rd, err := h.DCMIPower(context.Background())
	if err != nil {
		t.Fatalf("DCMIPower: %v", err)
	}
	if rd.Watts != 214 {
		t.Errorf("Watts: got %v, want 214", rd.Watts)
	}
	if strings.Join(gotArgs, " ") != "ipmitool dcmi power reading" {
		t.Errorf("command: got %v", gotArgs)
	}
}

func TestHost_SensorPower_NoSensors(t *testing.T) {
	h := NewHost().WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Fan1 | 3600 | RPM | ok\n"), nil
	})

	if _, err := h.SensorPower(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}
