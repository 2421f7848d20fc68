package collector

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

const upscOutput = `Init SSL without certificate database
battery.charge: 100
battery.runtime: 1830
device.mfr: American Power Conversion
device.model: Back-UPS ES 700G
input.voltage: 230.0
output.voltage: 229.5
ups.load: 25
ups.realpower.nominal: 405
ups.status: OL
`

func TestParseUPSFrom(t *testing.T) {
	got := parseUPSFrom(strings.NewReader(upscOutput))

	if got.Manufacturer != "American Power Conversion" {
		t.Errorf("Manufacturer: got %q", got.Manufacturer)
	}
	if got.Model != "Back-UPS ES 700G" {
		t.Errorf("Model: got %q", got.Model)
	}
	if got.Status != "OL" {
		t.Errorf("Status: got %q, want OL", got.Status)
	}
	if got.ChargePercent != 100 || got.LoadPercent != 25 {
		t.Errorf("charge/load: got %v/%v, want 100/25", got.ChargePercent, got.LoadPercent)
	}
	if got.RuntimeSeconds != 1830 {
		t.Errorf("RuntimeSeconds: got %d, want 1830", got.RuntimeSeconds)
	}
	if got.InputVoltage != 230 || got.OutputVoltage != 229.5 {
		t.Errorf("voltages: got %v/%v", got.InputVoltage, got.OutputVoltage)
	}
	if got.PowerUsage() != 101.25 {
		t.Errorf("PowerUsage: got %v, want 101.25", got.PowerUsage())
	}
}

func TestUPSStat_PowerUsageWithoutNominal(t *testing.T) {
	st := parseUPSFrom(strings.NewReader("ups.load: 40\nbattery.charge: garbage\n"))
	if st.PowerUsage() != 0 {
		t.Errorf("PowerUsage: got %v, want 0", st.PowerUsage())
	}
	if st.ChargePercent != 0 {
		t.Errorf("ChargePercent: got %v, want 0", st.ChargePercent)
	}
}

func TestParseUPSListFrom(t *testing.T) {
	input := "Init SSL without certificate database\nups1\n\n  rack-ups  \n"
	got := parseUPSListFrom(strings.NewReader(input))
	if !slices.Equal(got, []string{"ups1", "rack-ups"}) {
		t.Errorf("got %v", got)
	}
}

func TestHost_UPSNames_Empty(t *testing.T) {
	h := NewHost().WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Init SSL without certificate database\n"), nil
	})

	if _, err := h.UPSNames(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestHost_UPS_SetsName(t *testing.T) {
	h := NewHost().WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "upsc" || len(args) != 1 || args[0] != "ups1" {
			t.Errorf("unexpected command %s %v", name, args)
		}
		return []byte(upscOutput), nil
	})

	st, err := h.UPS(context.Background(), "ups1")
	if err != nil {
		t.Fatalf("UPS: %v", err)
	}
	if st.Name != "ups1" {
		t.Errorf("Name: got %q, want ups1", st.Name)
	}
}
