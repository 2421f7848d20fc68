package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/nhdewitt/rabbit/internal/collector"
)

type fakeLister struct {
	upsErr error
}

func (fakeLister) Interfaces(context.Context) ([]collector.InterfaceStat, error) {
	return []collector.InterfaceStat{{Name: "wlan0"}, {Name: "eth0"}, {Name: "lo"}}, nil
}

func (fakeLister) Disks(context.Context) ([]collector.DiskStat, error) {
	return []collector.DiskStat{
		{Name: "/dev/sdb1", MountPoint: "/data"},
		{Name: "/dev/sda1", MountPoint: "/"},
	}, nil
}

func (fakeLister) Components(context.Context) ([]collector.ComponentStat, error) {
	return []collector.ComponentStat{{Label: "coretemp_core_0"}, {Label: "acpitz"}}, nil
}

func (fakeLister) Processes(context.Context) ([]collector.ProcessInfo, error) {
	return []collector.ProcessInfo{{PID: 300, Name: "nginx"}, {PID: 1, Name: "systemd"}}, nil
}

func (f fakeLister) UPSNames(context.Context) ([]string, error) {
	if f.upsErr != nil {
		return nil, f.upsErr
	}
	return []string{"ups1"}, nil
}

func (fakeLister) Batteries(context.Context) ([]collector.BatteryStat, error) {
	return []collector.BatteryStat{{Name: "BAT0", Vendor: "SMP", Model: "5B10"}}, nil
}

func TestRunList(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"interfaces", "INTERFACE\neth0\nlo\nwlan0\n"},
		{"disks", "DEVICE\tMOUNT\n/dev/sda1\t/\n/dev/sdb1\t/data\n"},
		{"components", "COMPONENT\nacpitz\ncoretemp_core_0\n"},
		{"processes", "PID\tNAME\n1\tsystemd\n300\tnginx\n"},
		{"ups", "UPS\nups1\n"},
		{"batteries", "BATTERY\tVENDOR\tMODEL\nBAT0\tSMP\t5B10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var buf bytes.Buffer
			if err := runList(context.Background(), &buf, fakeLister{}, []string{tt.target}); err != nil {
				t.Fatalf("runList: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunList_BadUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"gpus"}, {"disks", "extra"}} {
		if err := runList(context.Background(), &bytes.Buffer{}, fakeLister{}, args); err == nil {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestRunList_ProviderError(t *testing.T) {
	l := fakeLister{upsErr: collector.ErrUnavailable}
	err := runList(context.Background(), &bytes.Buffer{}, l, []string{"ups"})
	if !errors.Is(err, collector.ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug", "json"); err != nil {
		t.Errorf("debug/json: %v", err)
	}
	if _, err := newLogger("loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
}
