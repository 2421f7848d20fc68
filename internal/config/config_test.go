package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Address != "0.0.0.0" {
		t.Errorf("Address: got %s, want 0.0.0.0", cfg.Address)
	}
	if cfg.Port != 8088 {
		t.Errorf("Port: got %d, want 8088", cfg.Port)
	}
	if cfg.Cadence() != 3*time.Second {
		t.Errorf("Cadence: got %v, want 3s", cfg.Cadence())
	}
	if cfg.Power.Timeout != 60*time.Second {
		t.Errorf("Power.Timeout: got %v, want 60s", cfg.Power.Timeout)
	}
	if cfg.Addr() != "0.0.0.0:8088" {
		t.Errorf("Addr: got %s, want 0.0.0.0:8088", cfg.Addr())
	}
}

func TestLoad_Flags(t *testing.T) {
	args := []string{
		"-a", "127.0.0.1",
		"--port", "9000",
		"-c", "1",
		"--token", "secret",
		"-i", "eth0,wlan0",
		"--processes", "nginx",
		"--processes", "42",
		"--memory-details",
	}

	cfg, err := Load(args, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Address != "127.0.0.1" || cfg.Port != 9000 || cfg.Cache != 1 || cfg.Token != "secret" {
		t.Errorf("unexpected scalar config: %+v", cfg)
	}
	if !slices.Equal(cfg.Interfaces, []string{"eth0", "wlan0"}) {
		t.Errorf("Interfaces: got %v", cfg.Interfaces)
	}
	if !slices.Equal(cfg.Processes, []string{"nginx", "42"}) {
		t.Errorf("Processes: got %v", cfg.Processes)
	}
	if !cfg.Detailed(Memory) {
		t.Error("memory details should be enabled")
	}
	if cfg.Detailed(CPU) {
		t.Error("cpu details should be disabled")
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rabbit.yaml")
	data := []byte(`
port: 7000
cache: 10
mounts: ["/", "/home"]
details:
  storage: true
power:
  enabled: true
  timeout: 15s
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	env := envMap(map[string]string{
		"RABBIT_CACHE": "5",
		"RABBIT_TOKEN": "from-env",
	})

	cfg, err := Load([]string{"--config", path, "--cache", "2"}, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 7000 {
		t.Errorf("Port: got %d, want 7000 (file)", cfg.Port)
	}
	if cfg.Cache != 2 {
		t.Errorf("Cache: got %d, want 2 (flag beats env and file)", cfg.Cache)
	}
	if cfg.Token != "from-env" {
		t.Errorf("Token: got %q, want from-env", cfg.Token)
	}
	if !slices.Equal(cfg.Mounts, []string{"/", "/home"}) {
		t.Errorf("Mounts: got %v", cfg.Mounts)
	}
	if !cfg.Detailed(Storage) {
		t.Error("storage details should be enabled from file")
	}
	if !cfg.Power.Requested || cfg.Power.Timeout != 15*time.Second {
		t.Errorf("Power: got %+v", cfg.Power)
	}
}

func TestLoad_EnvCoversEveryKey(t *testing.T) {
	env := envMap(map[string]string{
		"RABBIT_CPU_DETAILS":     "true",
		"RABBIT_MEMORY_DETAILS":  "1",
		"RABBIT_SWAP_DETAILS":    "true",
		"RABBIT_STORAGE_DETAILS": "true",
		"RABBIT_NETWORK_DETAILS": "true",
		"RABBIT_LOG_FORMAT":      "json",
		"RABBIT_POWER_TIMEOUT":   "90s",
	})

	cfg, err := Load(nil, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, cat := range []Category{CPU, Memory, Swap, Storage, Network} {
		if !cfg.Detailed(cat) {
			t.Errorf("category %d should be detailed from env", cat)
		}
	}
	if cfg.AllDetails {
		t.Error("AllDetails should stay off")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: got %q, want json", cfg.LogFormat)
	}
	if cfg.Power.Timeout != 90*time.Second {
		t.Errorf("Power.Timeout: got %v, want 90s", cfg.Power.Timeout)
	}

	// Flags still win over the environment.
	cfg, err = Load([]string{"--cpu-details=false", "--log-format", "text", "--power-timeout", "5s"}, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Detailed(CPU) || cfg.LogFormat != "text" || cfg.Power.Timeout != 5*time.Second {
		t.Errorf("flags should override env: got %+v", cfg)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, noEnv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8088 {
		t.Errorf("Port: got %d, want 8088", cfg.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"zero cache", []string{"--cache", "0"}, nil},
		{"port too high", []string{"--port", "70000"}, nil},
		{"bad log format", []string{"--log-format", "xml"}, nil},
		{"bad env int", nil, map[string]string{"RABBIT_PORT": "eighty"}},
		{"bad env bool", nil, map[string]string{"RABBIT_POWER": "maybe"}},
		{"bad env detail", nil, map[string]string{"RABBIT_SWAP_DETAILS": "sometimes"}},
		{"bad env duration", nil, map[string]string{"RABBIT_POWER_TIMEOUT": "soon"}},
		{"bad env log format", nil, map[string]string{"RABBIT_LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args, envMap(tt.env)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_Help(t *testing.T) {
	_, err := Load([]string{"--help"}, noEnv)
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("got %v, want pflag.ErrHelp", err)
	}
}

func TestDetailed_AllDetailsOverride(t *testing.T) {
	cfg := Default()
	cfg.AllDetails = true

	for _, cat := range []Category{CPU, Memory, Swap, Storage, Network} {
		if !cfg.Detailed(cat) {
			t.Errorf("category %d should be detailed with AllDetails", cat)
		}
	}
}

func TestFastPower(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		interval time.Duration
		cache    int
		want     bool
	}{
		{"disabled", false, time.Second, 5, false},
		{"no native interval", true, 0, 5, false},
		{"interval within cadence", true, 5 * time.Second, 5, true},
		{"interval slower than cadence", true, 300 * time.Second, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Cache = tt.cache
			cfg.Power.Enabled = tt.enabled
			cfg.Power.Interval = tt.interval
			if got := cfg.FastPower(); got != tt.want {
				t.Errorf("FastPower: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWantFilters(t *testing.T) {
	cfg := Default()
	if !cfg.WantInterface("anything") {
		t.Error("empty interface list should allow everything")
	}

	cfg.Interfaces = []string{"eth0"}
	cfg.Components = []string{"coretemp Package id 0"}
	if !cfg.WantInterface("eth0") || cfg.WantInterface("wlan0") {
		t.Error("interface filter mismatch")
	}
	if !cfg.WantComponent("coretemp Package id 0") || cfg.WantComponent("acpitz") {
		t.Error("component filter mismatch")
	}
	if !cfg.WantMount("/") {
		t.Error("empty mount list should allow everything")
	}
}
