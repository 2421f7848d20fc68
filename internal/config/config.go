// Package config builds the exporter Configuration from defaults, an
// optional YAML file, RABBIT_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Category names a detail flag.
type Category int

const (
	CPU Category = iota
	Memory
	Swap
	Storage
	Network
)

type Details struct {
	CPU     bool `yaml:"cpu"`
	Memory  bool `yaml:"memory"`
	Swap    bool `yaml:"swap"`
	Storage bool `yaml:"storage"`
	Network bool `yaml:"network"`
}

// Power describes out-of-band power sensing. Requested comes from the user;
// Enabled and Interval are filled in by the startup probe.
type Power struct {
	Requested bool          `yaml:"enabled"`
	Timeout   time.Duration `yaml:"timeout"`

	Enabled  bool          `yaml:"-"`
	Interval time.Duration `yaml:"-"` // native DCMI sampling period, 0 if unknown
}

type Config struct {
	Address    string   `yaml:"address"`
	Port       int      `yaml:"port"`
	Cache      int      `yaml:"cache"` // seconds between refresh cycles
	Token      string   `yaml:"token"`
	Interfaces []string `yaml:"interfaces"`
	Mounts     []string `yaml:"mounts"`
	Components []string `yaml:"components"`
	Processes  []string `yaml:"processes"`
	UPS        []string `yaml:"ups"`
	Batteries  bool     `yaml:"batteries"`
	Details    Details  `yaml:"details"`
	AllDetails bool     `yaml:"all_details"`
	Power      Power    `yaml:"power"`
	LogLevel   string   `yaml:"log_level"`
	LogFormat  string   `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Address:   "0.0.0.0",
		Port:      8088,
		Cache:     3,
		Power:     Power{Timeout: 60 * time.Second},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Cadence is the interval between refresh cycles.
func (c Config) Cadence() time.Duration {
	return time.Duration(c.Cache) * time.Second
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Detailed reports whether the given category's detail families are enabled.
func (c Config) Detailed(cat Category) bool {
	if c.AllDetails {
		return true
	}
	switch cat {
	case CPU:
		return c.Details.CPU
	case Memory:
		return c.Details.Memory
	case Swap:
		return c.Details.Swap
	case Storage:
		return c.Details.Storage
	case Network:
		return c.Details.Network
	}
	return false
}

// FastPower reports whether the power reading is cheap enough to run inline
// in every refresh cycle.
func (c Config) FastPower() bool {
	return c.Power.Enabled && c.Power.Interval > 0 && c.Power.Interval <= c.Cadence()
}

func (c Config) WantInterface(name string) bool { return allowed(c.Interfaces, name) }
func (c Config) WantMount(mount string) bool    { return allowed(c.Mounts, mount) }
func (c Config) WantComponent(label string) bool {
	return allowed(c.Components, label)
}

// allowed treats an empty list as "everything".
func allowed(list []string, v string) bool {
	return len(list) == 0 || slices.Contains(list, v)
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Cache < 1 {
		errs = append(errs, fmt.Errorf("cache must be at least 1 second, got %d", c.Cache))
	}
	if c.Power.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("power timeout must be positive, got %s", c.Power.Timeout))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Load parses args (without the program name) and returns the merged
// configuration. getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()

	path, _ := fs.GetString("config")
	if path == "" {
		path = getenv("RABBIT_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	applyFlags(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Usage returns the flag help text.
func Usage() string {
	return newFlagSet().FlagUsages()
}

func newFlagSet() *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet("rabbit", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.String("config", "", "path to a YAML configuration file")
	fs.StringP("address", "a", d.Address, "bind the server to a specific address")
	fs.IntP("port", "p", d.Port, "bind the server to a specific port")
	fs.IntP("cache", "c", d.Cache, "seconds between refresh cycles")
	fs.StringP("token", "t", "", "bearer token required on /metrics (disables /)")
	fs.StringSliceP("interfaces", "i", nil, "network interfaces to monitor (default all)")
	fs.StringSliceP("mounts", "m", nil, "mount points to monitor (default all)")
	fs.StringSlice("components", nil, "thermal components to monitor (default all)")
	fs.StringSlice("processes", nil, "processes to track, by PID or name")
	fs.StringSlice("ups", nil, "NUT UPS units to monitor (\"all\" for every unit)")
	fs.Bool("batteries", false, "monitor batteries")
	fs.Bool("cpu-details", false, "export load averages and per-thread CPU metrics")
	fs.Bool("memory-details", false, "export absolute memory byte counts")
	fs.Bool("swap-details", false, "export absolute swap byte counts")
	fs.Bool("storage-details", false, "export absolute storage byte counts")
	fs.Bool("network-details", false, "export network packet and error counters")
	fs.Bool("all-details", false, "enable every detail flag")
	fs.Bool("power", false, "probe ipmitool for out-of-band power readings")
	fs.Duration("power-timeout", d.Power.Timeout, "upper bound for a single power read")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "text or json")
	return fs
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	integer := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("RABBIT_ADDRESS", &cfg.Address)
	str("RABBIT_TOKEN", &cfg.Token)
	str("RABBIT_LOG_LEVEL", &cfg.LogLevel)
	str("RABBIT_LOG_FORMAT", &cfg.LogFormat)
	list("RABBIT_INTERFACES", &cfg.Interfaces)
	list("RABBIT_MOUNTS", &cfg.Mounts)
	list("RABBIT_COMPONENTS", &cfg.Components)
	list("RABBIT_PROCESSES", &cfg.Processes)
	list("RABBIT_UPS", &cfg.UPS)

	duration := func(key string, dst *time.Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	return errors.Join(
		integer("RABBIT_PORT", &cfg.Port),
		integer("RABBIT_CACHE", &cfg.Cache),
		boolean("RABBIT_BATTERIES", &cfg.Batteries),
		boolean("RABBIT_CPU_DETAILS", &cfg.Details.CPU),
		boolean("RABBIT_MEMORY_DETAILS", &cfg.Details.Memory),
		boolean("RABBIT_SWAP_DETAILS", &cfg.Details.Swap),
		boolean("RABBIT_STORAGE_DETAILS", &cfg.Details.Storage),
		boolean("RABBIT_NETWORK_DETAILS", &cfg.Details.Network),
		boolean("RABBIT_ALL_DETAILS", &cfg.AllDetails),
		boolean("RABBIT_POWER", &cfg.Power.Requested),
		duration("RABBIT_POWER_TIMEOUT", &cfg.Power.Timeout),
	)
}

// applyFlags copies only the flags the user actually set, so file and
// environment values survive unset flags.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("address", func() { cfg.Address, _ = fs.GetString("address") })
	set("port", func() { cfg.Port, _ = fs.GetInt("port") })
	set("cache", func() { cfg.Cache, _ = fs.GetInt("cache") })
	set("token", func() { cfg.Token, _ = fs.GetString("token") })
	set("interfaces", func() { cfg.Interfaces, _ = fs.GetStringSlice("interfaces") })
	set("mounts", func() { cfg.Mounts, _ = fs.GetStringSlice("mounts") })
	set("components", func() { cfg.Components, _ = fs.GetStringSlice("components") })
	set("processes", func() { cfg.Processes, _ = fs.GetStringSlice("processes") })
	set("ups", func() { cfg.UPS, _ = fs.GetStringSlice("ups") })
	set("batteries", func() { cfg.Batteries, _ = fs.GetBool("batteries") })
	set("cpu-details", func() { cfg.Details.CPU, _ = fs.GetBool("cpu-details") })
	set("memory-details", func() { cfg.Details.Memory, _ = fs.GetBool("memory-details") })
	set("swap-details", func() { cfg.Details.Swap, _ = fs.GetBool("swap-details") })
	set("storage-details", func() { cfg.Details.Storage, _ = fs.GetBool("storage-details") })
	set("network-details", func() { cfg.Details.Network, _ = fs.GetBool("network-details") })
	set("all-details", func() { cfg.AllDetails, _ = fs.GetBool("all-details") })
	set("power", func() { cfg.Power.Requested, _ = fs.GetBool("power") })
	set("power-timeout", func() { cfg.Power.Timeout, _ = fs.GetDuration("power-timeout") })
	set("log-level", func() { cfg.LogLevel, _ = fs.GetString("log-level") })
	set("log-format", func() { cfg.LogFormat, _ = fs.GetString("log-format") })
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
