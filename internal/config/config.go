package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tabletctl/internal/driversim"
	"github.com/danmuck/tabletctl/internal/protocol/session"
	"github.com/danmuck/tabletctl/internal/transport"
)

// Config is the resolved tabletctl configuration.
type Config struct {
	Target   transport.Address
	Priority transport.Priority
	// Timeout is the per-call reply timeout handed to the driver client.
	// Zero defers to Session.DefaultTimeout.
	Timeout time.Duration
	Session session.Config
	Sim     SimConfig
}

type SimConfig struct {
	AdminAddr   string
	CorsOrigins []string
	Tablets     []driversim.TabletSpec
}

// fileConfig mirrors the TOML layout. Durations are strings; timeout also
// accepts "none".
type fileConfig struct {
	TargetNetwork  string                 `toml:"target_network"`
	TargetPath     string                 `toml:"target_path"`
	BundleID       string                 `toml:"bundle_id"`
	Priority       string                 `toml:"priority"`
	Timeout        string                 `toml:"timeout"`
	DefaultTimeout string                 `toml:"default_timeout"`
	ConnectTimeout string                 `toml:"connect_timeout"`
	WriteTimeout   string                 `toml:"write_timeout"`
	SimAdminAddr   string                 `toml:"sim_admin_addr"`
	SimCorsOrigins []string               `toml:"sim_cors_origins"`
	SimTablets     []driversim.TabletSpec `toml:"sim_tablets"`
}

func Default() Config {
	sim := driversim.DefaultConfig()
	return Config{
		Target: transport.Address{
			Network:  "unix",
			Path:     "/tmp/tabletctl.sock",
			BundleID: sim.BundleID,
		},
		Priority: transport.PriorityNormal,
		Session:  session.DefaultConfig(),
		Sim: SimConfig{
			AdminAddr: "127.0.0.1:9310",
			Tablets:   sim.Tablets,
		},
	}
}

// Load reads path and overlays every key it defines onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("target_network") {
		cfg.Target.Network = strings.TrimSpace(raw.TargetNetwork)
	}
	if meta.IsDefined("target_path") {
		cfg.Target.Path = strings.TrimSpace(raw.TargetPath)
	}
	if meta.IsDefined("bundle_id") {
		cfg.Target.BundleID = strings.TrimSpace(raw.BundleID)
	}
	if meta.IsDefined("priority") {
		p, err := transport.ParsePriority(raw.Priority)
		if err != nil {
			return Config{}, fmt.Errorf("parse priority: %w", err)
		}
		cfg.Priority = p
	}
	if meta.IsDefined("timeout") {
		d, err := ParseTimeout(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	for _, field := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"default_timeout", raw.DefaultTimeout, &cfg.Session.DefaultTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Session.WriteTimeout},
	} {
		if !meta.IsDefined(field.key) {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(field.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", field.key, err)
		}
		*field.dst = d
	}
	if meta.IsDefined("sim_admin_addr") {
		cfg.Sim.AdminAddr = strings.TrimSpace(raw.SimAdminAddr)
	}
	if meta.IsDefined("sim_cors_origins") {
		cfg.Sim.CorsOrigins = raw.SimCorsOrigins
	}
	if meta.IsDefined("sim_tablets") {
		cfg.Sim.Tablets = raw.SimTablets
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseTimeout accepts a Go duration or "none" for transport.NoTimeout.
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return transport.NoTimeout, nil
	}
	return time.ParseDuration(s)
}

func Validate(cfg Config) error {
	if err := cfg.Target.Validate(); err != nil {
		return fmt.Errorf("config target: %w", err)
	}
	if cfg.Session.DefaultTimeout <= 0 {
		return fmt.Errorf("config default_timeout must be positive")
	}
	if cfg.Session.ConnectTimeout <= 0 {
		return fmt.Errorf("config connect_timeout must be positive")
	}
	if cfg.Session.WriteTimeout <= 0 {
		return fmt.Errorf("config write_timeout must be positive")
	}
	for i, tablet := range cfg.Sim.Tablets {
		if strings.TrimSpace(tablet.Name) == "" {
			return fmt.Errorf("sim_tablets[%d] missing name", i)
		}
	}
	return nil
}

// SimulatorConfig returns the simulator seed for cfg.
func (c Config) SimulatorConfig() driversim.Config {
	sim := driversim.DefaultConfig()
	sim.BundleID = c.Target.BundleID
	sim.Tablets = c.Sim.Tablets
	return sim
}
