package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aixgo-dev/agentrt/agent"
)

// Config is the top-level configuration for a runtime deployment: default
// idle-strategy parameters plus the set of named agent runners to wire up.
type Config struct {
	// Idle holds the default Backoff parameters applied to any runner
	// that does not name its own strategy.
	Idle IdleConfig `yaml:"idle"`

	// CloseTimeout bounds how long Runner.Close waits for a worker to
	// observe shutdown between duty cycles.
	CloseTimeout Duration `yaml:"close_timeout"`

	// Runners names the agents to run, keyed by the name each one
	// reports from Agent.Name.
	Runners map[string]RunnerConfig `yaml:"runners"`

	// Observability configures the metrics/health HTTP surface.
	Observability ObservabilityConfig `yaml:"observability"`
}

// IdleConfig mirrors idlestrategy.Backoff's constructor parameters so a
// deployment can tune backoff behavior without recompiling.
type IdleConfig struct {
	Strategy  string   `yaml:"strategy"` // noop, busy-spin, yielding, sleeping-ns, sleeping-ms, backoff
	MaxSpins  int      `yaml:"max_spins"`
	MaxYields int      `yaml:"max_yields"`
	MinPark   Duration `yaml:"min_park"`
	MaxPark   Duration `yaml:"max_park"`
	SleepFor  Duration `yaml:"sleep_for"`
}

// RunnerConfig overrides the default idle strategy and close timeout for
// one named runner.
type RunnerConfig struct {
	Idle         *IdleConfig `yaml:"idle,omitempty"`
	CloseTimeout *Duration   `yaml:"close_timeout,omitempty"`
}

// ObservabilityConfig configures the optional metrics/health server.
type ObservabilityConfig struct {
	Enabled            bool     `yaml:"enabled"`
	ListenAddr         string   `yaml:"listen_addr"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	ShutdownTimeout    Duration `yaml:"shutdown_timeout"`
}

func defaultIdleConfig() IdleConfig {
	return IdleConfig{
		Strategy:  "backoff",
		MaxSpins:  10,
		MaxYields: 5,
		MinPark:   Duration(time.Microsecond),
		MaxPark:   Duration(time.Millisecond),
	}
}

// Load reads and parses a YAML configuration file, applying defaults for
// any field the file leaves zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{Idle: defaultIdleConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Idle.applyDefaultsFrom(defaultIdleConfig())
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = Duration(100 * time.Millisecond)
	}
	if c.Observability.ListenAddr == "" {
		c.Observability.ListenAddr = ":9090"
	}
	if c.Observability.RateLimitPerSecond <= 0 {
		c.Observability.RateLimitPerSecond = 10
	}
	if c.Observability.RateLimitBurst <= 0 {
		c.Observability.RateLimitBurst = 20
	}
	if c.Observability.ShutdownTimeout <= 0 {
		c.Observability.ShutdownTimeout = Duration(5 * time.Second)
	}

	for name, rc := range c.Runners {
		if rc.Idle != nil {
			rc.Idle.applyDefaultsFrom(c.Idle)
		}
		c.Runners[name] = rc
	}
}

// applyDefaultsFrom backfills any zero-valued field of ic from base, so a
// per-runner override naming only Strategy still inherits the rest of the
// deployment-wide idle parameters instead of building a degenerate
// zero-valued strategy.
func (ic *IdleConfig) applyDefaultsFrom(base IdleConfig) {
	if ic.Strategy == "" {
		ic.Strategy = base.Strategy
	}
	if ic.MaxSpins == 0 {
		ic.MaxSpins = base.MaxSpins
	}
	if ic.MaxYields == 0 {
		ic.MaxYields = base.MaxYields
	}
	if ic.MinPark == 0 {
		ic.MinPark = base.MinPark
	}
	if ic.MaxPark == 0 {
		ic.MaxPark = base.MaxPark
	}
	if ic.SleepFor == 0 {
		ic.SleepFor = base.SleepFor
	}
}

// Save writes cfg back out as YAML, mainly useful for generating a
// starter file via the CLI's "config init" command.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration describes at least one runner
// and that every named idle strategy is one this module knows how to
// build.
func (c *Config) Validate() error {
	if len(c.Runners) == 0 {
		return fmt.Errorf("%w: at least one runner must be configured", agent.ErrPrecondition)
	}
	if err := c.Idle.validate(); err != nil {
		return err
	}
	for name, rc := range c.Runners {
		if rc.Idle == nil {
			continue
		}
		if err := rc.Idle.validate(); err != nil {
			return fmt.Errorf("runner %q: %w", name, err)
		}
	}
	return nil
}

func (ic IdleConfig) validate() error {
	switch ic.Strategy {
	case "noop", "busy-spin", "yielding", "backoff", "":
		return nil
	case "sleeping-ns", "sleeping-ms":
		if ic.SleepFor <= 0 {
			return fmt.Errorf("%w: idle strategy %q requires a positive sleep_for", agent.ErrPrecondition, ic.Strategy)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown idle strategy %q", agent.ErrPrecondition, ic.Strategy)
	}
}
