package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aixgo-dev/agentrt/agent"
)

func TestLoad_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()

	valid := `
close_timeout: 250ms
runners:
  counter:
    idle:
      strategy: sleeping-ms
`
	path := filepath.Join(tmpDir, "valid.yaml")
	if err := os.WriteFile(path, []byte(valid), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CloseTimeout.Dur() != 250*time.Millisecond {
		t.Errorf("expected close_timeout 250ms, got %s", cfg.CloseTimeout)
	}
	if cfg.Idle.Strategy != "backoff" {
		t.Errorf("expected default idle strategy backoff, got %q", cfg.Idle.Strategy)
	}
	if got := cfg.Runners["counter"].Idle.Strategy; got != "sleeping-ms" {
		t.Errorf("expected runner idle strategy sleeping-ms, got %q", got)
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()

	invalid := "close_timeout: [[[\n"
	path := filepath.Join(tmpDir, "invalid.yaml")
	if err := os.WriteFile(path, []byte(invalid), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidateRejectsEmptyRunners(t *testing.T) {
	cfg := &Config{Idle: defaultIdleConfig()}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for config with no runners")
	}
	if !errors.Is(err, agent.ErrPrecondition) {
		t.Errorf("expected agent.ErrPrecondition, got %v", err)
	}
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := &Config{
		Idle:    defaultIdleConfig(),
		Runners: map[string]RunnerConfig{"a": {Idle: &IdleConfig{Strategy: "nonsense"}}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown idle strategy")
	}
}

func TestBuildStrategyDefaultsToBackoff(t *testing.T) {
	s, err := BuildStrategy(IdleConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Alias() != "backoff" {
		t.Errorf("expected backoff alias, got %q", s.Alias())
	}
}

func TestBuildStrategySleepingNsRejectsOneSecond(t *testing.T) {
	_, err := BuildStrategy(IdleConfig{Strategy: "sleeping-ns", SleepFor: Duration(time.Second)})
	if err == nil {
		t.Fatal("expected error for a 1s sleeping-ns period")
	}
}

func TestValidateRejectsSleepingStrategyWithNoSleepFor(t *testing.T) {
	cfg := &Config{
		Idle:    defaultIdleConfig(),
		Runners: map[string]RunnerConfig{"a": {Idle: &IdleConfig{Strategy: "sleeping-ms"}}},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for sleeping-ms strategy with zero sleep_for")
	}
	if !errors.Is(err, agent.ErrPrecondition) {
		t.Errorf("expected agent.ErrPrecondition, got %v", err)
	}
}

func TestApplyDefaultsBackfillsRunnerIdleFieldsBesidesStrategy(t *testing.T) {
	cfg := &Config{
		Runners: map[string]RunnerConfig{
			"worker": {Idle: &IdleConfig{Strategy: "sleeping-ms"}},
		},
	}
	cfg.applyDefaults()

	got := cfg.Runners["worker"].Idle
	if got.MaxSpins != cfg.Idle.MaxSpins {
		t.Errorf("expected MaxSpins to inherit the deployment default %d, got %d", cfg.Idle.MaxSpins, got.MaxSpins)
	}
	if got.MinPark != cfg.Idle.MinPark {
		t.Errorf("expected MinPark to inherit the deployment default %s, got %s", cfg.Idle.MinPark, got.MinPark)
	}
}

func TestApplyDefaultsPreservesExplicitFieldsWhenTopLevelStrategyIsEmptyString(t *testing.T) {
	cfg := &Config{Idle: IdleConfig{Strategy: "", MaxSpins: 50, MinPark: Duration(2 * time.Microsecond)}}
	cfg.Runners = map[string]RunnerConfig{"a": {}}
	cfg.applyDefaults()

	if cfg.Idle.MaxSpins != 50 {
		t.Errorf("expected explicit MaxSpins 50 to survive default-filling, got %d", cfg.Idle.MaxSpins)
	}
	if cfg.Idle.MinPark != Duration(2*time.Microsecond) {
		t.Errorf("expected explicit MinPark to survive default-filling, got %s", cfg.Idle.MinPark)
	}
	if cfg.Idle.Strategy != "backoff" {
		t.Errorf("expected empty strategy to be filled with the default, got %q", cfg.Idle.Strategy)
	}
}
