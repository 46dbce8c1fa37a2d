package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/aixgo-dev/agentrt/agentrunner"
	"github.com/aixgo-dev/agentrt/pkg/config"
	"github.com/aixgo-dev/agentrt/pkg/observability"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start every runner named in the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunners(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "agentctl.yaml", "path to the YAML configuration file")
	return cmd
}

func runRunners(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewRunnerMetrics(reg)
	health := observability.NewHealthChecker()

	tracer, shutdownTracing, err := observability.InitTracing(observability.TracingConfigFromEnv())
	if err != nil {
		return fmt.Errorf("agentctl: init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	runners := make(map[string]*agentrunner.Runner, len(cfg.Runners))
	for name, rc := range cfg.Runners {
		b, err := lookupBuilder(name)
		if err != nil {
			return err
		}

		idle := cfg.Idle
		if rc.Idle != nil {
			idle = *rc.Idle
		}
		strategy, err := config.BuildStrategy(idle)
		if err != nil {
			return fmt.Errorf("agentctl: runner %q: %w", name, err)
		}

		closeTimeout := cfg.CloseTimeout
		if rc.CloseTimeout != nil {
			closeTimeout = *rc.CloseTimeout
		}

		a := b(name)
		r := agentrunner.New(strategy, a,
			agentrunner.WithMetrics(metrics),
			agentrunner.WithTracer(tracer),
			agentrunner.WithCloseTimeout(closeTimeout.Dur()),
			agentrunner.WithErrorHandler(func(a agent.Agent, err error) {
				log.Printf("agentctl: %s: lifecycle error: %v", a.Name(), err)
			}),
		)
		runners[name] = r
		health.RegisterCheck(observability.RunnerCheck(name, r))
	}

	started := make([]string, 0, len(runners))
	for name, r := range runners {
		if err := r.Start(); err != nil {
			for _, startedName := range started {
				_ = runners[startedName].Close(closeTimeoutFor(cfg, startedName).Dur())
			}
			return fmt.Errorf("agentctl: start %q: %w", name, err)
		}
		started = append(started, name)
	}

	var obsServer *observability.Server
	if cfg.Observability.Enabled {
		obsServer = observability.NewServer(
			cfg.Observability.ListenAddr, health, reg,
			cfg.Observability.RateLimitPerSecond, cfg.Observability.RateLimitBurst,
		)
		go func() {
			log.Printf("agentctl: observability server listening on %s", cfg.Observability.ListenAddr)
			if err := obsServer.Start(); err != nil {
				log.Printf("agentctl: observability server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("agentctl: shutting down")
	for name, r := range runners {
		if err := r.Close(closeTimeoutFor(cfg, name).Dur()); err != nil {
			log.Printf("agentctl: close %q: %v", name, err)
		}
	}

	if obsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Observability.ShutdownTimeout.Dur())
		defer cancel()
		if err := obsServer.Shutdown(ctx); err != nil {
			log.Printf("agentctl: observability server shutdown: %v", err)
		}
	}

	return nil
}

func closeTimeoutFor(cfg *config.Config, name string) config.Duration {
	if rc, ok := cfg.Runners[name]; ok && rc.CloseTimeout != nil {
		return *rc.CloseTimeout
	}
	return cfg.CloseTimeout
}
