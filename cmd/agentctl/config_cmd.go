package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aixgo-dev/agentrt/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or generate agentctl configuration files",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file running the built-in counter agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{
				Idle: config.IdleConfig{
					Strategy:  "backoff",
					MaxSpins:  10,
					MaxYields: 5,
					MinPark:   config.Duration(time.Microsecond),
					MaxPark:   config.Duration(time.Millisecond),
				},
				CloseTimeout: config.Duration(100 * time.Millisecond),
				Runners: map[string]config.RunnerConfig{
					"counter": {},
				},
				Observability: config.ObservabilityConfig{
					Enabled:            true,
					ListenAddr:         ":9090",
					RateLimitPerSecond: 10,
					RateLimitBurst:     20,
					ShutdownTimeout:    config.Duration(5 * time.Second),
				},
			}
			if err := config.Save(cfg, outPath); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "agentctl.yaml", "path to write the generated config to")
	return cmd
}
