package main

import (
	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentctl",
		Short:         "Run and inspect agentrt agent runners",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())

	return root
}
