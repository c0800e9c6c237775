package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect localnet configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and where each value came from",
		Long: `Show the settings "localnet up" would run with.

Values are merged with priority default < localnet.toml < environment < flag.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := resolveEffectiveConfig(cmd)
	if err != nil {
		return handleCommandError(cmd, err)
	}

	w := cmd.OutOrStdout()
	if cfg.ConfigFilePath != "" {
		fmt.Fprintf(w, "Config file: %s\n\n", cfg.ConfigFilePath)
	} else {
		fmt.Fprint(w, "Config file: none\n\n")
	}
	cfg.ToTable(w)
	return nil
}
