package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/localnet/internal/domain/common"
	"github.com/altuslabsxyz/localnet/internal/output"
)

// handleCommandError prints err with its user message and recovery hint,
// then returns an empty error so main exits non-zero without printing again.
func handleCommandError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	if common.ShouldSilenceUsage(err) {
		cmd.SilenceUsage = true
	}

	out := output.DefaultLogger
	out.Error("%s", common.GetUserMessage(err))
	if hint := common.GetRecoveryHint(err); hint != "" {
		fmt.Fprintf(out.ErrWriter(), "\nHint: %s\n", hint)
	}

	cmd.SilenceErrors = true
	return fmt.Errorf("")
}

// wrapInteractiveError treats a cancelled prompt as a clean exit.
func wrapInteractiveError(cmd *cobra.Command, err error, context string) error {
	if err == nil {
		return nil
	}

	if isCancellation(err) {
		output.Info("Operation cancelled.")
		return nil
	}

	if context != "" {
		return handleCommandError(cmd, fmt.Errorf("%s: %w", context, err))
	}
	return handleCommandError(cmd, err)
}

func isCancellation(err error) bool {
	return errors.Is(err, errCancelled)
}
