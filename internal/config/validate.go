package config

import (
	"fmt"
	"time"

	"github.com/altuslabsxyz/localnet/types"
)

// Validate validates the EffectiveConfig values against allowed ranges and types.
func (c *EffectiveConfig) Validate() error {
	if err := validateNodes(c.Nodes.Value); err != nil {
		return err
	}
	if c.Home.Value == "" {
		return fmt.Errorf("home directory must not be empty")
	}
	if c.ChainID.Value == "" {
		return fmt.Errorf("chain id must not be empty")
	}
	if c.Daemon.Value == "" || c.Wallet.Value == "" {
		return fmt.Errorf("daemon and wallet binary names must not be empty")
	}
	if c.StartupTimeout.Value <= 0 {
		return fmt.Errorf("invalid startup timeout: %s (must be positive)", c.StartupTimeout.Value)
	}
	if c.SettleBlocks.Value < 0 {
		return fmt.Errorf("invalid settle blocks: %d (must be >= 0)", c.SettleBlocks.Value)
	}
	if c.SettleBlocks.Value > 0 && c.SettleTimeout.Value <= 0 {
		return fmt.Errorf("invalid settle timeout: %s (must be positive)", c.SettleTimeout.Value)
	}
	if c.SettleBlocks.Value == 0 && c.SettleDelay.Value < 0 {
		return fmt.Errorf("invalid settle delay: %s", c.SettleDelay.Value)
	}
	return nil
}

// ValidateFileConfig validates the FileConfig values before merging.
// This is called when loading the config file to provide early error messages.
func ValidateFileConfig(cfg *FileConfig) error {
	if cfg == nil {
		return nil
	}

	if cfg.Nodes != nil {
		if err := validateNodes(*cfg.Nodes); err != nil {
			return fmt.Errorf("in config file: %w", err)
		}
	}
	if cfg.SettleBlocks != nil && *cfg.SettleBlocks < 0 {
		return fmt.Errorf("invalid settle_blocks in config file: %d (must be >= 0)", *cfg.SettleBlocks)
	}

	for key, value := range map[string]*string{
		"startup_timeout": cfg.StartupTimeout,
		"settle_timeout":  cfg.SettleTimeout,
		"settle_delay":    cfg.SettleDelay,
	} {
		if value == nil {
			continue
		}
		if _, err := time.ParseDuration(*value); err != nil {
			return fmt.Errorf("invalid %s in config file: %q: %w", key, *value, err)
		}
	}

	return nil
}

func validateNodes(n int) error {
	if n < 1 || n > types.MaxNodeIndex {
		return fmt.Errorf("invalid nodes: %d (must be 1-%d)", n, types.MaxNodeIndex)
	}
	return nil
}
