package config

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Defaults for the reference chain.
const (
	DefaultDaemon         = "kucd"
	DefaultWallet         = "kucli"
	DefaultBuildPath      = "../build"
	DefaultHome           = "./testnet"
	DefaultChainID        = "testing"
	DefaultNodes          = 3
	DefaultLogLevel       = "main:info,state:info,*:error"
	DefaultStartupTimeout = 60 * time.Second
	DefaultSettleBlocks   = 2
	DefaultSettleTimeout  = 60 * time.Second
	DefaultSettleDelay    = 10 * time.Second
)

// EffectiveConfig represents the final merged configuration after applying priority chain.
type EffectiveConfig struct {
	// Global settings
	Home    StringValue
	NoColor BoolValue
	Verbose BoolValue

	// Binaries
	BuildPath StringValue
	Daemon    StringValue
	Wallet    StringValue

	// Chain settings
	Nodes     IntValue
	ChainID   StringValue
	LogLevel  StringValue
	Trace     BoolValue
	SignGentx BoolValue

	// Readiness
	StartupTimeout DurationValue
	SettleBlocks   IntValue
	SettleTimeout  DurationValue
	SettleDelay    DurationValue

	// Metadata
	ConfigFilePath string // Path to loaded config file (empty if none)
}

// NewEffectiveConfig creates a new EffectiveConfig with default values.
func NewEffectiveConfig(defaultHomeDir string) *EffectiveConfig {
	return &EffectiveConfig{
		Home:           NewStringValue(defaultHomeDir),
		NoColor:        NewBoolValue(false),
		Verbose:        NewBoolValue(false),
		BuildPath:      NewStringValue(DefaultBuildPath),
		Daemon:         NewStringValue(DefaultDaemon),
		Wallet:         NewStringValue(DefaultWallet),
		Nodes:          NewIntValue(DefaultNodes),
		ChainID:        NewStringValue(DefaultChainID),
		LogLevel:       NewStringValue(DefaultLogLevel),
		Trace:          NewBoolValue(false),
		SignGentx:      NewBoolValue(false),
		StartupTimeout: NewDurationValue(DefaultStartupTimeout),
		SettleBlocks:   NewIntValue(DefaultSettleBlocks),
		SettleTimeout:  NewDurationValue(DefaultSettleTimeout),
		SettleDelay:    NewDurationValue(DefaultSettleDelay),
	}
}

// ToTable writes the configuration as a formatted table.
func (c *EffectiveConfig) ToTable(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	fmt.Fprintf(tw, "home\t%s\t%s\n", c.Home.Value, c.Home.Source)
	fmt.Fprintf(tw, "no_color\t%t\t%s\n", c.NoColor.Value, c.NoColor.Source)
	fmt.Fprintf(tw, "verbose\t%t\t%s\n", c.Verbose.Value, c.Verbose.Source)
	fmt.Fprintf(tw, "build_path\t%s\t%s\n", c.BuildPath.Value, c.BuildPath.Source)
	fmt.Fprintf(tw, "daemon\t%s\t%s\n", c.Daemon.Value, c.Daemon.Source)
	fmt.Fprintf(tw, "wallet\t%s\t%s\n", c.Wallet.Value, c.Wallet.Source)
	fmt.Fprintf(tw, "nodes\t%d\t%s\n", c.Nodes.Value, c.Nodes.Source)
	fmt.Fprintf(tw, "chain_id\t%s\t%s\n", c.ChainID.Value, c.ChainID.Source)
	fmt.Fprintf(tw, "log_level\t%s\t%s\n", c.LogLevel.Value, c.LogLevel.Source)
	fmt.Fprintf(tw, "trace\t%t\t%s\n", c.Trace.Value, c.Trace.Source)
	fmt.Fprintf(tw, "sign_gentx\t%t\t%s\n", c.SignGentx.Value, c.SignGentx.Source)
	fmt.Fprintf(tw, "startup_timeout\t%s\t%s\n", c.StartupTimeout.Value, c.StartupTimeout.Source)
	fmt.Fprintf(tw, "settle_blocks\t%d\t%s\n", c.SettleBlocks.Value, c.SettleBlocks.Source)
	fmt.Fprintf(tw, "settle_timeout\t%s\t%s\n", c.SettleTimeout.Value, c.SettleTimeout.Source)
	fmt.Fprintf(tw, "settle_delay\t%s\t%s\n", c.SettleDelay.Value, c.SettleDelay.Source)
	tw.Flush()
}
