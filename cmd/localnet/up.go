package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/localnet/internal/config"
	"github.com/altuslabsxyz/localnet/internal/genesis"
	"github.com/altuslabsxyz/localnet/internal/output"
	"github.com/altuslabsxyz/localnet/internal/runner"
	"github.com/altuslabsxyz/localnet/internal/testnet"
)

// RunLogFile receives the structured run log under the testnet home.
const RunLogFile = "localnet.log"

type upOptions struct {
	buildPath string
	daemon    string
	wallet    string
	chainID   string
	logLevel  string

	nodes        int
	settleBlocks int

	trace     bool
	signGentx bool
	yes       bool

	startupTimeout time.Duration
	settleTimeout  time.Duration
	settleDelay    time.Duration
}

var upFlags upOptions

func NewUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap and start a local testnet",
		Long: `Bootstrap a fresh local testnet and leave its nodes running.

The main node keeps the default ports 26658/26657/26656; validator I
listens on 3II58/3II57/3II56. Node output goes to <home>/nodes/nodeI/node.log
and a summary of the run is written to <home>/localnet.json.

Running against a home that already holds a testnet asks before wiping it;
--yes wipes without asking.`,
		Args: cobra.NoArgs,
		RunE: runUp,
	}

	cmd.Flags().StringVar(&upFlags.buildPath, "build-path", config.DefaultBuildPath,
		"Directory holding the daemon and wallet binaries")
	cmd.Flags().StringVar(&upFlags.daemon, "daemon", config.DefaultDaemon,
		"Daemon binary name")
	cmd.Flags().StringVar(&upFlags.wallet, "wallet", config.DefaultWallet,
		"Wallet binary name")
	cmd.Flags().StringVar(&upFlags.chainID, "chain-id", config.DefaultChainID,
		"Chain ID")
	cmd.Flags().StringVar(&upFlags.logLevel, "log-level", config.DefaultLogLevel,
		"Node log level, also sets the level of the run log")
	cmd.Flags().IntVarP(&upFlags.nodes, "nodes", "n", config.DefaultNodes,
		"Number of validator nodes (1-99)")
	cmd.Flags().BoolVar(&upFlags.trace, "trace", false,
		"Start nodes with --trace")
	cmd.Flags().BoolVar(&upFlags.signGentx, "sign-gentx", false,
		"Sign the genesis transaction")
	cmd.Flags().BoolVarP(&upFlags.yes, "yes", "y", false,
		"Wipe a previous testnet without asking")
	cmd.Flags().DurationVar(&upFlags.startupTimeout, "startup-timeout", config.DefaultStartupTimeout,
		"How long to wait for each node's RPC")
	cmd.Flags().IntVar(&upFlags.settleBlocks, "settle-blocks", config.DefaultSettleBlocks,
		"Blocks to wait between validator creation and delegation (0 uses --settle-delay)")
	cmd.Flags().DurationVar(&upFlags.settleTimeout, "settle-timeout", config.DefaultSettleTimeout,
		"Upper bound for the block wait")
	cmd.Flags().DurationVar(&upFlags.settleDelay, "settle-delay", config.DefaultSettleDelay,
		"Fixed wait used when --settle-blocks is 0")

	return cmd
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := output.DefaultLogger

	cfg, err := resolveEffectiveConfig(cmd)
	if err != nil {
		return handleCommandError(cmd, err)
	}

	overwrite := upFlags.yes
	if !overwrite {
		proceed, confirmed, err := confirmOverwrite(testnet.Layout{Home: cfg.Home.Value})
		if err != nil {
			return wrapInteractiveError(cmd, err, "confirmation failed")
		}
		if !proceed {
			out.Info("Operation cancelled.")
			return nil
		}
		overwrite = confirmed
	}

	if err := os.MkdirAll(cfg.Home.Value, 0o755); err != nil {
		return handleCommandError(cmd, fmt.Errorf("failed to create home: %w", err))
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.Home.Value, RunLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return handleCommandError(cmd, fmt.Errorf("failed to open run log: %w", err))
	}
	defer logFile.Close()
	logger := newStructuredLogger(logFile, cfg.LogLevel.Value, cfg.Verbose.Value)

	r := runner.New(runner.NewOSExecutor(), logger, out)
	orch := testnet.New(upOptionsFrom(cfg, overwrite), r, logger, out)
	out.Info("Bootstrapping %d validators under %s (run %s)", cfg.Nodes.Value, cfg.Home.Value, orch.RunID())

	manifest, err := orch.Up(ctx)
	if err != nil {
		return handleCommandError(cmd, err)
	}

	printManifest(out.Writer(), manifest)
	out.Success("Testnet %s is running with %d validators", manifest.ChainID, len(manifest.Nodes))
	return nil
}

func upOptionsFrom(cfg *config.EffectiveConfig, overwrite bool) testnet.Options {
	gen := genesis.DefaultConfig()
	gen.ChainID = cfg.ChainID.Value

	return testnet.Options{
		Home:           cfg.Home.Value,
		BuildPath:      cfg.BuildPath.Value,
		Daemon:         cfg.Daemon.Value,
		Wallet:         cfg.Wallet.Value,
		Nodes:          cfg.Nodes.Value,
		ChainID:        cfg.ChainID.Value,
		LogLevel:       cfg.LogLevel.Value,
		Trace:          cfg.Trace.Value,
		SignGentx:      cfg.SignGentx.Value,
		Overwrite:      overwrite,
		AddressPrefix:  testnet.DefaultAddressPrefix,
		StartupTimeout: cfg.StartupTimeout.Value,
		SettleBlocks:   cfg.SettleBlocks.Value,
		SettleTimeout:  cfg.SettleTimeout.Value,
		SettleDelay:    cfg.SettleDelay.Value,
		Genesis:        gen,
	}
}

// resolveEffectiveConfig merges defaults, localnet.toml and flags.
// Priority: default < localnet.toml < env < flag.
func resolveEffectiveConfig(cmd *cobra.Command) (*config.EffectiveConfig, error) {
	file := loadedFileConfig
	if file == nil {
		file = &config.FileConfig{}
	}

	cfg := config.NewEffectiveConfig(config.DefaultHome)
	cfg.ConfigFilePath = loadedConfigPath
	cfg.Home = config.StringValue{Value: homeDir, Source: homeSource}
	cfg.NoColor = config.BoolValue{Value: noColor, Source: noColorSource}
	cfg.Verbose = config.BoolValue{Value: verbose, Source: verboseSource}

	cfg.BuildPath.Value, cfg.BuildPath.Source = config.ApplyStringConfig(cmd, "build-path", upFlags.buildPath, file.BuildPath)
	cfg.Daemon.Value, cfg.Daemon.Source = config.ApplyStringConfig(cmd, "daemon", upFlags.daemon, file.Daemon)
	cfg.Wallet.Value, cfg.Wallet.Source = config.ApplyStringConfig(cmd, "wallet", upFlags.wallet, file.Wallet)
	cfg.ChainID.Value, cfg.ChainID.Source = config.ApplyStringConfig(cmd, "chain-id", upFlags.chainID, file.ChainID)
	cfg.LogLevel.Value, cfg.LogLevel.Source = config.ApplyStringConfig(cmd, "log-level", upFlags.logLevel, file.LogLevel)
	cfg.Nodes.Value, cfg.Nodes.Source = config.ApplyIntConfig(cmd, "nodes", upFlags.nodes, file.Nodes)
	cfg.Trace.Value, cfg.Trace.Source = config.ApplyBoolConfig(cmd, "trace", upFlags.trace, file.Trace)
	cfg.SignGentx.Value, cfg.SignGentx.Source = config.ApplyBoolConfig(cmd, "sign-gentx", upFlags.signGentx, file.SignGentx)
	cfg.StartupTimeout.Value, cfg.StartupTimeout.Source = config.ApplyDurationConfig(cmd, "startup-timeout", upFlags.startupTimeout, file.StartupTimeout)
	cfg.SettleBlocks.Value, cfg.SettleBlocks.Source = config.ApplyIntConfig(cmd, "settle-blocks", upFlags.settleBlocks, file.SettleBlocks)
	cfg.SettleTimeout.Value, cfg.SettleTimeout.Source = config.ApplyDurationConfig(cmd, "settle-timeout", upFlags.settleTimeout, file.SettleTimeout)
	cfg.SettleDelay.Value, cfg.SettleDelay.Source = config.ApplyDurationConfig(cmd, "settle-delay", upFlags.settleDelay, file.SettleDelay)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newStructuredLogger writes key/value run logs to w.
func newStructuredLogger(w io.Writer, nodeLogLevel string, verbose bool) log.Logger {
	return log.NewLogger(w,
		log.LevelOption(structuredLevel(nodeLogLevel, verbose)),
		log.ColorOption(false),
	)
}

// structuredLevel derives the run log level from a node log level such as
// "main:info,state:info,*:error". The main module entry wins over the
// wildcard; a bare level is used as is.
func structuredLevel(nodeLogLevel string, verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}

	var mainLevel, wildcard, bare string
	for _, part := range strings.Split(nodeLogLevel, ",") {
		module, level, found := strings.Cut(strings.TrimSpace(part), ":")
		switch {
		case !found:
			bare = module
		case module == "main":
			mainLevel = level
		case module == "*":
			wildcard = level
		}
	}

	for _, candidate := range []string{mainLevel, wildcard, bare} {
		if candidate == "" {
			continue
		}
		if lvl, err := zerolog.ParseLevel(candidate); err == nil {
			return lvl
		}
	}
	return zerolog.InfoLevel
}

func printManifest(w io.Writer, m *testnet.Manifest) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tPID\tRPC\tP2P\tLOG")
	for _, d := range m.Nodes {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", d.Name, d.PID, d.RPCURL(), d.Ports.P2P, d.LogFilePath())
	}
	tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IDENTITY\tADDRESS")
	for _, id := range m.Identities {
		fmt.Fprintf(tw, "%s\t%s\n", id.Name, id.Address)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nChain %s, supply %s, genesis sha256 %s\n", m.ChainID, m.Supply, m.GenesisSHA256)
	fmt.Fprintf(w, "Manifest: %s\n", filepath.Join(m.Home, testnet.ManifestFile))
}
