package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/localnet/internal/config"
	"github.com/altuslabsxyz/localnet/internal/output"
)

// EnvHome overrides the default testnet home.
const EnvHome = "LOCALNET_HOME"

// Global configuration variables
var (
	homeDir    string
	noColor    bool
	verbose    bool
	configPath string // Path to localnet.toml (--config flag)

	// loadedFileConfig holds the parsed localnet.toml values (empty if no file)
	loadedFileConfig *config.FileConfig
	// loadedConfigPath is the last file merged into loadedFileConfig
	loadedConfigPath string

	homeSource    = config.SourceDefault
	noColorSource = config.SourceDefault
	verboseSource = config.SourceDefault
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localnet",
		Short: "Bootstrap a local multi-validator KuChain testnet",
		Long: `localnet bootstraps a local proof-of-stake testnet from prebuilt
daemon and wallet binaries.

It generates identities, builds and distributes one genesis, gives every
node its own ports and peers, launches the nodes in the background and
registers each validator with a self-delegation.

Examples:
  # Start a main node plus 3 validators under ./testnet
  localnet up

  # 5 validators, wiping any previous testnet without asking
  localnet up --nodes 5 --yes

  # Show the ports and peers a 4-validator testnet would use
  localnet plan --nodes 4`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadGlobalConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&homeDir, "home", config.DefaultHome,
		"Base directory for testnet data")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to localnet.toml file")

	cmd.AddCommand(
		NewUpCmd(),
		NewPlanCmd(),
		NewConfigCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// loadGlobalConfig merges localnet.toml, environment and flags into the
// global settings. Priority: default < localnet.toml < env < flag.
func loadGlobalConfig(cmd *cobra.Command) error {
	loader := config.NewConfigLoader(homeDir, configPath, output.DefaultLogger)
	fileCfg, configFilePath, err := loader.LoadFileConfig()
	if err != nil {
		return err
	}
	loadedFileConfig = fileCfg
	loadedConfigPath = configFilePath

	homeDir, homeSource = config.ApplyStringConfig(cmd, "home", homeDir, fileCfg.Home)
	verbose, verboseSource = config.ApplyBoolConfig(cmd, "verbose", verbose, fileCfg.Verbose)
	noColor, noColorSource = config.ApplyBoolConfig(cmd, "no-color", noColor, fileCfg.NoColor)

	homeDir, homeSource = config.ApplyEnvString(cmd, "home", homeDir, os.Getenv(EnvHome), homeSource)
	noColor, noColorSource = config.ApplyEnvBool(cmd, "no-color", noColor, os.Getenv("NO_COLOR") != "", noColorSource)

	if configFilePath != "" && verbose {
		output.DefaultLogger.Debug("Using config file: %s", configFilePath)
	}

	output.DefaultLogger.SetNoColor(noColor)
	output.DefaultLogger.SetVerbose(verbose)
	return nil
}
