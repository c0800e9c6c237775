package config

// FileName is the name of the configuration file looked up in the home
// directory and the working directory.
const FileName = "localnet.toml"

// FileConfig represents the raw localnet.toml contents.
// All fields are pointers to distinguish "not set" from "set to zero/false".
type FileConfig struct {
	// Global settings
	Home    *string `toml:"home"`
	NoColor *bool   `toml:"no_color"`
	Verbose *bool   `toml:"verbose"`

	// Binaries
	BuildPath *string `toml:"build_path"`
	Daemon    *string `toml:"daemon"`
	Wallet    *string `toml:"wallet"`

	// Chain settings
	Nodes     *int    `toml:"nodes"`
	ChainID   *string `toml:"chain_id"`
	LogLevel  *string `toml:"log_level"`
	Trace     *bool   `toml:"trace"`
	SignGentx *bool   `toml:"sign_gentx"`

	// Readiness
	StartupTimeout *string `toml:"startup_timeout"` // e.g. "60s"
	SettleBlocks   *int    `toml:"settle_blocks"`
	SettleTimeout  *string `toml:"settle_timeout"`
	SettleDelay    *string `toml:"settle_delay"`
}

// IsEmpty returns true if no configuration values are set.
func (f *FileConfig) IsEmpty() bool {
	return *f == FileConfig{}
}

// mergeFileConfig merges src into dst. Non-nil values in src overwrite dst.
func mergeFileConfig(dst, src *FileConfig) {
	mergePtr(&dst.Home, src.Home)
	mergePtr(&dst.NoColor, src.NoColor)
	mergePtr(&dst.Verbose, src.Verbose)
	mergePtr(&dst.BuildPath, src.BuildPath)
	mergePtr(&dst.Daemon, src.Daemon)
	mergePtr(&dst.Wallet, src.Wallet)
	mergePtr(&dst.Nodes, src.Nodes)
	mergePtr(&dst.ChainID, src.ChainID)
	mergePtr(&dst.LogLevel, src.LogLevel)
	mergePtr(&dst.Trace, src.Trace)
	mergePtr(&dst.SignGentx, src.SignGentx)
	mergePtr(&dst.StartupTimeout, src.StartupTimeout)
	mergePtr(&dst.SettleBlocks, src.SettleBlocks)
	mergePtr(&dst.SettleTimeout, src.SettleTimeout)
	mergePtr(&dst.SettleDelay, src.SettleDelay)
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
