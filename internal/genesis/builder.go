// Package genesis assembles the genesis state of a local testnet on the main
// node and distributes it verbatim to every validator home.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/altuslabsxyz/localnet/internal/runner"
)

// CoinDescription is passed to add-coin when registering the core denom.
const CoinDescription = "main core"

// ErrValidatorsNotSeeded is returned when gentx collection runs before
// InitGenesis seeded the accounts and validators.
var ErrValidatorsNotSeeded = errors.New("validators must be seeded into genesis before collecting gentxs")

// Config describes the chain the builder assembles.
type Config struct {
	Daemon      string
	Home        string
	WalletHome  string
	ChainID     string
	Denom       string
	RootAccount string
	RootKey     string

	MaxSupply       math.Int
	MainAllocation  math.Int
	RootAllocation  math.Int
	TestAllocation  math.Int
	ValidatorCredit math.Int
	TestAccounts    []string
}

// DefaultConfig returns the allocations used by the reference chain.
func DefaultConfig() Config {
	return Config{
		ChainID:         "testing",
		Denom:           "kuchain/sys",
		RootAccount:     "kuchain",
		RootKey:         "kuchain",
		MaxSupply:       pow10(39),
		MainAllocation:  pow10(32),
		RootAllocation:  pow10(32),
		TestAllocation:  pow10(22),
		ValidatorCredit: pow10(26),
		TestAccounts:    []string{"testacc1", "testacc2"},
	}
}

// Validate checks the denom and that every amount is set.
func (c Config) Validate() error {
	if c.Daemon == "" || c.Home == "" {
		return fmt.Errorf("daemon binary and home are required")
	}
	if c.ChainID == "" {
		return fmt.Errorf("chain id is required")
	}
	if c.RootAccount == "" || c.RootKey == "" {
		return fmt.Errorf("root account and key are required")
	}
	if err := sdk.ValidateDenom(c.Denom); err != nil {
		return fmt.Errorf("invalid denom: %w", err)
	}
	for name, amt := range map[string]math.Int{
		"max supply":       c.MaxSupply,
		"main allocation":  c.MainAllocation,
		"root allocation":  c.RootAllocation,
		"test allocation":  c.TestAllocation,
		"validator credit": c.ValidatorCredit,
	} {
		if amt.IsNil() || !amt.IsPositive() {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Validator is a validator identity seeded into genesis.
type Validator struct {
	Name    string
	Address string
}

// Accounts are the addresses InitGenesis credits.
type Accounts struct {
	MainAddress string
	TestAddress string
	Validators  []Validator
}

// Builder runs the daemon's genesis subcommands against the main node home.
type Builder struct {
	cfg    Config
	runner *runner.Runner
	logger log.Logger
	ledger *Ledger
	seeded bool
}

// NewBuilder creates a Builder. cfg must pass Validate.
func NewBuilder(cfg Config, r *runner.Runner, logger log.Logger) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Builder{
		cfg:    cfg,
		runner: r,
		logger: logger.With("module", "genesis"),
		ledger: NewLedger(cfg.Denom, cfg.MaxSupply),
	}, nil
}

// Ledger returns the credits seeded so far.
func (b *Builder) Ledger() *Ledger {
	return b.ledger
}

// GenesisPath returns the main node's genesis file.
func (b *Builder) GenesisPath() string {
	return Path(b.cfg.Home)
}

// Path returns the genesis file inside a node home.
func Path(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

func (b *Builder) daemon(args ...string) runner.Command {
	return runner.NewCommand(b.cfg.Daemon, args...).With("--home", b.cfg.Home)
}

// InitChain initializes the main node home for the configured chain id.
func (b *Builder) InitChain(ctx context.Context) error {
	b.logger.Info("initializing chain", "chain_id", b.cfg.ChainID, "home", b.cfg.Home)
	return b.runner.Run(ctx, b.daemon("init", "--chain-id", b.cfg.ChainID, b.cfg.ChainID))
}

// InitGenesis registers the core coin and seeds every account and validator.
// The supply check runs before any command so a rejected plan leaves the
// genesis file untouched.
func (b *Builder) InitGenesis(ctx context.Context, accts Accounts) error {
	if accts.MainAddress == "" || accts.TestAddress == "" {
		return fmt.Errorf("main and test addresses are required")
	}

	ledger := NewLedger(b.cfg.Denom, b.cfg.MaxSupply)
	ledger.Credit(accts.MainAddress, b.cfg.MainAllocation)
	ledger.Credit(b.cfg.RootAccount, b.cfg.RootAllocation)
	for _, name := range b.cfg.TestAccounts {
		ledger.Credit(name, b.cfg.TestAllocation)
	}
	for _, v := range accts.Validators {
		ledger.Credit(v.Name, b.cfg.ValidatorCredit)
	}
	if err := ledger.Check(); err != nil {
		return err
	}

	cmds := []runner.Command{
		b.daemon("genesis", "add-address", accts.MainAddress),
		b.daemon("genesis", "add-coin", ledger.Coin(b.cfg.MaxSupply), CoinDescription),
		b.daemon("genesis", "add-account", b.cfg.RootAccount, accts.MainAddress),
		b.daemon("genesis", "add-account-coin", accts.MainAddress, ledger.Coin(b.cfg.MainAllocation)),
		b.daemon("genesis", "add-account-coin", b.cfg.RootAccount, ledger.Coin(b.cfg.RootAllocation)),
	}
	for _, name := range b.cfg.TestAccounts {
		cmds = append(cmds,
			b.daemon("genesis", "add-account", name, accts.TestAddress),
			b.daemon("genesis", "add-account-coin", name, ledger.Coin(b.cfg.TestAllocation)),
		)
	}
	for _, v := range accts.Validators {
		cmds = append(cmds,
			b.daemon("genesis", "add-address", v.Address),
			b.daemon("genesis", "add-account", v.Name, v.Address),
			b.daemon("genesis", "add-account-coin", v.Name, ledger.Coin(b.cfg.ValidatorCredit)),
		)
	}

	for _, cmd := range cmds {
		if err := b.runner.Run(ctx, cmd); err != nil {
			return fmt.Errorf("failed to seed genesis: %w", err)
		}
	}

	b.ledger = ledger
	b.seeded = true
	b.logger.Info("genesis seeded",
		"credits", len(ledger.Credits()),
		"validators", len(accts.Validators),
		"supply", ledger.Coin(ledger.Total()))
	return nil
}

// CollectGenesisTransactions creates the root authority's gentx, signing it
// when sign is set, and merges every gentx into genesis.
func (b *Builder) CollectGenesisTransactions(ctx context.Context, mainAddress string, sign bool) error {
	if !b.seeded {
		return ErrValidatorsNotSeeded
	}

	gentx := b.daemon("gentx", b.cfg.RootAccount, mainAddress,
		"--name", b.cfg.RootKey,
		"--home-client", b.cfg.WalletHome,
		"--keyring-backend", "test",
	)
	if sign {
		gentx = gentx.With("--sign")
	}
	if err := b.runner.Run(ctx, gentx); err != nil {
		return fmt.Errorf("failed to create gentx: %w", err)
	}
	if err := b.runner.Run(ctx, b.daemon("collect-gentxs")); err != nil {
		return fmt.Errorf("failed to collect gentxs: %w", err)
	}
	return nil
}

func pow10(exp int) math.Int {
	return math.NewIntWithDecimal(1, exp)
}
