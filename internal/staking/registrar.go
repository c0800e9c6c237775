// Package staking registers the validators of a running local testnet:
// one create-validator per node, a single settle wait, then one
// self-delegation per node.
package staking

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/altuslabsxyz/localnet/internal/runner"
)

// Defaults used by the reference chain.
const (
	DefaultModule         = "kustaking"
	DefaultCommissionRate = "0.10"
)

// DefaultSelfDelegation is the stake every validator bonds to itself.
func DefaultSelfDelegation() math.Int {
	return math.NewIntWithDecimal(1, 24)
}

// Request describes the registration of one validator.
type Request struct {
	Validator       string
	ConsensusPubKey string
	CommissionRate  string
	Moniker         string
	SelfDelegation  math.Int
}

// Validate checks the commission rate and delegation amount.
func (r Request) Validate() error {
	if r.Validator == "" || r.ConsensusPubKey == "" {
		return fmt.Errorf("validator name and consensus pubkey are required")
	}
	rate, err := math.LegacyNewDecFromStr(r.CommissionRate)
	if err != nil {
		return fmt.Errorf("invalid commission rate %q for %s: %w", r.CommissionRate, r.Validator, err)
	}
	if rate.IsNegative() || rate.GT(math.LegacyOneDec()) {
		return fmt.Errorf("commission rate %s for %s must be within [0, 1]", rate, r.Validator)
	}
	if r.SelfDelegation.IsNil() || !r.SelfDelegation.IsPositive() {
		return fmt.Errorf("self-delegation for %s must be positive", r.Validator)
	}
	return nil
}

// Config describes how staking transactions are submitted.
type Config struct {
	Wallet     string
	WalletHome string
	ChainID    string
	Node       string
	Denom      string
	Module     string
}

// Registrar submits staking transactions through the wallet binary.
type Registrar struct {
	cfg     Config
	runner  *runner.Runner
	settler Settler
	logger  log.Logger
}

// NewRegistrar creates a Registrar waiting on settler between phases.
func NewRegistrar(cfg Config, r *runner.Runner, settler Settler, logger log.Logger) *Registrar {
	if cfg.Module == "" {
		cfg.Module = DefaultModule
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registrar{cfg: cfg, runner: r, settler: settler, logger: logger.With("module", "staking")}
}

// Register submits a create-validator transaction for every request, waits
// once on the settler, then submits every self-delegation. Requests are all
// validated before anything is submitted. Inclusion is not confirmed.
func (r *Registrar) Register(ctx context.Context, reqs []Request) error {
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return err
		}
	}
	if err := sdk.ValidateDenom(r.cfg.Denom); err != nil {
		return fmt.Errorf("invalid denom: %w", err)
	}

	for _, req := range reqs {
		r.logger.Info("creating validator", "validator", req.Validator, "moniker", req.Moniker)
		if err := r.runner.Run(ctx, r.createValidator(req)); err != nil {
			return fmt.Errorf("failed to create validator %s: %w", req.Validator, err)
		}
	}

	if err := r.settler.Settle(ctx); err != nil {
		return fmt.Errorf("failed waiting for validators to settle: %w", err)
	}

	for _, req := range reqs {
		r.logger.Info("delegating", "validator", req.Validator, "amount", req.SelfDelegation.String())
		if err := r.runner.Run(ctx, r.delegate(req)); err != nil {
			return fmt.Errorf("failed to delegate to %s: %w", req.Validator, err)
		}
	}
	return nil
}

func (r *Registrar) tx(args ...string) runner.Command {
	return runner.NewCommand(r.cfg.Wallet, append([]string{"tx", r.cfg.Module}, args...)...)
}

func (r *Registrar) common(cmd runner.Command, from string) runner.Command {
	return cmd.With(
		"--from", from,
		"--chain-id", r.cfg.ChainID,
		"--node", r.cfg.Node,
		"--home", r.cfg.WalletHome,
		"--keyring-backend", "test",
		"--yes",
	)
}

func (r *Registrar) createValidator(req Request) runner.Command {
	moniker := req.Moniker
	if moniker == "" {
		moniker = req.Validator
	}
	return r.common(r.tx("create-validator", req.Validator,
		"--pubkey", req.ConsensusPubKey,
		"--moniker", moniker,
		"--commission-rate", req.CommissionRate,
	), req.Validator)
}

func (r *Registrar) delegate(req Request) runner.Command {
	amount := sdk.Coin{Denom: r.cfg.Denom, Amount: req.SelfDelegation}.String()
	return r.common(r.tx("delegate", req.Validator, req.Validator, amount), req.Validator)
}
