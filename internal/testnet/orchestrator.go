// Package testnet sequences the bootstrap of a local testnet: wallet and
// identities, genesis, node homes, configuration, launch, validator
// registration and the final manifest.
package testnet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/google/uuid"

	"github.com/altuslabsxyz/localnet/internal/genesis"
	"github.com/altuslabsxyz/localnet/internal/keys"
	"github.com/altuslabsxyz/localnet/internal/node"
	"github.com/altuslabsxyz/localnet/internal/nodeconfig"
	"github.com/altuslabsxyz/localnet/internal/output"
	"github.com/altuslabsxyz/localnet/internal/runner"
	"github.com/altuslabsxyz/localnet/internal/staking"
	"github.com/altuslabsxyz/localnet/internal/topology"
)

// Identity names every testnet generates besides one per validator.
const (
	RootIdentity = "kuchain"
	TestIdentity = "test"
)

// DefaultAddressPrefix is the bech32 account prefix of the reference chain.
const DefaultAddressPrefix = "kuchain"

// Phases is the number of progress stages Up reports.
const Phases = 8

// Options configures a bootstrap run.
type Options struct {
	Home      string
	BuildPath string
	Daemon    string
	Wallet    string

	Nodes     int
	ChainID   string
	LogLevel  string
	Trace     bool
	SignGentx bool
	Overwrite bool

	// AddressPrefix is the bech32 prefix of account addresses.
	AddressPrefix string

	StartupTimeout time.Duration
	SettleBlocks   int
	SettleTimeout  time.Duration
	SettleDelay    time.Duration

	// Genesis allocations; ChainID above takes precedence over the one here.
	Genesis genesis.Config
}

// DaemonPath returns the daemon binary path.
func (o Options) DaemonPath() string { return filepath.Join(o.BuildPath, o.Daemon) }

// WalletPath returns the wallet binary path.
func (o Options) WalletPath() string { return filepath.Join(o.BuildPath, o.Wallet) }

// Readiness waits for a launched node to answer.
type Readiness interface {
	WaitForHealthy(ctx context.Context, d *node.Descriptor, timeout time.Duration) (*node.Status, error)
}

// Orchestrator runs the bootstrap phases in order. It owns the identity
// registry and the node descriptors for the duration of a run.
type Orchestrator struct {
	opts   Options
	layout Layout
	runner *runner.Runner
	logger log.Logger
	out    *output.Logger
	poller *node.Poller
	ready  Readiness
	runID  string

	registry *keys.Registry
	nodes    []*node.Descriptor
	builder  *genesis.Builder
}

// New creates an Orchestrator. Nil loggers fall back to defaults.
func New(opts Options, r *runner.Runner, logger log.Logger, out *output.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if out == nil {
		out = output.DefaultLogger
	}
	runID := uuid.NewString()
	poller := node.NewPoller(0)
	return &Orchestrator{
		opts:   opts,
		layout: Layout{Home: opts.Home},
		runner: r,
		logger: logger.With("run_id", runID),
		out:    out,
		poller: poller,
		ready:  poller,
		runID:  runID,
	}
}

// WithReadiness replaces the RPC readiness check.
func (o *Orchestrator) WithReadiness(r Readiness) *Orchestrator {
	o.ready = r
	return o
}

// RunID returns the identifier of this run.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Up bootstraps the testnet. Any failure aborts immediately; nodes that were
// already launched keep running.
func (o *Orchestrator) Up(ctx context.Context) (*Manifest, error) {
	if err := topology.ValidateTotal(o.opts.Nodes); err != nil {
		return nil, err
	}
	progress := output.NewProgressWithWriter(Phases, o.out.Writer())

	progress.Stage("Preparing home directory")
	lock, err := AcquireLock(o.opts.Home, "up")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.logger.Error("failed to release lock", "err", err)
		}
	}()
	wiped, err := o.layout.Prepare(o.opts.Overwrite)
	if err != nil {
		return nil, err
	}
	if wiped {
		o.out.Warn("Removed previous testnet state under %s", o.opts.Home)
	}

	progress.Stage("Generating identities")
	db, err := dbm.NewDB(RegistryName, dbm.GoLevelDBBackend, o.layout.WalletHome())
	if err != nil {
		return nil, fmt.Errorf("failed to open identity registry: %w", err)
	}
	defer db.Close()
	if err := o.setupWallet(ctx, db); err != nil {
		return nil, err
	}

	progress.Stage("Building genesis")
	if err := o.buildGenesis(ctx); err != nil {
		return nil, err
	}

	progress.Stage("Initializing validator nodes")
	if err := o.initNodes(ctx); err != nil {
		return nil, err
	}

	progress.Stage("Configuring nodes")
	if err := o.configureNodes(); err != nil {
		return nil, err
	}

	progress.Stage("Launching nodes")
	if err := o.launchNodes(ctx); err != nil {
		return nil, err
	}

	progress.Stage("Registering validators")
	if err := o.registerValidators(ctx); err != nil {
		return nil, err
	}

	progress.Stage("Writing manifest")
	manifest, err := o.writeManifest()
	if err != nil {
		return nil, err
	}

	progress.Done(fmt.Sprintf("Testnet %s is up with %d validators", o.opts.ChainID, o.opts.Nodes))
	return manifest, nil
}

func (o *Orchestrator) walletSettings() []nodeconfig.Setting {
	main, _ := node.NewDescriptor(topology.MainIndex, o.layout.NodesHome())
	return []nodeconfig.Setting{
		{Key: "chain-id", Value: o.opts.ChainID},
		{Key: "trust-node", Value: "true"},
		{Key: "keyring-backend", Value: keys.KeyringBackend},
		{Key: "node", Value: main.Ports.RPCAddress(topology.DefaultHost)},
	}
}

func (o *Orchestrator) setupWallet(ctx context.Context, db dbm.DB) error {
	settings := nodeconfig.NewToolSettings(o.runner, o.opts.WalletPath())
	if err := settings.Apply(ctx, o.layout.WalletHome(), o.walletSettings()); err != nil {
		return fmt.Errorf("failed to configure wallet: %w", err)
	}

	wallet := keys.NewCLIWallet(o.runner, o.opts.WalletPath(), o.layout.WalletHome())
	o.registry = keys.NewRegistry(db, wallet, o.opts.AddressPrefix)

	names := []string{RootIdentity, TestIdentity}
	for i := 1; i <= o.opts.Nodes; i++ {
		names = append(names, topology.NodeName(i))
	}
	for _, name := range names {
		id, err := o.registry.Generate(ctx, name)
		if err != nil {
			return err
		}
		o.logger.Info("identity generated", "name", name, "address", id.Address)
		o.out.Debug("%s: %s", name, id.Address)
	}
	return nil
}

func (o *Orchestrator) buildGenesis(ctx context.Context) error {
	o.nodes = make([]*node.Descriptor, 0, o.opts.Nodes+1)
	for i := 0; i <= o.opts.Nodes; i++ {
		d, err := node.NewDescriptor(i, o.layout.NodesHome())
		if err != nil {
			return err
		}
		o.nodes = append(o.nodes, d)
	}
	main := o.nodes[topology.MainIndex]

	cfg := o.opts.Genesis
	cfg.Daemon = o.opts.DaemonPath()
	cfg.Home = main.HomeDir
	cfg.WalletHome = o.layout.WalletHome()
	cfg.ChainID = o.opts.ChainID
	builder, err := genesis.NewBuilder(cfg, o.runner, o.logger)
	if err != nil {
		return err
	}
	o.builder = builder

	root, err := o.registry.Lookup(RootIdentity)
	if err != nil {
		return err
	}
	test, err := o.registry.Lookup(TestIdentity)
	if err != nil {
		return err
	}
	accts := genesis.Accounts{MainAddress: root.Address, TestAddress: test.Address}
	for _, d := range o.nodes[1:] {
		id, err := o.registry.Lookup(d.Name)
		if err != nil {
			return err
		}
		accts.Validators = append(accts.Validators, genesis.Validator{Name: id.Name, Address: id.Address})
	}

	if err := builder.InitChain(ctx); err != nil {
		return err
	}
	if err := builder.InitGenesis(ctx, accts); err != nil {
		return err
	}
	if err := builder.CollectGenesisTransactions(ctx, root.Address, o.opts.SignGentx); err != nil {
		return err
	}

	chainID, err := genesis.ReadChainID(main.HomeDir)
	if err != nil {
		return err
	}
	if chainID != o.opts.ChainID {
		return fmt.Errorf("genesis chain id %q does not match %q", chainID, o.opts.ChainID)
	}
	digest, err := genesis.Digest(main.HomeDir)
	if err != nil {
		return err
	}
	main.GenesisDigest = digest
	return nil
}

func (o *Orchestrator) initNodes(ctx context.Context) error {
	initializer := node.NewInitializer(o.runner, o.opts.DaemonPath())

	for _, d := range o.nodes[1:] {
		if err := initializer.Init(ctx, d, o.opts.ChainID); err != nil {
			return err
		}
		digest, err := o.builder.CopyTo(d.HomeDir)
		if err != nil {
			return fmt.Errorf("failed to copy genesis to %s: %w", d.Name, err)
		}
		d.GenesisDigest = digest
	}

	for _, d := range o.nodes {
		if err := initializer.Identify(ctx, d); err != nil {
			return err
		}
		o.logger.Info("node initialized", "node", d.Name, "node_id", d.NodeID)
	}
	return nil
}

func (o *Orchestrator) configureNodes() error {
	ids := make(map[int]string, len(o.nodes))
	for _, d := range o.nodes {
		ids[d.Index] = d.NodeID
	}

	for _, d := range o.nodes {
		editor := nodeconfig.NewConfigEditor(d.HomeDir)
		if !d.IsMain() {
			if err := editor.Rebind(d.Ports); err != nil {
				return fmt.Errorf("failed to rebind %s: %w", d.Name, err)
			}
		}

		peers, err := topology.PeersFor(d.Index, o.opts.Nodes, ids)
		if err != nil {
			return err
		}
		if err := editor.SetPeers(peers); err != nil {
			return err
		}
		if err := editor.SetLocalP2P(); err != nil {
			return err
		}

		d.Peers = d.Peers[:0]
		for _, p := range peers {
			d.Peers = append(d.Peers, p.String())
		}
		if err := d.Save(); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) launchNodes(ctx context.Context) error {
	launcher := node.NewLauncher(o.runner, o.opts.DaemonPath(), o.opts.LogLevel, o.opts.Trace)
	main := o.nodes[topology.MainIndex]

	if err := o.launch(launcher, main); err != nil {
		return err
	}
	if err := o.waitReady(ctx, main); err != nil {
		return err
	}

	validators := o.nodes[1:]
	for _, d := range validators {
		if err := o.launch(launcher, d); err != nil {
			return err
		}
	}
	for _, d := range validators {
		if err := o.waitReady(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) launch(l *node.Launcher, d *node.Descriptor) error {
	if err := l.Launch(d); err != nil {
		return err
	}
	o.out.Debug("Started %s (PID %d, RPC %s)", d.Name, d.PID, d.RPCURL())
	return d.Save()
}

func (o *Orchestrator) waitReady(ctx context.Context, d *node.Descriptor) error {
	st, err := o.ready.WaitForHealthy(ctx, d, o.opts.StartupTimeout)
	if err != nil {
		var notReady *node.NotReadyError
		if errors.As(err, &notReady) {
			o.out.PrintNodeError(notReady.ErrorInfo(d))
		}
		return err
	}
	o.logger.Info("node ready", "node", d.Name, "height", st.BlockHeight)
	return nil
}

func (o *Orchestrator) registerValidators(ctx context.Context) error {
	main := o.nodes[topology.MainIndex]
	settler := staking.NewSettler(o.poller, main, int64(o.opts.SettleBlocks), o.opts.SettleTimeout, o.opts.SettleDelay)
	registrar := staking.NewRegistrar(staking.Config{
		Wallet:     o.opts.WalletPath(),
		WalletHome: o.layout.WalletHome(),
		ChainID:    o.opts.ChainID,
		Node:       main.Ports.RPCAddress(topology.DefaultHost),
		Denom:      o.opts.Genesis.Denom,
	}, o.runner, settler, o.logger)

	reqs := make([]staking.Request, 0, len(o.nodes)-1)
	for _, d := range o.nodes[1:] {
		reqs = append(reqs, staking.Request{
			Validator:       d.Name,
			ConsensusPubKey: d.ConsensusPubKey,
			CommissionRate:  staking.DefaultCommissionRate,
			Moniker:         d.Name,
			SelfDelegation:  staking.DefaultSelfDelegation(),
		})
	}
	return registrar.Register(ctx, reqs)
}

func (o *Orchestrator) writeManifest() (*Manifest, error) {
	ids, err := o.registry.List()
	if err != nil {
		return nil, err
	}
	ledger := o.builder.Ledger()
	m := &Manifest{
		RunID:         o.runID,
		ChainID:       o.opts.ChainID,
		Denom:         o.opts.Genesis.Denom,
		CreatedAt:     time.Now().UTC(),
		Home:          o.opts.Home,
		GenesisSHA256: o.nodes[topology.MainIndex].GenesisDigest,
		Supply:        ledger.Coin(ledger.Total()),
		Nodes:         o.nodes,
		Identities:    ids,
	}
	if err := m.Save(o.layout.ManifestPath()); err != nil {
		return nil, err
	}
	return m, nil
}
