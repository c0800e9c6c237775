package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/altuslabsxyz/localnet/internal/runner"
)

// Initializer runs the daemon's init and identity subcommands.
type Initializer struct {
	runner *runner.Runner
	binary string
}

// NewInitializer creates an Initializer for the daemon binary.
func NewInitializer(r *runner.Runner, binary string) *Initializer {
	return &Initializer{runner: r, binary: binary}
}

// Init runs `<daemon> init --chain-id C NAME --home H` for d.
func (i *Initializer) Init(ctx context.Context, d *Descriptor, chainID string) error {
	cmd := runner.NewCommand(i.binary, "init", "--chain-id", chainID, d.Name, "--home", d.HomeDir)
	if err := i.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to init %s: %w", d.Name, err)
	}
	return nil
}

// Identify records the node id and consensus public key of an initialized
// node home on d.
func (i *Initializer) Identify(ctx context.Context, d *Descriptor) error {
	nodeID, err := i.single(ctx, d, "show-node-id")
	if err != nil {
		return err
	}
	consPub, err := i.single(ctx, d, "show-validator")
	if err != nil {
		return err
	}
	d.NodeID = nodeID
	d.ConsensusPubKey = consPub
	return nil
}

func (i *Initializer) single(ctx context.Context, d *Descriptor, sub string) (string, error) {
	out, err := i.runner.Output(ctx, runner.NewCommand(i.binary, "tendermint", sub, "--home", d.HomeDir))
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", sub, d.Name, err)
	}
	value := strings.TrimSpace(out)
	if value == "" {
		return "", fmt.Errorf("empty %s output for %s", sub, d.Name)
	}
	return value, nil
}
