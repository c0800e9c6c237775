// Package node describes, initializes and launches the daemon processes of a
// local testnet and polls them until they answer on RPC.
package node

import (
	"fmt"
	"path/filepath"

	"github.com/altuslabsxyz/localnet/internal/helpers"
	"github.com/altuslabsxyz/localnet/internal/topology"
	"github.com/altuslabsxyz/localnet/types"
)

// File names inside a node home.
const (
	DescriptorFile = "node.json"
	LogFile        = "node.log"
)

// Descriptor is everything known about one node of the testnet.
type Descriptor struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	HomeDir string `json:"home_dir"`

	Ports types.PortAssignment `json:"ports"`
	Peers []string             `json:"peers,omitempty"`

	// Filled in by Initializer.Identify.
	NodeID          string `json:"node_id,omitempty"`
	ConsensusPubKey string `json:"consensus_pubkey,omitempty"`

	GenesisDigest string `json:"genesis_sha256,omitempty"`

	// Filled in by Launcher.Launch.
	PID int `json:"pid,omitempty"`
}

// NewDescriptor creates the descriptor of node index under nodesDir.
func NewDescriptor(index int, nodesDir string) (*Descriptor, error) {
	ports, err := types.PortsFor(index)
	if err != nil {
		return nil, err
	}
	name := topology.NodeName(index)
	return &Descriptor{
		Index:   index,
		Name:    name,
		HomeDir: filepath.Join(nodesDir, name),
		Ports:   ports,
	}, nil
}

// IsMain reports whether d is the main node.
func (d *Descriptor) IsMain() bool {
	return d.Index == topology.MainIndex
}

// ConfigPath returns the path to the node's config directory.
func (d *Descriptor) ConfigPath() string {
	return filepath.Join(d.HomeDir, "config")
}

// DescriptorPath returns the path to node.json.
func (d *Descriptor) DescriptorPath() string {
	return filepath.Join(d.HomeDir, DescriptorFile)
}

// LogFilePath returns the path to the node's process log.
func (d *Descriptor) LogFilePath() string {
	return filepath.Join(d.HomeDir, LogFile)
}

// RPCURL returns the node's RPC endpoint.
func (d *Descriptor) RPCURL() string {
	return d.Ports.RPCURL(topology.DefaultHost)
}

// Save writes node.json into the node home.
func (d *Descriptor) Save() error {
	if err := helpers.SaveJSON(d.DescriptorPath(), d, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", d.Name, err)
	}
	return nil
}

// Load reads node.json from homeDir.
func Load(homeDir string) (*Descriptor, error) {
	return helpers.LoadJSON[Descriptor](filepath.Join(homeDir, DescriptorFile))
}
