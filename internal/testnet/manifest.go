package testnet

import (
	"fmt"
	"time"

	"github.com/altuslabsxyz/localnet/internal/helpers"
	"github.com/altuslabsxyz/localnet/internal/keys"
	"github.com/altuslabsxyz/localnet/internal/node"
)

// Manifest records the outcome of a successful bootstrap.
type Manifest struct {
	RunID         string             `json:"run_id"`
	ChainID       string             `json:"chain_id"`
	Denom         string             `json:"denom"`
	CreatedAt     time.Time          `json:"created_at"`
	Home          string             `json:"home"`
	GenesisSHA256 string             `json:"genesis_sha256"`
	Supply        string             `json:"supply"`
	Nodes         []*node.Descriptor `json:"nodes"`
	Identities    []*keys.Identity   `json:"identities"`
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	if err := helpers.SaveJSON(path, m, 0o644); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by Save.
func LoadManifest(path string) (*Manifest, error) {
	return helpers.LoadJSON[Manifest](path)
}
