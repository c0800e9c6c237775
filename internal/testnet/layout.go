package testnet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/altuslabsxyz/localnet/internal/domain/common"
	"github.com/altuslabsxyz/localnet/internal/helpers"
)

// Directory and file names under a testnet home.
const (
	WalletDir    = "cli"
	NodesDir     = "nodes"
	ManifestFile = "localnet.json"
	RegistryName = "registry"
)

// ErrHomeNotEmpty is returned when the home holds a previous testnet and
// overwriting was not requested.
var ErrHomeNotEmpty = errors.New("home directory holds a previous testnet")

// Layout resolves the paths of a testnet home.
type Layout struct {
	Home string
}

// WalletHome returns the wallet home (<home>/cli).
func (l Layout) WalletHome() string { return filepath.Join(l.Home, WalletDir) }

// NodesHome returns the parent of every node home (<home>/nodes).
func (l Layout) NodesHome() string { return filepath.Join(l.Home, NodesDir) }

// ManifestPath returns <home>/localnet.json.
func (l Layout) ManifestPath() string { return filepath.Join(l.Home, ManifestFile) }

// stateDirs are removed when a previous testnet is overwritten.
func (l Layout) stateDirs() []string {
	return []string{l.WalletHome(), l.NodesHome()}
}

// HasState reports whether a previous testnet left wallet or node state.
func (l Layout) HasState() (bool, error) {
	for _, dir := range l.stateDirs() {
		has, err := helpers.HasEntries(dir)
		if err != nil || has {
			return has, err
		}
	}
	return false, nil
}

// Prepare makes the home ready for a fresh bootstrap. Prior state is wiped
// only when overwrite is set; otherwise ErrHomeNotEmpty is returned and
// nothing is removed. It returns whether anything was wiped.
func (l Layout) Prepare(overwrite bool) (bool, error) {
	hasState, err := l.HasState()
	if err != nil {
		return false, err
	}
	if hasState && !overwrite {
		return false, common.WithHint(
			fmt.Errorf("%w: %s", ErrHomeNotEmpty, l.Home),
			"rerun with --yes to wipe "+WalletDir+"/ and "+NodesDir+"/, or pick another --home")
	}

	if hasState {
		for _, dir := range l.stateDirs() {
			if err := os.RemoveAll(dir); err != nil {
				return false, fmt.Errorf("failed to wipe %s: %w", dir, err)
			}
		}
		if err := os.Remove(l.ManifestPath()); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to remove manifest: %w", err)
		}
	}

	for _, dir := range l.stateDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return hasState, nil
}
