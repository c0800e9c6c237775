package genesis

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/altuslabsxyz/localnet/internal/helpers"
)

// CopyTo copies the main node's genesis byte-for-byte into dstHome and
// returns the hex SHA-256 digest both copies share.
func (b *Builder) CopyTo(dstHome string) (string, error) {
	return CopyFile(b.GenesisPath(), Path(dstHome))
}

// CopyFile copies a genesis document and verifies the digests match.
func CopyFile(src, dst string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read genesis: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write genesis: %w", err)
	}

	want := sha256.Sum256(data)
	written, err := os.ReadFile(dst)
	if err != nil {
		return "", fmt.Errorf("failed to verify genesis: %w", err)
	}
	got := sha256.Sum256(written)
	if !bytes.Equal(want[:], got[:]) {
		return "", fmt.Errorf("genesis copy %s differs from %s", dst, src)
	}
	return hex.EncodeToString(got[:]), nil
}

// Digest returns the hex SHA-256 digest of the genesis file in home.
func Digest(home string) (string, error) {
	data, err := os.ReadFile(Path(home))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ReadChainID reads the chain_id field from the genesis file in home.
func ReadChainID(home string) (string, error) {
	doc, err := helpers.LoadJSON[struct {
		ChainID string `json:"chain_id"`
	}](Path(home))
	if err != nil {
		return "", err
	}
	if doc.ChainID == "" {
		return "", fmt.Errorf("genesis %s has no chain_id", Path(home))
	}
	return doc.ChainID, nil
}
