// Package keys generates and stores the named identities a local testnet
// needs: the root authority, the test account and one key per validator.
package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/types/bech32"
)

// ConsensusPubKeySuffix marks the consensus public key among parsed formats.
const ConsensusPubKeySuffix = "valconspub"

var identityPrefix = []byte("identity/")

// Identity is an immutable named key as produced by the wallet.
type Identity struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	PubKey          string `json:"pubkey"`
	ConsensusPubKey string `json:"consensus_pubkey"`
	KeyHex          string `json:"key_hex"`
}

// Registry owns the identities of one testnet run.
type Registry struct {
	db     dbm.DB
	wallet Wallet
	prefix string
}

// NewRegistry creates a registry storing identities in db. Addresses must
// carry the bech32 human readable part prefix.
func NewRegistry(db dbm.DB, wallet Wallet, prefix string) *Registry {
	return &Registry{db: db, wallet: wallet, prefix: prefix}
}

func identityKey(name string) []byte {
	return append(append([]byte{}, identityPrefix...), name...)
}

// Generate creates a key named name through the wallet, derives its hex and
// consensus representations and stores the result.
func (r *Registry) Generate(ctx context.Context, name string) (*Identity, error) {
	exists, err := r.db.Has(identityKey(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrIdentityExists, name)
	}

	if err := r.wallet.AddKey(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to add key %s: %w", name, err)
	}
	info, err := r.wallet.ShowKey(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", name, err)
	}
	if err := r.validateAddress(info.Address); err != nil {
		return nil, &ParseError{Op: "keys show", Output: info.Address, Err: err}
	}

	raw, err := r.wallet.ParseKey(ctx, info.PubKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pubkey of %s: %w", name, err)
	}
	if raw.Bytes == "" {
		return nil, &ParseError{Op: "keys parse", Output: info.PubKey, Err: fmt.Errorf("no key bytes")}
	}

	formats, err := r.wallet.ParseKey(ctx, raw.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to derive formats of %s: %w", name, err)
	}
	consPub, err := pickConsensusPubKey(formats.Formats)
	if err != nil {
		return nil, &ParseError{Op: "keys parse", Output: strings.Join(formats.Formats, ","), Err: err}
	}

	id := &Identity{
		Name:            name,
		Address:         info.Address,
		PubKey:          info.PubKey,
		ConsensusPubKey: consPub,
		KeyHex:          raw.Bytes,
	}
	if err := r.store(id); err != nil {
		return nil, err
	}
	return id, nil
}

// Lookup returns the identity generated under name.
func (r *Registry) Lookup(name string) (*Identity, error) {
	data, err := r.db.Get(identityKey(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, name)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("corrupt identity %s: %w", name, err)
	}
	return &id, nil
}

// List returns every stored identity ordered by name.
func (r *Registry) List() ([]*Identity, error) {
	end := append([]byte{}, identityPrefix...)
	end[len(end)-1]++

	it, err := r.db.Iterator(identityPrefix, end)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate registry: %w", err)
	}
	defer it.Close()

	var ids []*Identity
	for ; it.Valid(); it.Next() {
		var id Identity
		if err := json.Unmarshal(it.Value(), &id); err != nil {
			return nil, fmt.Errorf("corrupt identity %s: %w", it.Key(), err)
		}
		ids = append(ids, &id)
	}
	return ids, it.Error()
}

func (r *Registry) store(id *Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := r.db.SetSync(identityKey(id.Name), data); err != nil {
		return fmt.Errorf("failed to store identity %s: %w", id.Name, err)
	}
	return nil
}

func (r *Registry) validateAddress(addr string) error {
	hrp, _, err := bech32.DecodeAndConvert(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if r.prefix != "" && hrp != r.prefix {
		return fmt.Errorf("address %q has prefix %q, expected %q", addr, hrp, r.prefix)
	}
	return nil
}

func pickConsensusPubKey(formats []string) (string, error) {
	for _, f := range formats {
		hrp, _, err := bech32.DecodeAndConvert(f)
		if err != nil {
			continue
		}
		if strings.HasSuffix(hrp, ConsensusPubKeySuffix) {
			return f, nil
		}
	}
	return "", fmt.Errorf("no %s format among %d candidates", ConsensusPubKeySuffix, len(formats))
}
