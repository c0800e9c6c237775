package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/altuslabsxyz/localnet/internal/runner"
)

// KeyringBackend is the keyring backend every wallet invocation uses.
const KeyringBackend = "test"

// KeyInfo is the wallet's JSON description of a key.
type KeyInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Address  string `json:"address"`
	PubKey   string `json:"pubkey"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

// UnmarshalJSON accepts the public key either as a bech32 string or as a
// structured object, which newer wallets emit.
func (k *KeyInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Type     string          `json:"type"`
		Address  string          `json:"address"`
		PubKey   json.RawMessage `json:"pubkey"`
		Mnemonic string          `json:"mnemonic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*k = KeyInfo{Name: raw.Name, Type: raw.Type, Address: raw.Address, Mnemonic: raw.Mnemonic}
	if len(raw.PubKey) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.PubKey, &s); err == nil {
		k.PubKey = s
		return nil
	}
	k.PubKey = string(raw.PubKey)
	return nil
}

// ParsedKey is the result of the wallet's keys parse subcommand. A bech32
// input yields Human and Bytes; a hex input yields Formats.
type ParsedKey struct {
	Human   string   `json:"human,omitempty"`
	Bytes   string   `json:"bytes,omitempty"`
	Formats []string `json:"formats,omitempty"`
}

// Wallet is the typed contract against the external wallet tool.
type Wallet interface {
	AddKey(ctx context.Context, name string) error
	ShowKey(ctx context.Context, name string) (*KeyInfo, error)
	ParseKey(ctx context.Context, key string) (*ParsedKey, error)
}

// CLIWallet drives the wallet binary with --output json.
type CLIWallet struct {
	runner *runner.Runner
	binary string
	home   string
}

// NewCLIWallet creates a wallet adapter for binary with its home at home.
func NewCLIWallet(r *runner.Runner, binary, home string) *CLIWallet {
	return &CLIWallet{runner: r, binary: binary, home: home}
}

// Home returns the wallet home directory.
func (w *CLIWallet) Home() string {
	return w.home
}

func (w *CLIWallet) command(args ...string) runner.Command {
	return runner.NewCommand(w.binary, args...).With("--home", w.home, "--keyring-backend", KeyringBackend)
}

// AddKey creates a new key pair named name. The wallet prints the new key
// and its mnemonic on stderr, so the output is discarded; ShowKey reads the
// stored key back.
func (w *CLIWallet) AddKey(ctx context.Context, name string) error {
	return w.runner.Run(ctx, w.command("keys", "add", name, "--output", "json"))
}

// ShowKey returns the stored key named name.
func (w *CLIWallet) ShowKey(ctx context.Context, name string) (*KeyInfo, error) {
	out, err := w.runner.Output(ctx, w.command("keys", "show", name, "--output", "json"))
	if err != nil {
		return nil, err
	}

	var info KeyInfo
	if err := decodeJSON(out, &info); err != nil {
		return nil, &ParseError{Op: "keys show", Output: out, Err: err}
	}
	if info.Address == "" || info.PubKey == "" {
		return nil, &ParseError{Op: "keys show", Output: out, Err: fmt.Errorf("missing address or pubkey")}
	}
	if info.Name == "" {
		info.Name = name
	}
	return &info, nil
}

// ParseKey converts key between its bech32 and hex representations.
func (w *CLIWallet) ParseKey(ctx context.Context, key string) (*ParsedKey, error) {
	out, err := w.runner.Output(ctx, runner.NewCommand(w.binary, "keys", "parse", key, "--output", "json"))
	if err != nil {
		return nil, err
	}

	var parsed ParsedKey
	if err := decodeJSON(out, &parsed); err != nil {
		return nil, &ParseError{Op: "keys parse", Output: out, Err: err}
	}
	if parsed.Bytes == "" && len(parsed.Formats) == 0 {
		return nil, &ParseError{Op: "keys parse", Output: out, Err: fmt.Errorf("neither bytes nor formats present")}
	}
	return &parsed, nil
}

// decodeJSON decodes the first JSON object in out. Some wallet versions print
// a warning line before the document.
func decodeJSON(out string, v any) error {
	start := strings.IndexByte(out, '{')
	if start < 0 {
		return fmt.Errorf("no JSON object in output")
	}
	return json.NewDecoder(strings.NewReader(out[start:])).Decode(v)
}

var _ Wallet = (*CLIWallet)(nil)
