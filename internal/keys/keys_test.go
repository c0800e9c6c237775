package keys

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/localnet/internal/output"
	"github.com/altuslabsxyz/localnet/internal/runner"
)

const testPrefix = "kuchain"

func mustBech32(t *testing.T, hrp string, data []byte) string {
	t.Helper()
	s, err := bech32.ConvertAndEncode(hrp, data)
	require.NoError(t, err)
	return s
}

// stubWallet derives deterministic key material from the key name.
type stubWallet struct {
	t      *testing.T
	hrp    string
	added  []string
	failOn string
}

func (w *stubWallet) material(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	return append([]byte{0x02}, sum[:]...)
}

func (w *stubWallet) AddKey(_ context.Context, name string) error {
	if name == w.failOn {
		return errors.New("keyring locked")
	}
	w.added = append(w.added, name)
	return nil
}

func (w *stubWallet) ShowKey(_ context.Context, name string) (*KeyInfo, error) {
	key := w.material(name)
	return &KeyInfo{
		Name:    name,
		Type:    "local",
		Address: mustBech32(w.t, w.hrp, key[:20]),
		PubKey:  mustBech32(w.t, testPrefix+"pub", key),
	}, nil
}

func (w *stubWallet) ParseKey(_ context.Context, key string) (*ParsedKey, error) {
	if hrp, data, err := bech32.DecodeAndConvert(key); err == nil {
		return &ParsedKey{Human: hrp, Bytes: strings.ToUpper(hex.EncodeToString(data))}, nil
	}
	data, err := hex.DecodeString(key)
	if err != nil {
		return nil, err
	}
	return &ParsedKey{Formats: []string{
		mustBech32(w.t, testPrefix, data),
		mustBech32(w.t, testPrefix+"pub", data),
		mustBech32(w.t, testPrefix+"valoper", data),
		mustBech32(w.t, testPrefix+"valconspub", data),
	}}, nil
}

func newTestRegistry(t *testing.T) (*Registry, *stubWallet) {
	wallet := &stubWallet{t: t, hrp: testPrefix}
	return NewRegistry(dbm.NewMemDB(), wallet, testPrefix), wallet
}

func TestRegistry_GenerateAndLookup(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id, err := reg.Generate(ctx, "node1")
	require.NoError(t, err)
	assert.Equal(t, "node1", id.Name)
	assert.True(t, strings.HasPrefix(id.Address, testPrefix+"1"))
	assert.True(t, strings.HasPrefix(id.ConsensusPubKey, testPrefix+"valconspub1"))
	assert.Len(t, id.KeyHex, 66)

	got, err := reg.Lookup("node1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Lookup("ghost")
	require.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestRegistry_GenerateTwiceRejected(t *testing.T) {
	reg, wallet := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Generate(ctx, "kuchain")
	require.NoError(t, err)

	_, err = reg.Generate(ctx, "kuchain")
	require.ErrorIs(t, err, ErrIdentityExists)
	assert.Equal(t, []string{"kuchain"}, wallet.added, "wallet must not be called for an existing name")
}

func TestRegistry_WrongPrefix(t *testing.T) {
	wallet := &stubWallet{t: t, hrp: "cosmos"}
	reg := NewRegistry(dbm.NewMemDB(), wallet, testPrefix)

	_, err := reg.Generate(context.Background(), "test")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	_, err = reg.Lookup("test")
	require.ErrorIs(t, err, ErrIdentityNotFound, "failed identities are not stored")
}

func TestRegistry_WalletFailure(t *testing.T) {
	reg, wallet := newTestRegistry(t)
	wallet.failOn = "node2"

	_, err := reg.Generate(context.Background(), "node2")
	require.ErrorContains(t, err, "keyring locked")
}

func TestRegistry_List(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"test", "kuchain", "node1"} {
		_, err := reg.Generate(ctx, name)
		require.NoError(t, err)
	}

	ids, err := reg.List()
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, "kuchain", ids[0].Name)
	assert.Equal(t, "node1", ids[1].Name)
	assert.Equal(t, "test", ids[2].Name)
}

func TestPickConsensusPubKey_Missing(t *testing.T) {
	_, err := pickConsensusPubKey([]string{"not-bech32", mustBech32(t, "kuchainpub", []byte{1, 2, 3})})
	require.Error(t, err)
}

func newCLIWallet(handler func(runner.Command) (runner.Result, error)) (*CLIWallet, *runner.FakeExecutor) {
	fake := &runner.FakeExecutor{Handler: handler}
	out := output.NewLoggerWithWriters(&bytes.Buffer{}, &bytes.Buffer{})
	r := runner.New(fake, log.NewNopLogger(), out)
	return NewCLIWallet(r, "kucli", "/tmp/home/cli"), fake
}

func TestCLIWallet_AddKeyIgnoresStderrDocument(t *testing.T) {
	// keys add prints the new key and mnemonic on stderr and exits 0.
	w, fake := newCLIWallet(func(runner.Command) (runner.Result, error) {
		return runner.Result{
			Stderr: []byte(`{"name":"kuchain","type":"local","address":"kuchain1abc","pubkey":"kuchainpub1xyz","mnemonic":"warm law"}`),
		}, nil
	})

	require.NoError(t, w.AddKey(context.Background(), "kuchain"))
	assert.Equal(t,
		[]string{"keys add kuchain --output json --home /tmp/home/cli --keyring-backend test"},
		fake.CallLines())
}

func TestCLIWallet_ShowKey(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		wantPub string
	}{
		{
			name:    "bech32 pubkey",
			stdout:  `{"name":"test","type":"local","address":"kuchain1abc","pubkey":"kuchainpub1xyz"}`,
			wantPub: "kuchainpub1xyz",
		},
		{
			name:    "structured pubkey after warning line",
			stdout:  "WARNING: keyring backend test\n" + `{"name":"test","address":"kuchain1abc","pubkey":{"@type":"/cosmos.crypto.secp256k1.PubKey","key":"AAA"}}`,
			wantPub: `{"@type":"/cosmos.crypto.secp256k1.PubKey","key":"AAA"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, fake := newCLIWallet(func(runner.Command) (runner.Result, error) {
				return runner.Result{Stdout: []byte(tt.stdout)}, nil
			})

			info, err := w.ShowKey(context.Background(), "test")
			require.NoError(t, err)
			assert.Equal(t, "kuchain1abc", info.Address)
			assert.Equal(t, tt.wantPub, info.PubKey)

			assert.Equal(t,
				[]string{"keys show test --output json --home /tmp/home/cli --keyring-backend test"},
				fake.CallLines())
		})
	}
}

func TestCLIWallet_MalformedOutput(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
	}{
		{"plain text", "- name: test\n  address: kuchain1abc"},
		{"truncated json", `{"name":"test","address":`},
		{"missing pubkey", `{"name":"test","address":"kuchain1abc"}`},
		{"document only on stderr", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newCLIWallet(func(runner.Command) (runner.Result, error) {
				return runner.Result{Stdout: []byte(tt.stdout), Stderr: []byte(`{"name":"test"}`)}, nil
			})

			_, err := w.ShowKey(context.Background(), "test")
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "keys show", parseErr.Op)
		})
	}
}

func TestCLIWallet_ParseKey(t *testing.T) {
	w, fake := newCLIWallet(func(cmd runner.Command) (runner.Result, error) {
		if strings.HasPrefix(cmd.Args[2], "kuchainpub") {
			return runner.Result{Stdout: []byte(`{"human":"kuchainpub","bytes":"EB5AE987"}`)}, nil
		}
		return runner.Result{Stdout: []byte(`{"formats":["kuchain1aaa","kuchainvalconspub1bbb"]}`)}, nil
	})
	ctx := context.Background()

	parsed, err := w.ParseKey(ctx, "kuchainpub1xyz")
	require.NoError(t, err)
	assert.Equal(t, "EB5AE987", parsed.Bytes)

	parsed, err = w.ParseKey(ctx, "EB5AE987")
	require.NoError(t, err)
	assert.Equal(t, []string{"kuchain1aaa", "kuchainvalconspub1bbb"}, parsed.Formats)
	assert.Len(t, fake.Calls(), 2)
}

func TestCLIWallet_CommandFailure(t *testing.T) {
	w, _ := newCLIWallet(func(runner.Command) (runner.Result, error) {
		return runner.Result{Stderr: []byte("key exists"), ExitCode: 1}, nil
	})

	err := w.AddKey(context.Background(), "test")
	var cmdErr *runner.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestRegistry_GenerateWithCLIWallet(t *testing.T) {
	key := sha256.Sum256([]byte("kuchain"))
	address := mustBech32(t, testPrefix, key[:20])
	pubkey := mustBech32(t, testPrefix+"pub", key[:])

	w, fake := newCLIWallet(func(cmd runner.Command) (runner.Result, error) {
		line := strings.Join(cmd.Args, " ")
		switch {
		case strings.HasPrefix(line, "keys add "):
			return runner.Result{Stderr: []byte(`{"name":"kuchain","address":"` + address + `","pubkey":"` + pubkey + `"}`)}, nil
		case strings.HasPrefix(line, "keys show "):
			return runner.Result{Stdout: []byte(`{"name":"kuchain","type":"local","address":"` + address + `","pubkey":"` + pubkey + `"}`)}, nil
		case strings.HasPrefix(cmd.Args[2], testPrefix+"pub"):
			return runner.Result{Stdout: []byte(`{"human":"kuchainpub","bytes":"` + strings.ToUpper(hex.EncodeToString(key[:])) + `"}`)}, nil
		}
		return runner.Result{Stdout: []byte(`{"formats":["` + address + `","` + mustBech32(t, testPrefix+"valconspub", key[:]) + `"]}`)}, nil
	})
	reg := NewRegistry(dbm.NewMemDB(), w, testPrefix)

	id, err := reg.Generate(context.Background(), "kuchain")
	require.NoError(t, err)
	assert.Equal(t, address, id.Address)
	assert.Equal(t, pubkey, id.PubKey)
	assert.True(t, strings.HasPrefix(id.ConsensusPubKey, testPrefix+"valconspub1"))

	lines := fake.CallLines()
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "keys add kuchain"))
	assert.True(t, strings.HasPrefix(lines[1], "keys show kuchain"))
}
