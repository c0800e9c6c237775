package testnet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cosmos/cosmos-sdk/types/bech32"

	"github.com/altuslabsxyz/localnet/internal/node"
	"github.com/altuslabsxyz/localnet/internal/runner"
)

const fakeConfigTOML = `proxy_app = "tcp://127.0.0.1:26658"
moniker = "%s"

[rpc]
laddr = "tcp://127.0.0.1:26657"

[p2p]
laddr = "tcp://0.0.0.0:26656"
persistent_peers = ""
addr_book_strict = true
allow_duplicate_ip = false
`

// fakeChain emulates the daemon and wallet command-line contracts closely
// enough for the orchestrator to run end to end.
type fakeChain struct {
	t      *testing.T
	failOn string
	keys   map[string]bool
}

func flagValue(args []string, name string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func keyMaterial(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	return append([]byte{0x02}, sum[:]...)
}

func (c *fakeChain) bech(hrp string, data []byte) string {
	s, err := bech32.ConvertAndEncode(hrp, data)
	if err != nil {
		c.t.Fatalf("bech32: %v", err)
	}
	return s
}

func (c *fakeChain) handle(cmd runner.Command) (runner.Result, error) {
	line := strings.Join(cmd.Args, " ")
	if c.failOn != "" && strings.Contains(line, c.failOn) {
		return runner.Result{Stderr: []byte("simulated failure"), ExitCode: 1}, nil
	}

	ok := func(s string) (runner.Result, error) { return runner.Result{Stdout: []byte(s)}, nil }
	home := flagValue(cmd.Args, "--home")

	switch filepath.Base(cmd.Binary) {
	case "kucli":
		switch {
		case strings.HasPrefix(line, "keys add "):
			// Like the real wallet, the new key goes to stderr.
			name := cmd.Args[2]
			if c.keys == nil {
				c.keys = make(map[string]bool)
			}
			c.keys[name] = true
			return runner.Result{Stderr: []byte(c.keyJSON(name))}, nil
		case strings.HasPrefix(line, "keys show "):
			name := cmd.Args[2]
			if !c.keys[name] {
				return runner.Result{Stderr: []byte("Error: " + name + " is not a valid name or address"), ExitCode: 1}, nil
			}
			return ok(c.keyJSON(name))
		case strings.HasPrefix(line, "keys parse "):
			arg := cmd.Args[2]
			if hrp, data, err := bech32.DecodeAndConvert(arg); err == nil {
				return ok(fmt.Sprintf(`{"human":%q,"bytes":%q}`, hrp, strings.ToUpper(hex.EncodeToString(data))))
			}
			data, err := hex.DecodeString(arg)
			if err != nil {
				return runner.Result{Stderr: []byte(err.Error()), ExitCode: 1}, nil
			}
			return ok(fmt.Sprintf(`{"formats":[%q,%q,%q]}`,
				c.bech("kuchain", data), c.bech("kuchainpub", data), c.bech("kuchainvalconspub", data)))
		}
		return ok("")

	case "kucd":
		switch {
		case strings.HasPrefix(line, "init "):
			chainID := flagValue(cmd.Args, "--chain-id")
			moniker := cmd.Args[3]
			c.write(filepath.Join(home, "config", "config.toml"), fmt.Sprintf(fakeConfigTOML, moniker))
			c.write(filepath.Join(home, "config", "genesis.json"),
				fmt.Sprintf("{\n  \"chain_id\": %q,\n  \"moniker_seed\": %q\n}\n", chainID, moniker))
		case strings.HasPrefix(line, "collect-gentxs"):
			c.write(filepath.Join(home, "config", "genesis.json"),
				"{\n  \"chain_id\": \"testing\",\n  \"gentxs\": [\"kuchain\"]\n}\n")
		case strings.HasPrefix(line, "tendermint show-node-id"):
			return ok("id-" + filepath.Base(home) + "\n")
		case strings.HasPrefix(line, "tendermint show-validator"):
			return ok("kuchainvalconspub1" + filepath.Base(home) + "\n")
		}
		return ok("")
	}
	return runner.Result{Stderr: []byte("unknown binary " + cmd.Binary), ExitCode: 127}, nil
}

func (c *fakeChain) keyJSON(name string) string {
	key := keyMaterial(name)
	return fmt.Sprintf(`{"name":%q,"type":"local","address":%q,"pubkey":%q}`,
		name, c.bech("kuchain", key[:20]), c.bech("kuchainpub", key))
}

func (c *fakeChain) write(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		c.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// recordingReadiness reports every node ready and records the order asked.
type recordingReadiness struct {
	mu     sync.Mutex
	order  []string
	failOn string
}

func (r *recordingReadiness) WaitForHealthy(_ context.Context, d *node.Descriptor, timeout time.Duration) (*node.Status, error) {
	r.mu.Lock()
	r.order = append(r.order, d.Name)
	r.mu.Unlock()
	if d.Name == r.failOn {
		return nil, &node.NotReadyError{Node: d.Name, URL: d.RPCURL(), Timeout: timeout, Cause: context.DeadlineExceeded}
	}
	return &node.Status{Network: "testing", BlockHeight: 1}, nil
}
