package testnet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/localnet/internal/domain/common"
	"github.com/altuslabsxyz/localnet/internal/genesis"
	"github.com/altuslabsxyz/localnet/internal/node"
	"github.com/altuslabsxyz/localnet/internal/nodeconfig"
	"github.com/altuslabsxyz/localnet/internal/output"
	"github.com/altuslabsxyz/localnet/internal/runner"
)

type harness struct {
	orch  *Orchestrator
	fake  *runner.FakeExecutor
	chain *fakeChain
	ready *recordingReadiness
	opts  Options
}

func newHarness(t *testing.T, nodes int, mutate func(*Options)) *harness {
	t.Helper()
	opts := Options{
		Home:           t.TempDir(),
		BuildPath:      "/build",
		Daemon:         "kucd",
		Wallet:         "kucli",
		Nodes:          nodes,
		ChainID:        "testing",
		LogLevel:       "info",
		StartupTimeout: time.Second,
		Genesis:        genesis.DefaultConfig(),
		AddressPrefix:  DefaultAddressPrefix,
	}
	if mutate != nil {
		mutate(&opts)
	}

	chain := &fakeChain{t: t}
	fake := &runner.FakeExecutor{Handler: chain.handle}
	out := output.NewLoggerWithWriters(&bytes.Buffer{}, &bytes.Buffer{})
	out.SetNoColor(true)
	r := runner.New(fake, log.NewNopLogger(), out)
	ready := &recordingReadiness{}

	return &harness{
		orch:  New(opts, r, log.NewNopLogger(), out).WithReadiness(ready),
		fake:  fake,
		chain: chain,
		ready: ready,
		opts:  opts,
	}
}

func (h *harness) countCalls(prefix string) int {
	n := 0
	for _, line := range h.fake.CallLines() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestUp_ThreeValidators(t *testing.T) {
	h := newHarness(t, 3, nil)

	manifest, err := h.orch.Up(context.Background())
	require.NoError(t, err)

	// Manifest
	assert.Equal(t, h.orch.RunID(), manifest.RunID)
	assert.Len(t, manifest.Nodes, 4)
	assert.Len(t, manifest.Identities, 5)
	assert.Equal(t, 5, h.countCalls("keys show "), "every identity is read back after keys add")
	loaded, err := LoadManifest(filepath.Join(h.opts.Home, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, manifest.RunID, loaded.RunID)
	assert.Equal(t, manifest.GenesisSHA256, loaded.GenesisSHA256)

	// Byte-identical genesis everywhere.
	mainGenesis, err := os.ReadFile(genesis.Path(manifest.Nodes[0].HomeDir))
	require.NoError(t, err)
	assert.Contains(t, string(mainGenesis), "gentxs")
	for _, d := range manifest.Nodes {
		data, err := os.ReadFile(genesis.Path(d.HomeDir))
		require.NoError(t, err)
		assert.Equal(t, string(mainGenesis), string(data), d.Name)
		assert.Equal(t, manifest.GenesisSHA256, d.GenesisDigest, d.Name)
	}

	// Rebinding and peers.
	node2 := nodeconfig.NewConfigEditor(manifest.Nodes[2].HomeDir)
	laddr, err := node2.Get("rpc.laddr")
	require.NoError(t, err)
	assert.Equal(t, "tcp://127.0.0.1:30257", laddr)
	peers, err := node2.Get("p2p.persistent_peers")
	require.NoError(t, err)
	assert.Equal(t, "id-node0@127.0.0.1:26656,id-node3@127.0.0.1:30356", peers)

	node3, err := node.Load(manifest.Nodes[3].HomeDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-node0@127.0.0.1:26656", "id-node1@127.0.0.1:30156"}, node3.Peers)
	assert.Positive(t, node3.PID)

	mainPeers, err := nodeconfig.NewConfigEditor(manifest.Nodes[0].HomeDir).Get("p2p.persistent_peers")
	require.NoError(t, err)
	assert.Equal(t, "", mainPeers)
	mainRPC, err := nodeconfig.NewConfigEditor(manifest.Nodes[0].HomeDir).Get("rpc.laddr")
	require.NoError(t, err)
	assert.Equal(t, nodeconfig.DefaultRPCLaddr, mainRPC)

	// Launch order: main first and ready before any validator starts.
	spawns := h.fake.Spawns()
	require.Len(t, spawns, 4)
	for i, s := range spawns {
		assert.Equal(t, manifest.Nodes[i].LogFilePath(), s.LogPath)
	}
	assert.Equal(t, []string{"node0", "node1", "node2", "node3"}, h.ready.order)

	// Registration: N creates, then N delegates.
	assert.Equal(t, 3, h.countCalls("tx kustaking create-validator"))
	assert.Equal(t, 3, h.countCalls("tx kustaking delegate"))
	lines := h.fake.CallLines()
	lastCreate, firstDelegate := -1, len(lines)
	for i, line := range lines {
		if strings.HasPrefix(line, "tx kustaking create-validator") {
			lastCreate = i
		}
		if strings.HasPrefix(line, "tx kustaking delegate") && i < firstDelegate {
			firstDelegate = i
		}
	}
	assert.Less(t, lastCreate, firstDelegate)

	// create-validator uses the node's own consensus key.
	assert.Contains(t, strings.Join(lines, "\n"), "create-validator node2 --pubkey kuchainvalconspub1node2")

	// Lock released.
	_, err = os.Stat(filepath.Join(h.opts.Home, ".lock", "lock.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestUp_SingleValidator(t *testing.T) {
	h := newHarness(t, 1, nil)

	manifest, err := h.orch.Up(context.Background())
	require.NoError(t, err)

	node1, err := node.Load(manifest.Nodes[1].HomeDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-node0@127.0.0.1:26656"}, node1.Peers)
	assert.Equal(t, 2, h.countCalls("genesis add-account testacc"))
}

func TestUp_NonEmptyHomeRequiresConsent(t *testing.T) {
	h := newHarness(t, 2, nil)
	marker := filepath.Join(h.opts.Home, NodesDir, "node0", "keep.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, []byte("prior state"), 0o644))

	_, err := h.orch.Up(context.Background())
	require.ErrorIs(t, err, ErrHomeNotEmpty)
	assert.NotEmpty(t, common.GetRecoveryHint(err))
	assert.FileExists(t, marker, "nothing is wiped without consent")
	assert.Empty(t, h.fake.Calls())
}

func TestUp_OverwriteWipesPriorState(t *testing.T) {
	h := newHarness(t, 2, func(o *Options) { o.Overwrite = true })
	marker := filepath.Join(h.opts.Home, WalletDir, "stale-key.info")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, []byte("old"), 0o644))

	_, err := h.orch.Up(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, marker)
}

func TestUp_MainNotReadyStopsLaunch(t *testing.T) {
	h := newHarness(t, 3, nil)
	h.ready.failOn = "node0"

	_, err := h.orch.Up(context.Background())
	var notReady *node.NotReadyError
	require.ErrorAs(t, err, &notReady)

	require.Len(t, h.fake.Spawns(), 1, "validators are not launched when main never answers")
	assert.Zero(t, h.countCalls("tx kustaking"))
	assert.NoFileExists(t, filepath.Join(h.opts.Home, ManifestFile))
}

func TestUp_CommandFailureAborts(t *testing.T) {
	h := newHarness(t, 2, nil)
	h.chain.failOn = "collect-gentxs"

	_, err := h.orch.Up(context.Background())
	var cmdErr *runner.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Empty(t, h.fake.Spawns())
	assert.Zero(t, h.countCalls("init --chain-id testing node1"))
}

func TestUp_InvalidNodeCount(t *testing.T) {
	h := newHarness(t, 100, nil)

	_, err := h.orch.Up(context.Background())
	require.Error(t, err)
	assert.Empty(t, h.fake.Calls())
}

func TestUp_LockHeld(t *testing.T) {
	h := newHarness(t, 1, nil)
	held, err := AcquireLock(h.opts.Home, "other")
	require.NoError(t, err)
	defer held.Release()

	_, err = h.orch.Up(context.Background())
	require.ErrorIs(t, err, ErrLocked)
}
