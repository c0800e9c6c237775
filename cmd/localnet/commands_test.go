package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/localnet/internal/testnet"
	"github.com/altuslabsxyz/localnet/internal/topology"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(EnvHome, "")
	t.Setenv("NO_COLOR", "")
	upFlags = upOptions{}

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestPlanCommand(t *testing.T) {
	home := t.TempDir()
	out, err := executeRoot(t, "plan", "--nodes", "3", "--home", home)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Regexp(t, `^node0\s+26658\s+26657\s+26656\s+-$`, lines[1])
	assert.Regexp(t, `^node2\s+30258\s+30257\s+30256\s+node0,node3$`, lines[3])
	assert.Regexp(t, `^node3\s+30358\s+30357\s+30356\s+node0,node1$`, lines[4])
}

func TestWritePlan_SingleValidator(t *testing.T) {
	plans, err := topology.Plan(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	writePlan(&buf, plans)
	assert.Contains(t, buf.String(), "node1")
	assert.Regexp(t, `node1\s+30158\s+30157\s+30156\s+node0\n`, buf.String())
}

func TestConfigShow_Priority(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "localnet.toml"),
		[]byte("nodes = 5\nchain_id = \"devchain\"\nsettle_delay = \"3s\"\n"), 0o644))

	out, err := executeRoot(t, "config", "show", "--home", home)
	require.NoError(t, err)
	assert.Regexp(t, `nodes\s+5\s+localnet.toml`, out)
	assert.Regexp(t, `chain_id\s+devchain\s+localnet.toml`, out)
	assert.Regexp(t, `settle_delay\s+3s\s+localnet.toml`, out)
	assert.Regexp(t, `daemon\s+kucd\s+default`, out)
	assert.Regexp(t, `home\s+\S+\s+flag`, out)
}

func TestConfigShow_EnvHome(t *testing.T) {
	home := t.TempDir()
	upFlags = upOptions{}
	t.Setenv("NO_COLOR", "")
	t.Setenv(EnvHome, home)

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"config", "show"})
	require.NoError(t, cmd.Execute())
	assert.Regexp(t, `home\s+`+regexp.QuoteMeta(home)+`\s+environment`, buf.String())
}

func TestConfigShow_InvalidFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "localnet.toml"), []byte("nodes = 0\n"), 0o644))

	_, err := executeRoot(t, "config", "show", "--home", home)
	require.Error(t, err)
}

func TestStructuredLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{name: "main module wins", level: "main:info,state:info,*:error", want: zerolog.InfoLevel},
		{name: "wildcard", level: "state:debug,*:warn", want: zerolog.WarnLevel},
		{name: "bare level", level: "debug", want: zerolog.DebugLevel},
		{name: "unknown falls back to info", level: "chatty", want: zerolog.InfoLevel},
		{name: "empty", level: "", want: zerolog.InfoLevel},
		{name: "verbose forces debug", level: "*:error", verbose: true, want: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, structuredLevel(tt.level, tt.verbose))
		})
	}
}

func TestConfirmOverwrite(t *testing.T) {
	origInteractive, origConfirm := isInteractive, confirm
	t.Cleanup(func() { isInteractive, confirm = origInteractive, origConfirm })

	withState := func(t *testing.T) testnet.Layout {
		l := testnet.Layout{Home: t.TempDir()}
		require.NoError(t, os.MkdirAll(filepath.Join(l.NodesHome(), "node0"), 0o755))
		return l
	}

	t.Run("empty home never asks", func(t *testing.T) {
		asked := false
		isInteractive = func() bool { return true }
		confirm = func(string) (bool, error) { asked = true; return false, nil }

		proceed, overwrite, err := confirmOverwrite(testnet.Layout{Home: t.TempDir()})
		require.NoError(t, err)
		assert.True(t, proceed)
		assert.False(t, overwrite)
		assert.False(t, asked)
	})

	t.Run("no terminal leaves the decision to the bootstrap", func(t *testing.T) {
		isInteractive = func() bool { return false }
		proceed, overwrite, err := confirmOverwrite(withState(t))
		require.NoError(t, err)
		assert.True(t, proceed)
		assert.False(t, overwrite)
	})

	t.Run("accepted", func(t *testing.T) {
		isInteractive = func() bool { return true }
		confirm = func(string) (bool, error) { return true, nil }
		proceed, overwrite, err := confirmOverwrite(withState(t))
		require.NoError(t, err)
		assert.True(t, proceed)
		assert.True(t, overwrite)
	})

	t.Run("declined", func(t *testing.T) {
		isInteractive = func() bool { return true }
		confirm = func(string) (bool, error) { return false, nil }
		proceed, _, err := confirmOverwrite(withState(t))
		require.NoError(t, err)
		assert.False(t, proceed)
	})

	t.Run("interrupted", func(t *testing.T) {
		isInteractive = func() bool { return true }
		confirm = func(string) (bool, error) { return false, errCancelled }
		_, _, err := confirmOverwrite(withState(t))
		assert.True(t, isCancellation(err))
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := executeRoot(t, "version", "--json", "--home", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, runtime.Version())
}
