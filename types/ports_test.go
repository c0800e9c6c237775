package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPortAssignment(t *testing.T) {
	p := DefaultPortAssignment()

	require.Equal(t, DefaultProxyPort, p.Proxy)
	require.Equal(t, DefaultRPCPort, p.RPC)
	require.Equal(t, DefaultP2PPort, p.P2P)
}

func TestPortsFor(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantProxy int
		wantRPC   int
		wantP2P   int
	}{
		{
			name:      "main node keeps default ports",
			index:     0,
			wantProxy: 26658,
			wantRPC:   26657,
			wantP2P:   26656,
		},
		{
			name:      "index 1 is zero padded",
			index:     1,
			wantProxy: 30158,
			wantRPC:   30157,
			wantP2P:   30156,
		},
		{
			name:      "index 12",
			index:     12,
			wantProxy: 31258,
			wantRPC:   31257,
			wantP2P:   31256,
		},
		{
			name:      "index 99 is the last encodable index",
			index:     99,
			wantProxy: 39958,
			wantRPC:   39957,
			wantP2P:   39956,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PortsFor(tt.index)
			require.NoError(t, err)

			require.Equal(t, tt.wantProxy, p.Proxy, "proxy port mismatch")
			require.Equal(t, tt.wantRPC, p.RPC, "RPC port mismatch")
			require.Equal(t, tt.wantP2P, p.P2P, "P2P port mismatch")
		})
	}
}

func TestPortsFor_OutOfRange(t *testing.T) {
	for _, index := range []int{-1, 100, 250} {
		_, err := PortsFor(index)
		require.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", index)
	}
}

func TestPortsFor_NoCollisions(t *testing.T) {
	seen := make(map[int]int)
	for index := 0; index <= MaxNodeIndex; index++ {
		p, err := PortsFor(index)
		require.NoError(t, err)

		for _, port := range p.AllPorts() {
			owner, dup := seen[port]
			require.False(t, dup, "port %d assigned to both index %d and %d", port, owner, index)
			seen[port] = index
			require.Less(t, port, 65536)
		}
	}
	require.Len(t, seen, 3*(MaxNodeIndex+1))
}

func TestPortAssignment_URLs(t *testing.T) {
	p, err := PortsFor(3)
	require.NoError(t, err)

	require.Equal(t, "http://127.0.0.1:30357", p.RPCURL(""))
	require.Equal(t, "http://10.0.0.5:30357", p.RPCURL("10.0.0.5"))
	require.Equal(t, "tcp://127.0.0.1:30357", p.RPCAddress(""))
}
