package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Port default values. Single source of truth for the canonical ports the
// main node keeps and the templates every other node is derived from.
const (
	// DefaultProxyPort is the ABCI proxy application port.
	DefaultProxyPort = 26658

	// DefaultRPCPort is the Tendermint RPC port.
	DefaultRPCPort = 26657

	// DefaultP2PPort is the peer-to-peer networking port.
	DefaultP2PPort = 26656

	// MaxNodeIndex is the largest index the two-digit templates can encode.
	MaxNodeIndex = 99
)

// Port templates for non-main nodes. The two-digit zero-padded node index is
// embedded in the middle, so index 7 maps to 30758/30757/30756.
const (
	ProxyPortTemplate = "3%02d58"
	RPCPortTemplate   = "3%02d57"
	P2PPortTemplate   = "3%02d56"
)

// ErrIndexOutOfRange is returned for node indices the port scheme cannot encode.
var ErrIndexOutOfRange = errors.New("node index out of range")

// PortAssignment is the port triple a single node listens on.
type PortAssignment struct {
	// Proxy is the ABCI proxy application port (default: 26658)
	Proxy int `json:"proxy"`

	// RPC is the Tendermint RPC port (default: 26657)
	RPC int `json:"rpc"`

	// P2P is the peer-to-peer network port (default: 26656)
	P2P int `json:"p2p"`
}

// DefaultPortAssignment returns the canonical ports used by the main node.
func DefaultPortAssignment() PortAssignment {
	return PortAssignment{
		Proxy: DefaultProxyPort,
		RPC:   DefaultRPCPort,
		P2P:   DefaultP2PPort,
	}
}

// PortsFor returns the port assignment for the node at the given index.
// Index 0 is the main node and keeps the default ports. Indices 1..99 are
// derived from the port templates; anything else is rejected.
func PortsFor(index int) (PortAssignment, error) {
	if index == 0 {
		return DefaultPortAssignment(), nil
	}
	if index < 0 || index > MaxNodeIndex {
		return PortAssignment{}, fmt.Errorf("%w: %d (valid: 0..%d)", ErrIndexOutOfRange, index, MaxNodeIndex)
	}

	proxy, err := fromTemplate(ProxyPortTemplate, index)
	if err != nil {
		return PortAssignment{}, err
	}
	rpc, err := fromTemplate(RPCPortTemplate, index)
	if err != nil {
		return PortAssignment{}, err
	}
	p2p, err := fromTemplate(P2PPortTemplate, index)
	if err != nil {
		return PortAssignment{}, err
	}

	return PortAssignment{Proxy: proxy, RPC: rpc, P2P: p2p}, nil
}

func fromTemplate(template string, index int) (int, error) {
	port, err := strconv.Atoi(fmt.Sprintf(template, index))
	if err != nil {
		return 0, fmt.Errorf("invalid port template %q: %w", template, err)
	}
	return port, nil
}

// RPCURL returns the full RPC URL for this port assignment.
func (p PortAssignment) RPCURL(host string) string {
	if host == "" {
		host = "127.0.0.1"
	}
	return "http://" + host + ":" + strconv.Itoa(p.RPC)
}

// RPCAddress returns the tcp:// address clients use to reach the RPC port.
func (p PortAssignment) RPCAddress(host string) string {
	if host == "" {
		host = "127.0.0.1"
	}
	return "tcp://" + host + ":" + strconv.Itoa(p.RPC)
}

// AllPorts returns a slice of all assigned ports.
// Useful for port conflict detection.
func (p PortAssignment) AllPorts() []int {
	return []int{p.Proxy, p.RPC, p.P2P}
}
