// Package topology computes the star-plus-ring peer layout of a local
// testnet: every validator dials the main node and the next validator,
// wrapping from N back to 1.
package topology

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/altuslabsxyz/localnet/types"
)

// MainIndex is the index of the main (non-validator) node.
const MainIndex = 0

// DefaultHost is the address every local node is reached on.
const DefaultHost = "127.0.0.1"

var (
	// ErrInvalidTotal is returned when the validator count is not in 1..99.
	ErrInvalidTotal = errors.New("invalid validator count")

	// ErrUnknownNodeID is returned when a peer's node id has not been recorded.
	ErrUnknownNodeID = errors.New("node id unknown")
)

// Endpoint is a peer address in Tendermint's id@host:port form.
type Endpoint struct {
	NodeID string `json:"node_id"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

func (e Endpoint) String() string {
	return e.NodeID + "@" + e.Host + ":" + strconv.Itoa(e.Port)
}

// NodePlan is the derived layout of a single node.
type NodePlan struct {
	Index int                  `json:"index"`
	Name  string               `json:"name"`
	Ports types.PortAssignment `json:"ports"`
	Peers []int                `json:"peers"`
}

// NodeName returns the canonical name of the node at index.
func NodeName(index int) string {
	return "node" + strconv.Itoa(index)
}

// ValidateTotal checks that total validators fit the port scheme.
func ValidateTotal(total int) error {
	if total < 1 || total > types.MaxNodeIndex {
		return fmt.Errorf("%w: %d (valid: 1..%d)", ErrInvalidTotal, total, types.MaxNodeIndex)
	}
	return nil
}

// PeerIndices returns the indices node index dials. The main node dials
// nobody; a validator dials the main node and (index % total) + 1. A node
// never dials itself, so with a single validator only the main spoke remains.
func PeerIndices(index, total int) ([]int, error) {
	if err := ValidateTotal(total); err != nil {
		return nil, err
	}
	if index == MainIndex {
		return nil, nil
	}
	if index < 1 || index > total {
		return nil, fmt.Errorf("%w: %d (valid: 0..%d)", types.ErrIndexOutOfRange, index, total)
	}

	peers := []int{MainIndex}
	if next := (index % total) + 1; next != index {
		peers = append(peers, next)
	}
	return peers, nil
}

// PeersFor resolves the peer indices of node index into endpoints using the
// recorded node ids. nodeIDs must hold an entry for every peer index.
func PeersFor(index, total int, nodeIDs map[int]string) ([]Endpoint, error) {
	indices, err := PeerIndices(index, total)
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(indices))
	for _, peer := range indices {
		id, ok := nodeIDs[peer]
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNodeID, NodeName(peer))
		}
		ports, err := types.PortsFor(peer)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, Endpoint{NodeID: id, Host: DefaultHost, Port: ports.P2P})
	}
	return endpoints, nil
}

// Plan returns the layout of the main node plus total validators.
func Plan(total int) ([]NodePlan, error) {
	if err := ValidateTotal(total); err != nil {
		return nil, err
	}

	plans := make([]NodePlan, 0, total+1)
	for i := 0; i <= total; i++ {
		ports, err := types.PortsFor(i)
		if err != nil {
			return nil, err
		}
		peers, err := PeerIndices(i, total)
		if err != nil {
			return nil, err
		}
		plans = append(plans, NodePlan{Index: i, Name: NodeName(i), Ports: ports, Peers: peers})
	}
	return plans, nil
}
