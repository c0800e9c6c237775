package staking

import (
	"context"
	"fmt"
	"time"

	"github.com/altuslabsxyz/localnet/internal/node"
)

// Settler blocks until submitted transactions can be assumed included.
type Settler interface {
	Settle(ctx context.Context) error
}

// DelaySettler waits a fixed duration.
type DelaySettler struct {
	Delay time.Duration
}

// Settle sleeps for Delay or until ctx is done.
func (s DelaySettler) Settle(ctx context.Context) error {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BlockSettler waits until the main node has committed Blocks new blocks.
type BlockSettler struct {
	Poller  *node.Poller
	Node    *node.Descriptor
	Blocks  int64
	Timeout time.Duration
}

// Settle reads the current height and polls until it advanced by Blocks.
func (s BlockSettler) Settle(ctx context.Context) error {
	st, err := s.Poller.Status(ctx, s.Node.RPCURL())
	if err != nil {
		return fmt.Errorf("failed to read height of %s: %w", s.Node.Name, err)
	}
	target := st.BlockHeight + s.Blocks
	if _, err := s.Poller.WaitForHeight(ctx, s.Node, target, s.Timeout); err != nil {
		return err
	}
	return nil
}

// NewSettler returns a BlockSettler for blocks > 0 and a DelaySettler of
// delay otherwise.
func NewSettler(poller *node.Poller, main *node.Descriptor, blocks int64, timeout, delay time.Duration) Settler {
	if blocks > 0 {
		return BlockSettler{Poller: poller, Node: main, Blocks: blocks, Timeout: timeout}
	}
	return DelaySettler{Delay: delay}
}
