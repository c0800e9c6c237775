package node

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/altuslabsxyz/localnet/internal/output"
)

const (
	// HealthCheckTimeout is the timeout for a single /status request.
	HealthCheckTimeout = 5 * time.Second

	// HealthCheckInterval is the default interval between polls.
	HealthCheckInterval = 1 * time.Second

	// LogTailLines is how many log lines a NotReadyError carries.
	LogTailLines = 20
)

// RPCStatusResponse represents the RPC /status response.
type RPCStatusResponse struct {
	Result struct {
		SyncInfo struct {
			LatestBlockHeight string `json:"latest_block_height"`
			CatchingUp        bool   `json:"catching_up"`
		} `json:"sync_info"`
		NodeInfo struct {
			ID      string `json:"id"`
			Network string `json:"network"`
			Moniker string `json:"moniker"`
		} `json:"node_info"`
	} `json:"result"`
}

// Status is the parsed subset of /status the launcher relies on.
type Status struct {
	NodeID      string
	Network     string
	BlockHeight int64
	CatchingUp  bool
}

// Poller polls node RPC endpoints.
type Poller struct {
	client   *http.Client
	interval time.Duration
}

// NewPoller creates a Poller polling every interval. Zero selects
// HealthCheckInterval.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = HealthCheckInterval
	}
	return &Poller{
		client:   &http.Client{Timeout: HealthCheckTimeout},
		interval: interval,
	}
}

// Status queries rpcURL/status once.
func (p *Poller) Status(ctx context.Context, rpcURL string) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rpcURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RPC returned status %d", resp.StatusCode)
	}

	var body RPCStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	st := &Status{
		NodeID:     body.Result.NodeInfo.ID,
		Network:    body.Result.NodeInfo.Network,
		CatchingUp: body.Result.SyncInfo.CatchingUp,
	}
	if h := body.Result.SyncInfo.LatestBlockHeight; h != "" {
		height, err := strconv.ParseInt(h, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid block height %q: %w", h, err)
		}
		st.BlockHeight = height
	}
	return st, nil
}

// WaitForHealthy polls d until /status answers, the timeout elapses or ctx
// is cancelled. A timeout yields a *NotReadyError with the log tail.
func (p *Poller) WaitForHealthy(ctx context.Context, d *Descriptor, timeout time.Duration) (*Status, error) {
	var st *Status
	var lastErr error
	err := p.poll(ctx, timeout, func(ctx context.Context) bool {
		st, lastErr = p.Status(ctx, d.RPCURL())
		return lastErr == nil
	})
	if err != nil {
		return nil, p.notReady(d, timeout, err, lastErr)
	}
	return st, nil
}

// WaitForHeight polls d until its height reaches target.
func (p *Poller) WaitForHeight(ctx context.Context, d *Descriptor, target int64, timeout time.Duration) (int64, error) {
	var height int64
	var lastErr error
	err := p.poll(ctx, timeout, func(ctx context.Context) bool {
		st, err := p.Status(ctx, d.RPCURL())
		if err != nil {
			lastErr = err
			return false
		}
		height = st.BlockHeight
		lastErr = fmt.Errorf("height %d below %d", height, target)
		return height >= target
	})
	if err != nil {
		return height, p.notReady(d, timeout, err, lastErr)
	}
	return height, nil
}

// poll calls check until it reports done and returns the context error that
// ended polling otherwise.
func (p *Poller) poll(ctx context.Context, timeout time.Duration, check func(context.Context) bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if check(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) notReady(d *Descriptor, timeout time.Duration, cause, lastErr error) error {
	return &NotReadyError{
		Node:    d.Name,
		URL:     d.RPCURL(),
		Timeout: timeout,
		Cause:   cause,
		LastErr: lastErr,
		LogPath: d.LogFilePath(),
		LogTail: output.TailLines(d.LogFilePath(), LogTailLines),
	}
}

// NotReadyError is returned when a node does not answer in time.
type NotReadyError struct {
	Node    string
	URL     string
	Timeout time.Duration
	Cause   error
	LastErr error
	LogPath string
	LogTail []string
}

func (e *NotReadyError) Error() string {
	msg := fmt.Sprintf("node %s not ready at %s after %s", e.Node, e.URL, e.Timeout)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

// Unwrap exposes the context error, so cancellation stays detectable.
func (e *NotReadyError) Unwrap() error {
	return e.Cause
}

// ShouldSilenceUsage marks readiness failures as operational errors.
func (e *NotReadyError) ShouldSilenceUsage() bool {
	return true
}

// ErrorInfo converts e for output.Logger.PrintNodeError.
func (e *NotReadyError) ErrorInfo(d *Descriptor) *output.NodeErrorInfo {
	return &output.NodeErrorInfo{
		NodeName: e.Node,
		NodeDir:  d.HomeDir,
		LogPath:  e.LogPath,
		LogLines: e.LogTail,
		Error:    e,
		PID:      d.PID,
	}
}
