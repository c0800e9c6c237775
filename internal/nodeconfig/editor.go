// Package nodeconfig edits a node's config.toml through a structured
// parse-modify-serialize cycle and applies tool-side settings through the
// external config subcommand.
package nodeconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/altuslabsxyz/localnet/internal/topology"
	"github.com/altuslabsxyz/localnet/types"
)

// Well-known listen addresses written by the daemon's init.
const (
	DefaultProxyApp = "tcp://127.0.0.1:26658"
	DefaultRPCLaddr = "tcp://127.0.0.1:26657"
	DefaultP2PLaddr = "tcp://0.0.0.0:26656"
)

// Binding is a config key that is rebound to a node's assigned port.
type Binding struct {
	Key     string
	Default string
	port    func(types.PortAssignment) int
}

// Target returns the value key takes for ports: the default with its port
// replaced.
func (b Binding) Target(ports types.PortAssignment) string {
	i := strings.LastIndexByte(b.Default, ':')
	return b.Default[:i+1] + strconv.Itoa(b.port(ports))
}

// Bindings lists the rebound keys in the order they are checked.
var Bindings = []Binding{
	{Key: "proxy_app", Default: DefaultProxyApp, port: func(p types.PortAssignment) int { return p.Proxy }},
	{Key: "rpc.laddr", Default: DefaultRPCLaddr, port: func(p types.PortAssignment) int { return p.RPC }},
	{Key: "p2p.laddr", Default: DefaultP2PLaddr, port: func(p types.PortAssignment) int { return p.P2P }},
}

// ConfigEditor modifies a node's config/config.toml.
type ConfigEditor struct {
	nodeDir string
}

// NewConfigEditor creates an editor for the node home nodeDir.
func NewConfigEditor(nodeDir string) *ConfigEditor {
	return &ConfigEditor{nodeDir: nodeDir}
}

// ConfigPath returns the path to config.toml.
func (e *ConfigEditor) ConfigPath() string {
	return filepath.Join(e.nodeDir, "config", "config.toml")
}

// Rebind moves the proxy, RPC and P2P listen addresses to ports. Every key
// must hold its init default or already hold its target. If any key does
// not, the file is left untouched and a *DefaultMismatchError is returned.
func (e *ConfigEditor) Rebind(ports types.PortAssignment) error {
	doc, err := e.load()
	if err != nil {
		return err
	}

	var mismatches []Mismatch
	for _, b := range Bindings {
		target := b.Target(ports)
		current, _ := lookup(doc, b.Key).(string)
		if current != b.Default && current != target {
			mismatches = append(mismatches, Mismatch{Key: b.Key, Want: b.Default, Got: current})
		}
	}
	if len(mismatches) > 0 {
		return &DefaultMismatchError{Path: e.ConfigPath(), Mismatches: mismatches}
	}

	for _, b := range Bindings {
		if err := set(doc, b.Key, b.Target(ports)); err != nil {
			return err
		}
	}
	return e.save(doc)
}

// SetPeers sets p2p.persistent_peers to the comma-joined endpoint list.
func (e *ConfigEditor) SetPeers(peers []topology.Endpoint) error {
	parts := make([]string, len(peers))
	for i, p := range peers {
		parts[i] = p.String()
	}
	return e.Set("p2p.persistent_peers", strings.Join(parts, ","))
}

// SetLocalP2P allows several nodes to peer over 127.0.0.1.
func (e *ConfigEditor) SetLocalP2P() error {
	return e.SetAll(map[string]any{
		"p2p.addr_book_strict":   false,
		"p2p.allow_duplicate_ip": true,
	})
}

// Get returns the value at the dotted key path, or nil.
func (e *ConfigEditor) Get(key string) (any, error) {
	doc, err := e.load()
	if err != nil {
		return nil, err
	}
	return lookup(doc, key), nil
}

// Set writes a single value at the dotted key path.
func (e *ConfigEditor) Set(key string, value any) error {
	return e.SetAll(map[string]any{key: value})
}

// SetAll writes several values in one read-modify-write cycle.
func (e *ConfigEditor) SetAll(values map[string]any) error {
	doc, err := e.load()
	if err != nil {
		return err
	}
	for key, value := range values {
		if err := set(doc, key, value); err != nil {
			return err
		}
	}
	return e.save(doc)
}

func (e *ConfigEditor) load() (map[string]any, error) {
	data, err := os.ReadFile(e.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.ConfigPath(), err)
	}
	doc := make(map[string]any)
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.ConfigPath(), err)
	}
	return doc, nil
}

// save rewrites the whole file from doc. Comments and key order of the
// generated config are not preserved; values the editor did not touch are.
func (e *ConfigEditor) save(doc map[string]any) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", e.ConfigPath(), err)
	}
	if err := os.WriteFile(e.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", e.ConfigPath(), err)
	}
	return nil
}

func lookup(doc map[string]any, key string) any {
	parts := strings.Split(key, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur[parts[len(parts)-1]]
}

func set(doc map[string]any, key string, value any) error {
	parts := strings.Split(key, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, exists := cur[p]
		if !exists {
			table := make(map[string]any)
			cur[p] = table
			cur = table
			continue
		}
		table, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %s: %s is not a table", key, p)
		}
		cur = table
	}
	cur[parts[len(parts)-1]] = value
	return nil
}
