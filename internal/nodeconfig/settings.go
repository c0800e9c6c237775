package nodeconfig

import (
	"context"
	"fmt"

	"github.com/altuslabsxyz/localnet/internal/runner"
)

// ToolSettings applies key/value settings through a tool's own config
// subcommand instead of editing its files.
type ToolSettings struct {
	runner *runner.Runner
	binary string
}

// NewToolSettings creates a ToolSettings for binary.
func NewToolSettings(r *runner.Runner, binary string) *ToolSettings {
	return &ToolSettings{runner: r, binary: binary}
}

// AppendSetting runs `<binary> config KEY VALUE --home HOME`.
func (s *ToolSettings) AppendSetting(ctx context.Context, home, key, value string) error {
	cmd := runner.NewCommand(s.binary, "config", key, value, "--home", home)
	if err := s.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Setting is a single key/value pair.
type Setting struct {
	Key   string
	Value string
}

// Apply appends every setting in order.
func (s *ToolSettings) Apply(ctx context.Context, home string, settings []Setting) error {
	for _, st := range settings {
		if err := s.AppendSetting(ctx, home, st.Key, st.Value); err != nil {
			return err
		}
	}
	return nil
}
