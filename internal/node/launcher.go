package node

import (
	"fmt"
	"os"
	"time"

	"github.com/altuslabsxyz/localnet/internal/runner"
)

// Launcher starts node daemons as detached processes.
type Launcher struct {
	runner   *runner.Runner
	binary   string
	logLevel string
	trace    bool
}

// NewLauncher creates a Launcher. logLevel is passed to --log_level verbatim.
func NewLauncher(r *runner.Runner, binary, logLevel string, trace bool) *Launcher {
	return &Launcher{runner: r, binary: binary, logLevel: logLevel, trace: trace}
}

// Command returns the start command for d.
func (l *Launcher) Command(d *Descriptor) runner.Command {
	cmd := runner.NewCommand(l.binary, "start", "--home", d.HomeDir)
	if l.logLevel != "" {
		cmd = cmd.With("--log_level", l.logLevel)
	}
	if l.trace {
		cmd = cmd.With("--trace")
	}
	return cmd
}

// Launch writes the exact command line to the node log and starts the node
// in the background. The PID is recorded on d; the process is not supervised.
func (l *Launcher) Launch(d *Descriptor) error {
	cmd := l.Command(d)

	if err := appendLine(d.LogFilePath(), fmt.Sprintf("# %s %s", time.Now().UTC().Format(time.RFC3339), cmd.String())); err != nil {
		return fmt.Errorf("failed to write log header for %s: %w", d.Name, err)
	}

	pid, err := l.runner.Detach(cmd, d.LogFilePath())
	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", d.Name, err)
	}
	d.PID = pid
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
