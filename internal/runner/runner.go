package runner

import (
	"context"
	"fmt"
	"strings"

	"cosmossdk.io/log"

	"github.com/altuslabsxyz/localnet/internal/output"
)

// Runner executes external tool invocations and reports failures.
type Runner struct {
	exec   Executor
	logger log.Logger
	out    *output.Logger
}

// New creates a Runner. Nil loggers fall back to a nop structured logger and
// the default CLI logger.
func New(exec Executor, logger log.Logger, out *output.Logger) *Runner {
	if exec == nil {
		exec = NewOSExecutor()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if out == nil {
		out = output.DefaultLogger
	}
	return &Runner{exec: exec, logger: logger, out: out}
}

// Run executes cmd and discards its output on success.
func (r *Runner) Run(ctx context.Context, cmd Command) error {
	_, err := r.Output(ctx, cmd)
	return err
}

// Output executes cmd and returns its captured standard output. On failure
// the command, exit code and captured output are printed before the
// *CommandError is returned.
func (r *Runner) Output(ctx context.Context, cmd Command) (string, error) {
	r.logger.Debug("exec", "cmd", cmd.String())

	res, err := r.exec.Execute(ctx, cmd)
	if err == nil && res.ExitCode == 0 {
		return string(res.Stdout), nil
	}

	cmdErr := &CommandError{
		Command:  cmd,
		ExitCode: res.ExitCode,
		Output:   strings.TrimSpace(string(res.Stdout) + "\n" + string(res.Stderr)),
		Err:      err,
	}
	if err == nil {
		cmdErr.Err = fmt.Errorf("exit status %d", res.ExitCode)
	}

	r.logger.Error("command failed", "cmd", cmd.String(), "exit_code", res.ExitCode)
	r.out.PrintCommandError(&output.CommandErrorInfo{
		Command:  cmd.Binary,
		Args:     cmd.Args,
		WorkDir:  cmd.Dir,
		Stdout:   string(res.Stdout),
		Stderr:   string(res.Stderr),
		ExitCode: res.ExitCode,
		Error:    cmdErr.Err,
	})
	return "", cmdErr
}

// Detach launches cmd as an independent background process whose combined
// output is appended to logPath. No handle is kept; liveness is never
// checked by the runner.
func (r *Runner) Detach(cmd Command, logPath string) (int, error) {
	r.logger.Debug("spawn", "cmd", cmd.String(), "log", logPath)

	pid, err := r.exec.Spawn(cmd, logPath)
	if err != nil {
		return 0, &CommandError{Command: cmd, ExitCode: -1, Err: err}
	}

	r.logger.Info("process started", "cmd", cmd.Binary, "pid", pid, "log", logPath)
	return pid, nil
}
