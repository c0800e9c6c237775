package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Executor abstracts process execution so the bootstrap phases can be tested
// against a scripted fake.
type Executor interface {
	// Execute runs cmd to completion. A non-zero exit is reported through
	// Result.ExitCode with a nil error; the error is reserved for failures to
	// start or a cancelled context.
	Execute(ctx context.Context, cmd Command) (Result, error)

	// Spawn starts cmd in the background with stdout and stderr appended to
	// logPath and returns the PID. The process is released immediately.
	Spawn(cmd Command, logPath string) (int, error)
}

// OSExecutor implements Executor using os/exec.
type OSExecutor struct{}

// NewOSExecutor creates the production executor.
func NewOSExecutor() *OSExecutor {
	return &OSExecutor{}
}

// Execute runs the command with separate stdout/stderr buffers.
func (e *OSExecutor) Execute(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, err
}

// Spawn starts the command detached from the orchestrator. The log file is
// opened in append mode so relaunches keep earlier output.
func (e *OSExecutor) Spawn(cmd Command, logPath string) (int, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	// Not CommandContext: the node must outlive the orchestrator.
	c := exec.Command(cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = logFile
	c.Stderr = logFile
	c.SysProcAttr = detachedProcAttr()

	if err := c.Start(); err != nil {
		return 0, err
	}

	pid := c.Process.Pid
	if err := c.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release process %d: %w", pid, err)
	}
	return pid, nil
}

var _ Executor = (*OSExecutor)(nil)
