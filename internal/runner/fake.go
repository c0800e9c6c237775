package runner

import (
	"context"
	"strings"
	"sync"
)

// FakeExecutor is a scripted Executor for tests. Handler decides the result
// of each synchronous call; a nil Handler succeeds with empty output.
type FakeExecutor struct {
	Handler func(cmd Command) (Result, error)

	mu      sync.Mutex
	calls   []Command
	spawned []Spawned
	nextPID int
}

// Spawned records a detached launch.
type Spawned struct {
	Command Command
	LogPath string
	PID     int
}

// Execute records cmd and delegates to Handler.
func (f *FakeExecutor) Execute(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return Result{}, nil
	}
	return handler(cmd)
}

// Spawn records cmd and returns a fake PID.
func (f *FakeExecutor) Spawn(cmd Command, logPath string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPID++
	pid := 10000 + f.nextPID
	f.spawned = append(f.spawned, Spawned{Command: cmd, LogPath: logPath, PID: pid})
	return pid, nil
}

// Calls returns every synchronous command executed so far.
func (f *FakeExecutor) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Spawns returns every detached launch so far.
func (f *FakeExecutor) Spawns() []Spawned {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Spawned(nil), f.spawned...)
}

// CallLines renders every executed command's arguments (binary excluded).
func (f *FakeExecutor) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = strings.Join(c.Args, " ")
	}
	return lines
}

var _ Executor = (*FakeExecutor)(nil)
