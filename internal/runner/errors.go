package runner

import "fmt"

// CommandError is returned when an external tool exits non-zero or cannot be
// started at all (ExitCode -1).
type CommandError struct {
	Command  Command
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode < 0 && e.Err != nil {
		return fmt.Sprintf("command %q failed to run: %v", e.Command.String(), e.Err)
	}
	return fmt.Sprintf("command %q exited with code %d", e.Command.String(), e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ShouldSilenceUsage marks command failures as operational errors.
func (e *CommandError) ShouldSilenceUsage() bool {
	return true
}
