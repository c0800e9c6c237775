// Package runner executes the external daemon and wallet tools on behalf of
// the bootstrap phases. Every failure is returned as a *CommandError; there is
// no retry policy.
package runner

import (
	"strings"
)

// Command is a single external tool invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
}

// NewCommand creates a Command for binary with args.
func NewCommand(binary string, args ...string) Command {
	return Command{Binary: binary, Args: args}
}

// With returns a copy of c with extra arguments appended.
func (c Command) With(args ...string) Command {
	merged := make([]string, 0, len(c.Args)+len(args))
	merged = append(merged, c.Args...)
	merged = append(merged, args...)
	return Command{Binary: c.Binary, Args: merged, Dir: c.Dir}
}

// String renders the command as a shell-like line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Binary))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"'$") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// Result is the outcome of a synchronous execution.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}
