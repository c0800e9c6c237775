package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// NodeErrorInfo contains error information for a failed node.
type NodeErrorInfo struct {
	NodeName string   // Node identifier (e.g., "node0", "node1")
	NodeDir  string   // Node home directory path
	LogPath  string   // Full path to log file
	LogLines []string // Last N lines from log file
	Error    error    // The error that occurred
	Command  string   // Executed command (for verbose mode)
	PID      int      // Process ID (if available)
}

// CommandErrorInfo contains error information for a failed external command.
type CommandErrorInfo struct {
	Command  string   // Full command that was executed
	Args     []string // Command arguments
	WorkDir  string   // Working directory
	Stdout   string   // Standard output content
	Stderr   string   // Standard error content
	ExitCode int      // Exit code
	Error    error    // The error that occurred
}

// PrintCommandError prints the command line, exit code and captured output
// of a failed external command.
func (l *Logger) PrintCommandError(info *CommandErrorInfo) {
	if info == nil {
		return
	}
	red := color.New(color.FgRed)

	fmt.Fprintln(l.errOut, RedSeparator())
	red.Fprintf(l.errOut, "Command failed (exit code %d)\n", info.ExitCode)
	fmt.Fprintf(l.errOut, "  Command: %s %s\n", info.Command, strings.Join(info.Args, " "))
	if info.WorkDir != "" {
		fmt.Fprintf(l.errOut, "  WorkDir: %s\n", info.WorkDir)
	}
	if info.Error != nil {
		fmt.Fprintf(l.errOut, "  Error:   %v\n", info.Error)
	}
	if out := strings.TrimSpace(info.Stdout); out != "" {
		fmt.Fprintln(l.errOut, "  Output:")
		printIndented(l, out)
	}
	if out := strings.TrimSpace(info.Stderr); out != "" {
		fmt.Fprintln(l.errOut, "  Stderr:")
		printIndented(l, out)
	}
	fmt.Fprintln(l.errOut, RedSeparator())
}

// PrintNodeError prints a node failure together with the tail of its log.
func (l *Logger) PrintNodeError(info *NodeErrorInfo) {
	if info == nil {
		return
	}
	red := color.New(color.FgRed)

	fmt.Fprintln(l.errOut, RedSeparator())
	red.Fprintf(l.errOut, "Node %s failed\n", info.NodeName)
	if info.Error != nil {
		fmt.Fprintf(l.errOut, "  Error: %v\n", info.Error)
	}
	fmt.Fprintf(l.errOut, "  Home:  %s\n", info.NodeDir)
	if info.PID > 0 {
		fmt.Fprintf(l.errOut, "  PID:   %d\n", info.PID)
	}
	if l.verbose && info.Command != "" {
		fmt.Fprintf(l.errOut, "  Command: %s\n", info.Command)
	}
	if info.LogPath != "" {
		fmt.Fprintf(l.errOut, "  Log:   %s\n", info.LogPath)
	}
	if len(info.LogLines) > 0 {
		fmt.Fprintf(l.errOut, "  Last %d log lines:\n", len(info.LogLines))
		for _, line := range info.LogLines {
			fmt.Fprintf(l.errOut, "    %s\n", line)
		}
	}
	fmt.Fprintln(l.errOut, RedSeparator())
}

func printIndented(l *Logger, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(l.errOut, "    %s\n", line)
	}
}
