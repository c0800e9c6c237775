//go:build !windows

package runner

import "syscall"

// detachedProcAttr puts the child in its own process group so a Ctrl-C sent
// to the orchestrator does not reach launched nodes.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
