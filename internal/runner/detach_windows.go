//go:build windows

package runner

import "syscall"

func detachedProcAttr() *syscall.SysProcAttr {
	return nil
}
