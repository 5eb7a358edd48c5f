//go:build unix

package platform

import "syscall"

func detachedProcAttr() (*syscall.SysProcAttr, error) {
	// New session, detached from the parent's terminal.
	return &syscall.SysProcAttr{
		Setsid: true,
	}, nil
}
