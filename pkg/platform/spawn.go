package platform

import (
	"fmt"
	"os/exec"
)

// SpawnDetached starts name with args as a process independent of the
// caller's lifetime. The child keeps running after the caller exits and its
// standard streams are detached; nothing about its outcome is observable.
//
// Returns ErrUnsupported on OS families without a detached spawn path.
func SpawnDetached(name string, args ...string) error {
	attr, err := detachedProcAttr()
	if err != nil {
		return err
	}

	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = attr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached process: %w", err)
	}

	// Drop the handle so the child is never reaped by us and can outlive
	// this process.
	return cmd.Process.Release()
}
