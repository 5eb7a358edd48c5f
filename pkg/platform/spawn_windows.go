package platform

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func detachedProcAttr() (*syscall.SysProcAttr, error) {
	// New process group, no console window.
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW,
	}, nil
}
