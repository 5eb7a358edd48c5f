//go:build !windows && !unix

package platform

import "syscall"

func detachedProcAttr() (*syscall.SysProcAttr, error) {
	return nil, ErrUnsupported
}
