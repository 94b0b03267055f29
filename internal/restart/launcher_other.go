//go:build !unix && !windows

package restart

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
