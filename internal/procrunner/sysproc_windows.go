//go:build windows

package procrunner

import "syscall"

func sysProcAttr(pgid int) *syscall.SysProcAttr {
	return nil
}
