//go:build !windows

package procrunner

import "syscall"

// sysProcAttr builds the process-group attributes for Launch's pgid
// parameter: -1 leaves the default (no
// Setpgid), 0 requests a new group led by the child itself, >0 requests an
// explicit existing group.
func sysProcAttr(pgid int) *syscall.SysProcAttr {
	if pgid < 0 {
		return nil
	}
	return &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
}
