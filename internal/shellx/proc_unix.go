//go:build !windows

package shellx

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func newSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(proc *os.Process) {
	// the child is the leader of its own group, so -pid targets the group
	if err := unix.Kill(-proc.Pid, unix.SIGKILL); err != nil {
		_ = proc.Kill()
	}
}
