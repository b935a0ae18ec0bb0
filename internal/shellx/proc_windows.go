//go:build windows

package shellx

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

func newSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

func killProcessGroup(proc *os.Process) {
	_ = proc.Kill()
}
