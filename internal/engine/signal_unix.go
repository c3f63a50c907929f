//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

var (
	sigTerminate = syscall.SIGTERM
	sigKill      = syscall.SIGKILL
	sigRestart   = syscall.SIGHUP
)

// setProcessGroup puts the shell and everything it spawns in a new process
// group so signals reach the whole tree.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup delivers sig to the process group led by pid.
func signalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}
