//go:build !unix

package engine

import (
	"errors"
	"os"
	"os/exec"
)

var (
	sigTerminate os.Signal = os.Kill
	sigKill      os.Signal = os.Kill
	sigRestart   os.Signal = os.Interrupt
)

func setProcessGroup(*exec.Cmd) {}

func signalGroup(pid int, sig os.Signal) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if sig == os.Interrupt {
		return errors.New("restart is not supported on this platform")
	}
	return p.Signal(sig)
}
