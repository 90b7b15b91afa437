//go:build !unix

package worker

import (
	"os"
	"os/exec"
)

func configureProcess(*exec.Cmd) {}

func terminate(proc *os.Process) error {
	if proc == nil {
		return os.ErrProcessDone
	}
	return proc.Kill()
}
