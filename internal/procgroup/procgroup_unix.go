// SPDX-License-Identifier: MIT

//go:build unix

// Package procgroup places encoder subprocesses into their own process group
// so that a termination signal reaches the whole tree, not just the direct
// child.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
)

// Set configures the command to start as a new process group leader. Must be
// called before cmd.Start for Kill to act on the full group.
func Set(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// Kill sends sig to the command's process group. A process that has already
// exited is treated as success.
func Kill(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}

	// Negative PGID addresses the whole group.
	if err := syscall.Kill(-pgid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
