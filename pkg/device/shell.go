package device

import (
	"bytes"
	"errors"
	"os"
	"os/exec"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// AndroidShellPath is the shell of every Android system image.
const AndroidShellPath = "/system/bin/sh"

// OnDevice reports whether the process runs on an Android system image.
func OnDevice() bool {
	_, err := os.Stat(AndroidShellPath)
	return err == nil
}

// LocalShell runs command lines through the local POSIX shell.
// When the gateway runs on the device itself this is the direct path.
type LocalShell struct {
	// Path of the shell binary. Empty means "sh".
	Path string
}

// Run executes cmd with `sh -c`.
func (s LocalShell) Run(cmd string) core.ShellResult {
	sh := s.Path
	if sh == "" {
		sh = "sh"
	}
	return runCommand(sh, "-c", cmd)
}

// runCommand executes name with args and captures exit status and output.
// A process that could not be started reports ExitCode -1 and Err.
func runCommand(name string, args ...string) core.ShellResult {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := core.ShellResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}

	res.ExitCode = -1
	res.Err = err
	return res
}
