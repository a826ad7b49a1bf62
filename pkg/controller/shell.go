package controller

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// RawShell runs cmd through the direct shell and, when that fails with a
// non-zero exit, once more through the bridge.
func (c *Controller) RawShell(cmd string) core.ShellResult {
	if strings.TrimSpace(cmd) == "" {
		return core.ShellResult{ExitCode: -1, Err: core.ErrInvalidArgument.WithMessage("command is required")}
	}
	if c.deps.Shell == nil && c.deps.Bridge == nil {
		return core.ShellResult{ExitCode: -1, Err: core.ErrUnsupported.WithMessage("no shell available")}
	}

	if c.deps.Shell != nil {
		res := c.deps.Shell.Run(cmd)
		if res.OK() || c.deps.Bridge == nil {
			return res
		}
		logger.Debug("shell %q exited %d, retrying through bridge", cmd, res.ExitCode)
	}

	res := c.deps.Bridge.Run(cmd)
	if !res.OK() {
		logger.Debug("bridge %q exited %d: %s", cmd, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res
}

// ShellTap taps a screen coordinate with `input tap`.
func (c *Controller) ShellTap(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	return c.RawShell(fmt.Sprintf("input tap %d %d", x, y)).OK()
}

// ShellText types text into the focused field with `input text`.
func (c *Controller) ShellText(text string) bool {
	if text == "" {
		return false
	}
	return c.RawShell("input text " + inputTextArg(text)).OK()
}

// ShellSwipe swipes with `input swipe`.
func (c *Controller) ShellSwipe(x1, y1, x2, y2, durationMs int) bool {
	if x1 < 0 || y1 < 0 || x2 < 0 || y2 < 0 || durationMs < 0 {
		return false
	}
	return c.RawShell(fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs)).OK()
}

// inputTextArg encodes text for `input text`: spaces become %s and the
// result is single-quoted for the shell.
func inputTextArg(text string) string {
	encoded := strings.ReplaceAll(text, " ", "%s")
	return "'" + strings.ReplaceAll(encoded, "'", `'\''`) + "'"
}
