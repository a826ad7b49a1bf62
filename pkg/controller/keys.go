package controller

import (
	"errors"
	"fmt"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// errUnavailable marks a strategy whose dependency was not provided.
var errUnavailable = errors.New("strategy unavailable")

// keyStrategy is one step of the key-press fallback chain.
type keyStrategy struct {
	name    string
	applies func(code int) bool // nil applies to every key
	run     func(code int) error
}

// Key codes that can be delivered as separate down/up events.
var broadcastKeys = map[int]bool{
	core.KeyCodeHome:       true,
	core.KeyCodeBack:       true,
	core.KeyCodePower:      true,
	core.KeyCodeVolumeUp:   true,
	core.KeyCodeVolumeDown: true,
}

// inputBinaries are tried in order by the shell keyevent strategy.
var inputBinaries = []string{"input", "/system/bin/input"}

func isHome(code int) bool { return code == core.KeyCodeHome }

// buildKeyChain returns the fixed strategy order. Nothing is reordered at
// runtime; the first strategy that succeeds ends the chain.
func (c *Controller) buildKeyChain() []keyStrategy {
	return []keyStrategy{
		{name: "inject", run: c.injectKey},
		{name: "broadcast", applies: func(code int) bool { return broadcastKeys[code] }, run: c.broadcastKey},
		{name: "launcher-to-front", applies: isHome, run: c.launcherToFront},
		{name: "launcher-scan", applies: isHome, run: c.tryLaunchers},
		{name: "home-intent", applies: isHome, run: c.homeIntent},
		{name: "shell-keyevent", run: c.shellKeyEvent},
	}
}

// PressKey delivers an Android key code, falling back through the chain
// until one strategy succeeds.
func (c *Controller) PressKey(code int) bool {
	if code <= 0 {
		logger.Debug("press key: invalid code %d", code)
		return false
	}

	for _, s := range c.keyChain {
		if s.applies != nil && !s.applies(code) {
			continue
		}

		err := s.run(code)
		if err == nil {
			logger.Debug("key %d delivered via %s", code, s.name)
			return true
		}
		if errors.Is(err, errUnavailable) {
			logger.Debug("key %d: %s skipped (unavailable)", code, s.name)
			continue
		}
		logger.Warn("key %d: %s failed: %v", code, s.name, err)
	}

	logger.Error("key %d: every strategy failed", code)
	return false
}

func (c *Controller) injectKey(code int) error {
	if c.deps.KeyInjector == nil {
		return errUnavailable
	}
	return c.deps.KeyInjector.InjectKey(code)
}

func (c *Controller) broadcastKey(code int) error {
	if c.deps.KeyBroadcaster == nil {
		return errUnavailable
	}
	if err := c.deps.KeyBroadcaster.KeyDown(code); err != nil {
		return err
	}
	return c.deps.KeyBroadcaster.KeyUp(code)
}

func (c *Controller) launcherToFront(int) error {
	if c.deps.TaskSwitcher == nil {
		return errUnavailable
	}
	return c.deps.TaskSwitcher.BringLauncherToFront()
}

func (c *Controller) tryLaunchers(int) error {
	if c.deps.AppLauncher == nil || len(c.deps.Launchers) == 0 {
		return errUnavailable
	}

	var lastErr error
	for _, pkg := range c.deps.Launchers {
		intent, err := c.deps.AppLauncher.ResolveLaunchIntent(pkg)
		if err != nil {
			lastErr = err
			continue
		}
		if intent == nil {
			continue
		}

		intent.Flags |= core.FlagActivityNewTask
		if err := c.deps.AppLauncher.StartIntent(*intent); err != nil {
			lastErr = err
			continue
		}
		logger.Debug("HOME reached by launching %s", pkg)
		return nil
	}

	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("none of %d launcher packages is installed", len(c.deps.Launchers))
}

func (c *Controller) homeIntent(int) error {
	if c.deps.AppLauncher == nil {
		return errUnavailable
	}
	return c.deps.AppLauncher.StartIntent(core.Intent{
		Action:     core.ActionMain,
		Categories: []string{core.CategoryHome},
		Flags:      core.FlagActivityNewTask,
	})
}

func (c *Controller) shellKeyEvent(code int) error {
	if c.deps.Shell == nil && c.deps.Bridge == nil {
		return errUnavailable
	}

	var last core.ShellResult
	for _, bin := range inputBinaries {
		last = c.RawShell(fmt.Sprintf("%s keyevent %d", bin, code))
		if last.OK() {
			return nil
		}
	}
	if last.Err != nil {
		return last.Err
	}
	return fmt.Errorf("keyevent exited %d: %s", last.ExitCode, last.Stderr)
}
