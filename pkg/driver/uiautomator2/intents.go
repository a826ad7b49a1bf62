package uiautomator2

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// resolveActivity asks the package manager for the activity that handles
// MAIN + category, optionally restricted to pkg. Returns "" when nothing matches.
func (d *Driver) resolveActivity(category, pkg string) (string, error) {
	if d.device == nil {
		return "", core.ErrUnsupported.WithMessage("intent resolution requires device shell access")
	}

	cmd := fmt.Sprintf("cmd package resolve-activity --brief -a %s -c %s", core.ActionMain, category)
	if pkg != "" {
		cmd += " " + shellQuote(pkg)
	}

	out, err := d.device.Shell(cmd)
	if err != nil {
		return "", core.ErrActionFailed.WithCause(err)
	}
	return parseResolvedComponent(out), nil
}

// parseResolvedComponent extracts "pkg/activity" from resolve-activity --brief output.
// The component is on the last non-empty line; "No activity found" means none.
func parseResolvedComponent(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" || strings.Contains(last, " ") || !strings.Contains(last, "/") {
		return ""
	}
	return last
}

// splitComponent splits "pkg/.Activity" into package and fully qualified activity.
func splitComponent(component string) (string, string) {
	pkg, activity, ok := strings.Cut(component, "/")
	if !ok {
		return component, ""
	}
	if strings.HasPrefix(activity, ".") {
		activity = pkg + activity
	}
	return pkg, activity
}

// ResolveLaunchIntent returns the launcher intent of pkg, or nil if it has none.
func (d *Driver) ResolveLaunchIntent(pkg string) (*core.Intent, error) {
	if pkg == "" {
		return nil, core.ErrInvalidArgument.WithMessage("package is required")
	}

	component, err := d.resolveActivity(core.CategoryLauncher, pkg)
	if err != nil {
		return nil, err
	}
	if component == "" {
		return nil, nil
	}

	resolvedPkg, activity := splitComponent(component)
	return &core.Intent{
		Action:     core.ActionMain,
		Categories: []string{core.CategoryLauncher},
		Package:    resolvedPkg,
		Activity:   activity,
	}, nil
}

// StartIntent fires an activity intent with `am start`.
func (d *Driver) StartIntent(intent core.Intent) error {
	if d.device == nil {
		return core.ErrUnsupported.WithMessage("starting intents requires device shell access")
	}
	return d.amStart(buildStartArgs(intent))
}

// BringLauncherToFront moves the HOME launcher task to the foreground.
func (d *Driver) BringLauncherToFront() error {
	component, err := d.homeComponent()
	if err != nil {
		return err
	}
	return d.amStart([]string{"--activity-brought-to-front", "-n", shellQuote(component)})
}

// homeComponent resolves and caches the default HOME activity.
func (d *Driver) homeComponent() (string, error) {
	d.mu.Lock()
	cached := d.launcherActivity
	d.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	component, err := d.resolveActivity(core.CategoryHome, "")
	if err != nil {
		return "", err
	}
	if component == "" {
		return "", core.ErrActionFailed.WithMessage("no HOME activity resolved")
	}

	d.mu.Lock()
	d.launcherActivity = component
	d.mu.Unlock()
	logger.Debug("HOME launcher resolved to %s", component)
	return component, nil
}

func (d *Driver) amStart(args []string) error {
	cmd := "am start " + strings.Join(args, " ")
	out, err := d.device.Shell(cmd)
	if err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	// am exits 0 even when the activity could not be started
	if strings.Contains(out, "Error:") || strings.Contains(out, "Exception") {
		return core.ErrActionFailed.WithMessage(strings.TrimSpace(out))
	}
	return nil
}

// buildStartArgs renders an intent as `am start` arguments.
func buildStartArgs(intent core.Intent) []string {
	var args []string
	if intent.Action != "" {
		args = append(args, "-a", shellQuote(intent.Action))
	}
	for _, c := range intent.Categories {
		args = append(args, "-c", shellQuote(c))
	}
	if component := intent.Component(); component != "" {
		args = append(args, "-n", shellQuote(component))
	} else if intent.Package != "" {
		args = append(args, "-p", shellQuote(intent.Package))
	}
	if intent.Flags != 0 {
		args = append(args, "-f", fmt.Sprintf("0x%08x", intent.Flags))
	}
	return args
}

// shellQuote single-quotes s for the device shell unless it is plainly safe.
func shellQuote(s string) string {
	safe := s != ""
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || strings.ContainsRune("._/-:", c)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
