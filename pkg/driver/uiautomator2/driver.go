// Package uiautomator2 implements the gateway action backend on top of an
// on-device UIAutomator2 server and an ADB shell.
package uiautomator2

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/uiautomator2"
)

// ShellExecutor runs shell commands on a device.
// Implemented by device.AndroidDevice.
type ShellExecutor interface {
	Shell(cmd string) (string, error)
}

// UIA2Client defines the UIAutomator2 client operations the backend needs.
// Implemented by uiautomator2.Client. Allows mocking in tests.
type UIA2Client interface {
	// Element finding
	FindElement(strategy, selector string) (*uiautomator2.Element, error)

	// Element actions
	ClickElement(id string) error
	ClearElement(id string) error
	SendKeysToElement(id, text string) error
	ElementText(id string) (string, error)
	ElementAttribute(id, name string) (string, error)

	// Input
	PressKeyCode(keyCode int) error
	Swipe(x1, y1, x2, y2, durationMs int) error

	// Screen state
	Screenshot() ([]byte, error)
	Source() (string, error)
}

// Driver implements core.Backend, core.KeyInjector, core.TaskSwitcher and
// core.AppLauncher using UIAutomator2.
type Driver struct {
	client UIA2Client
	device ShellExecutor // for am/cmd package; nil disables intent support

	mu               sync.Mutex
	launcherActivity string // cached HOME component
}

var (
	_ core.Backend      = (*Driver)(nil)
	_ core.KeyInjector  = (*Driver)(nil)
	_ core.TaskSwitcher = (*Driver)(nil)
	_ core.AppLauncher  = (*Driver)(nil)
)

// New creates a new UIAutomator2 backend.
func New(client UIA2Client, device ShellExecutor) *Driver {
	return &Driver{
		client: client,
		device: device,
	}
}

// LocatorStrategy represents a single UIA2 locator strategy with its value.
type LocatorStrategy struct {
	Strategy string
	Value    string
}

// buildStrategies converts a gateway locator to UIA2 strategies, tried in order.
// Text matches the visible text first, then the content description.
func buildStrategies(loc core.Locator) ([]LocatorStrategy, error) {
	if loc.Value == "" {
		return nil, core.ErrEmptySelector
	}

	switch loc.Strategy {
	case core.ByID:
		return []LocatorStrategy{
			{Strategy: uiautomator2.StrategyID, Value: loc.Value},
		}, nil
	case core.ByText:
		escaped := escapeUiAutomator(loc.Value)
		return []LocatorStrategy{
			{Strategy: uiautomator2.StrategyUIAutomator, Value: `new UiSelector().text("` + escaped + `")`},
			{Strategy: uiautomator2.StrategyUIAutomator, Value: `new UiSelector().description("` + escaped + `")`},
		}, nil
	case core.ByClass:
		return []LocatorStrategy{
			{Strategy: uiautomator2.StrategyClassName, Value: loc.Value},
		}, nil
	default:
		return nil, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unsupported locator strategy %q", loc.Strategy))
	}
}

// findElement re-resolves a locator against the current screen.
// Returns core.ErrElementNotFound when no strategy matches.
func (d *Driver) findElement(loc core.Locator) (*uiautomator2.Element, error) {
	strategies, err := buildStrategies(loc)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, s := range strategies {
		elem, err := d.client.FindElement(s.Strategy, s.Value)
		if err == nil {
			return elem, nil
		}
		if !isNotFound(err) {
			return nil, core.ErrActionFailed.WithCause(err)
		}
		lastErr = err
	}
	return nil, core.ErrElementNotFound.WithCause(lastErr).WithMessage("element not found: " + loc.String())
}

// isNotFound reports whether a find error means "no match" rather than a transport failure.
func isNotFound(err error) bool {
	var serverErr *uiautomator2.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.IsNoSuchElement()
	}
	return strings.Contains(err.Error(), "element not found")
}

func (d *Driver) resolve(loc core.Locator) (bool, error) {
	_, err := d.findElement(loc)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, core.ErrElementNotFound) {
		return false, nil
	}
	return false, err
}

// ResolveByText reports whether a node with the given text or description is on screen.
func (d *Driver) ResolveByText(text string) (bool, error) {
	return d.resolve(core.Locator{Strategy: core.ByText, Value: text})
}

// ResolveByID reports whether a node with the given resource-id is on screen.
func (d *Driver) ResolveByID(resourceID string) (bool, error) {
	return d.resolve(core.Locator{Strategy: core.ByID, Value: resourceID})
}

// ResolveByClass reports whether a node of the given class is on screen.
func (d *Driver) ResolveByClass(className string) (bool, error) {
	return d.resolve(core.Locator{Strategy: core.ByClass, Value: className})
}

// Click re-resolves loc and taps it.
func (d *Driver) Click(loc core.Locator) error {
	elem, err := d.findElement(loc)
	if err != nil {
		return err
	}
	if err := d.client.ClickElement(elem.ID()); err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	return nil
}

// SetText re-resolves loc, checks it is editable, clears it and types text.
func (d *Driver) SetText(loc core.Locator, text string) error {
	elem, err := d.findElement(loc)
	if err != nil {
		return err
	}

	className, err := d.client.ElementAttribute(elem.ID(), "className")
	if err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	if !isEditableClass(className) {
		return core.ErrNotEditable.WithMessage(fmt.Sprintf("%s is not editable (%s)", loc, className))
	}

	if err := d.client.ClearElement(elem.ID()); err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	if err := d.client.SendKeysToElement(elem.ID(), text); err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	return nil
}

// editable widget classes (and their common subclasses)
var editableClassMarkers = []string{"EditText", "AutoCompleteTextView", "SearchAutoComplete"}

func isEditableClass(className string) bool {
	for _, marker := range editableClassMarkers {
		if strings.Contains(className, marker) {
			return true
		}
	}
	return false
}

// GetText re-resolves loc and reads its text.
func (d *Driver) GetText(loc core.Locator) (string, error) {
	elem, err := d.findElement(loc)
	if err != nil {
		return "", err
	}
	text, err := d.client.ElementText(elem.ID())
	if err != nil {
		return "", core.ErrActionFailed.WithCause(err)
	}
	return text, nil
}

// DispatchGesture performs a single straight-line touch gesture.
func (d *Driver) DispatchGesture(g core.Gesture) error {
	if g.DurationMs < 0 {
		return core.ErrInvalidArgument.WithMessage("gesture duration must not be negative")
	}
	if err := d.client.Swipe(g.StartX, g.StartY, g.EndX, g.EndY, g.DurationMs); err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	return nil
}

// CaptureScreen returns the raw screenshot bytes.
func (d *Driver) CaptureScreen() ([]byte, error) {
	data, err := d.client.Screenshot()
	if err != nil {
		return nil, core.ErrCaptureFailed.WithCause(err)
	}
	if len(data) == 0 {
		return nil, core.ErrCaptureFailed.WithMessage("empty screenshot")
	}
	return data, nil
}

// DumpNodes returns the on-screen nodes in pre-order, no deeper than maxDepth.
func (d *Driver) DumpNodes(maxDepth int) ([]core.Node, error) {
	source, err := d.client.Source()
	if err != nil {
		return nil, core.ErrActionFailed.WithCause(err)
	}

	elements, err := ParsePageSource(source)
	if err != nil {
		return nil, core.ErrActionFailed.WithCause(err)
	}
	if len(elements) == 0 {
		return nil, core.ErrNoActiveWindow
	}

	logger.Debug("page source: %d elements", len(elements))
	return ToNodes(elements, maxDepth), nil
}

// InjectKey presses a key through the UIAutomator2 instrumentation.
func (d *Driver) InjectKey(code int) error {
	if err := d.client.PressKeyCode(code); err != nil {
		return core.ErrActionFailed.WithCause(err)
	}
	return nil
}

// escapeUiAutomator escapes a literal for a UiSelector string argument.
func escapeUiAutomator(s string) string {
	var result strings.Builder
	result.Grow(len(s) * 2)

	for _, c := range s {
		switch c {
		case '"':
			result.WriteString(`\"`)
		case '\\':
			result.WriteString(`\\`)
		case '\n':
			result.WriteString(`\n`)
		case '\r':
			result.WriteString(`\r`)
		case '\t':
			result.WriteString(`\t`)
		default:
			result.WriteRune(c)
		}
	}
	return result.String()
}
