// Package controller executes automation verbs against an action backend.
//
// Every verb returns a plain value and never panics or returns an error:
// backend failures are logged and collapsed to false/absent so that one bad
// command cannot take the gateway down. Protocol adapters decide how to
// present the outcome.
package controller

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/registry"
	"github.com/devicelab-dev/automation-gateway/pkg/screenshot"
	"github.com/devicelab-dev/automation-gateway/pkg/selector"
)

// MaxDumpDepth bounds the UI hierarchy traversal of DumpUI.
const MaxDumpDepth = 10

// DefaultMaxElements bounds the element registry when Deps.Elements is nil.
const DefaultMaxElements = 10000

// Deps are the collaborators a Controller runs against. Only Backend is
// required; every other strategy is skipped when its dependency is nil.
type Deps struct {
	Backend core.Backend

	// Key-press strategies, tried in order
	KeyInjector    core.KeyInjector
	KeyBroadcaster core.KeyBroadcaster
	TaskSwitcher   core.TaskSwitcher
	AppLauncher    core.AppLauncher

	// Shell runs commands directly; Bridge retries failed commands another way.
	Shell  core.ShellRunner
	Bridge core.ShellRunner

	// Launchers are tried in order when HOME falls back to launching a launcher app.
	Launchers []string

	// Elements holds element handles. Nil means a registry bounded to DefaultMaxElements.
	Elements *registry.Registry[core.Locator]

	// NewID generates element IDs. Nil means random UUIDs.
	NewID func() string
}

// Controller owns the element registry and executes verbs.
type Controller struct {
	deps     Deps
	elements *registry.Registry[core.Locator]
	newID    func() string
	keyChain []keyStrategy
}

// New creates a Controller.
func New(deps Deps) (*Controller, error) {
	if deps.Backend == nil {
		return nil, errors.New("controller requires a backend")
	}

	c := &Controller{
		deps:     deps,
		elements: deps.Elements,
		newID:    deps.NewID,
	}
	if c.elements == nil {
		c.elements = registry.New[core.Locator](registry.Options{MaxEntries: DefaultMaxElements})
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	c.keyChain = c.buildKeyChain()
	return c, nil
}

// Find checks that loc matches something on screen and registers a new
// element handle for it. The handle stores the locator, not the node.
func (c *Controller) Find(loc core.Locator) (string, bool) {
	if loc.Value == "" {
		logger.Debug("find: empty locator value")
		return "", false
	}

	found, err := c.resolve(loc)
	if err != nil {
		logger.Warn("find %s: %v", loc, err)
		return "", false
	}
	if !found {
		logger.Debug("find %s: no match", loc)
		return "", false
	}

	id := c.newID()
	c.elements.Put(id, loc)
	logger.Debugw("element registered", "id", id, "locator", loc.String())
	return id, true
}

func (c *Controller) resolve(loc core.Locator) (bool, error) {
	switch loc.Strategy {
	case core.ByText:
		return c.deps.Backend.ResolveByText(loc.Value)
	case core.ByID:
		return c.deps.Backend.ResolveByID(loc.Value)
	case core.ByClass:
		return c.deps.Backend.ResolveByClass(loc.Value)
	default:
		return false, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unsupported locator strategy %q", loc.Strategy))
	}
}

// Element returns the locator behind an element handle.
func (c *Controller) Element(elementID string) (core.Locator, bool) {
	return c.elements.Get(elementID)
}

// ElementCount returns the number of live element handles.
func (c *Controller) ElementCount() int {
	return c.elements.Len()
}

// PurgeElements drops expired element handles and returns how many went.
func (c *Controller) PurgeElements() int {
	return c.elements.Purge()
}

// Click re-resolves an element handle and taps it.
func (c *Controller) Click(elementID string) bool {
	loc, ok := c.elements.Get(elementID)
	if !ok {
		logger.Debug("click: unknown element %s", elementID)
		return false
	}
	return c.click(loc)
}

// ClickSelector re-resolves a selector and taps the match.
func (c *Controller) ClickSelector(sel selector.Selector) bool {
	if sel.IsZero() {
		return false
	}
	return c.click(sel.Locator())
}

func (c *Controller) click(loc core.Locator) bool {
	if err := c.deps.Backend.Click(loc); err != nil {
		logger.Warn("click %s: %v", loc, err)
		return false
	}
	return true
}

// SetText re-resolves an element handle, requires it be editable, and replaces its text.
func (c *Controller) SetText(elementID, text string) bool {
	loc, ok := c.elements.Get(elementID)
	if !ok {
		logger.Debug("set text: unknown element %s", elementID)
		return false
	}
	return c.setText(loc, text)
}

// SetTextSelector re-resolves a selector and replaces the match's text.
func (c *Controller) SetTextSelector(sel selector.Selector, text string) bool {
	if sel.IsZero() {
		return false
	}
	return c.setText(sel.Locator(), text)
}

func (c *Controller) setText(loc core.Locator, text string) bool {
	if loc.Strategy == core.ByClass {
		logger.Warn("set text %s: class locators are not supported for mutation", loc)
		return false
	}
	if err := c.deps.Backend.SetText(loc, text); err != nil {
		logger.Warn("set text %s: %v", loc, err)
		return false
	}
	return true
}

// StartApp launches pkg. With an empty activity the package's launch intent
// is resolved; otherwise the explicit component is started. The new-task
// flag is always set.
func (c *Controller) StartApp(pkg, activity string) bool {
	if pkg == "" {
		return false
	}
	if c.deps.AppLauncher == nil {
		logger.Warn("start app %s: no app launcher available", pkg)
		return false
	}

	var intent core.Intent
	if activity == "" {
		resolved, err := c.deps.AppLauncher.ResolveLaunchIntent(pkg)
		if err != nil {
			logger.Warn("start app %s: %v", pkg, err)
			return false
		}
		if resolved == nil {
			logger.Warn("start app %s: package has no launch intent", pkg)
			return false
		}
		intent = *resolved
	} else {
		intent = core.Intent{
			Action:     core.ActionMain,
			Categories: []string{core.CategoryLauncher},
			Package:    pkg,
			Activity:   activity,
		}
	}
	intent.Flags |= core.FlagActivityNewTask

	if err := c.deps.AppLauncher.StartIntent(intent); err != nil {
		logger.Warn("start app %s: %v", pkg, err)
		return false
	}
	logger.Info("started %s", pkg)
	return true
}

// Swipe performs a single straight-line gesture.
func (c *Controller) Swipe(x1, y1, x2, y2, durationMs int) bool {
	if x1 < 0 || y1 < 0 || x2 < 0 || y2 < 0 || durationMs < 0 {
		logger.Debug("swipe: negative coordinate or duration")
		return false
	}

	g := core.Gesture{StartX: x1, StartY: y1, EndX: x2, EndY: y2, DurationMs: durationMs}
	if err := c.deps.Backend.DispatchGesture(g); err != nil {
		logger.Warn("swipe (%d,%d)->(%d,%d): %v", x1, y1, x2, y2, err)
		return false
	}
	return true
}

// Screenshot captures the screen as base64-encoded PNG.
func (c *Controller) Screenshot() (string, bool) {
	raw, err := c.deps.Backend.CaptureScreen()
	if err != nil {
		logger.Warn("screenshot: %v", err)
		return "", false
	}

	encoded, err := screenshot.EncodeBase64PNG(raw)
	if err != nil {
		logger.Warn("screenshot: %v", err)
		return "", false
	}
	return encoded, true
}

// GetText reads the text of the node matching sel.
func (c *Controller) GetText(sel selector.Selector) (string, bool) {
	if sel.IsZero() {
		return "", false
	}

	text, err := c.deps.Backend.GetText(sel.Locator())
	if err != nil {
		if errors.Is(err, core.ErrElementNotFound) {
			logger.Debug("get text %s: no match", sel)
		} else {
			logger.Warn("get text %s: %v", sel, err)
		}
		return "", false
	}
	return text, true
}

// Exists reports whether sel matches something on screen.
func (c *Controller) Exists(sel selector.Selector) bool {
	if sel.IsZero() {
		return false
	}

	found, err := c.resolve(sel.Locator())
	if err != nil {
		logger.Warn("exists %s: %v", sel, err)
		return false
	}
	return found
}

// DumpUI returns on-screen nodes in pre-order, at most MaxDumpDepth deep,
// keeping only nodes that carry a text, description or resource-id.
// The result is empty (never nil) when there is no active window.
func (c *Controller) DumpUI() []core.Node {
	nodes, err := c.deps.Backend.DumpNodes(MaxDumpDepth)
	if err != nil {
		logger.Warn("dump ui: %v", err)
		return []core.Node{}
	}

	kept := make([]core.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Depth > MaxDumpDepth {
			continue
		}
		if n.Text == "" && n.Description == "" && n.ResourceID == "" {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
