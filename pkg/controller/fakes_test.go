package controller

import (
	"errors"
	"fmt"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// fakeBackend is a scripted core.Backend that records every call.
type fakeBackend struct {
	present  map[core.Locator]bool
	editable map[core.Locator]bool
	texts    map[core.Locator]string

	clickErr   error
	gestureErr error
	capture    []byte
	captureErr error
	nodes      []core.Node
	dumpErr    error

	calls    []string
	gestures []core.Gesture
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		present:  make(map[core.Locator]bool),
		editable: make(map[core.Locator]bool),
		texts:    make(map[core.Locator]string),
	}
}

func (f *fakeBackend) show(loc core.Locator) { f.present[loc] = true }
func (f *fakeBackend) hide(loc core.Locator) { delete(f.present, loc) }

func (f *fakeBackend) ResolveByText(text string) (bool, error) {
	f.calls = append(f.calls, "resolveText:"+text)
	return f.present[core.Locator{Strategy: core.ByText, Value: text}], nil
}

func (f *fakeBackend) ResolveByID(id string) (bool, error) {
	f.calls = append(f.calls, "resolveID:"+id)
	return f.present[core.Locator{Strategy: core.ByID, Value: id}], nil
}

func (f *fakeBackend) ResolveByClass(className string) (bool, error) {
	f.calls = append(f.calls, "resolveClass:"+className)
	return f.present[core.Locator{Strategy: core.ByClass, Value: className}], nil
}

func (f *fakeBackend) Click(loc core.Locator) error {
	f.calls = append(f.calls, "click:"+loc.String())
	if f.clickErr != nil {
		return f.clickErr
	}
	if !f.present[loc] {
		return core.ErrElementNotFound
	}
	return nil
}

func (f *fakeBackend) SetText(loc core.Locator, text string) error {
	f.calls = append(f.calls, "setText:"+loc.String())
	if !f.present[loc] {
		return core.ErrElementNotFound
	}
	if !f.editable[loc] {
		return core.ErrNotEditable
	}
	f.texts[loc] = text
	return nil
}

func (f *fakeBackend) GetText(loc core.Locator) (string, error) {
	f.calls = append(f.calls, "getText:"+loc.String())
	if !f.present[loc] {
		return "", core.ErrElementNotFound
	}
	return f.texts[loc], nil
}

func (f *fakeBackend) DispatchGesture(g core.Gesture) error {
	f.calls = append(f.calls, "gesture")
	f.gestures = append(f.gestures, g)
	return f.gestureErr
}

func (f *fakeBackend) CaptureScreen() ([]byte, error) {
	f.calls = append(f.calls, "capture")
	return f.capture, f.captureErr
}

func (f *fakeBackend) DumpNodes(maxDepth int) ([]core.Node, error) {
	f.calls = append(f.calls, fmt.Sprintf("dump:%d", maxDepth))
	return f.nodes, f.dumpErr
}

// strategyLog is shared by the key strategy fakes so the order across
// strategies can be asserted.
type strategyLog struct {
	calls []string
}

func (l *strategyLog) add(s string) { l.calls = append(l.calls, s) }

type fakeInjector struct {
	log *strategyLog
	err error
}

func (f *fakeInjector) InjectKey(code int) error {
	f.log.add(fmt.Sprintf("inject:%d", code))
	return f.err
}

type fakeBroadcaster struct {
	log     *strategyLog
	downErr error
	upErr   error
}

func (f *fakeBroadcaster) KeyDown(code int) error {
	f.log.add(fmt.Sprintf("down:%d", code))
	return f.downErr
}

func (f *fakeBroadcaster) KeyUp(code int) error {
	f.log.add(fmt.Sprintf("up:%d", code))
	return f.upErr
}

type fakeSwitcher struct {
	log *strategyLog
	err error
}

func (f *fakeSwitcher) BringLauncherToFront() error {
	f.log.add("to-front")
	return f.err
}

// fakeLauncher resolves only the packages listed in installed.
type fakeLauncher struct {
	log       *strategyLog
	installed map[string]string // package -> activity
	startErr  error
	started   []core.Intent
}

func (f *fakeLauncher) ResolveLaunchIntent(pkg string) (*core.Intent, error) {
	f.log.add("resolve:" + pkg)
	activity, ok := f.installed[pkg]
	if !ok {
		return nil, nil
	}
	return &core.Intent{
		Action:     core.ActionMain,
		Categories: []string{core.CategoryLauncher},
		Package:    pkg,
		Activity:   activity,
	}, nil
}

func (f *fakeLauncher) StartIntent(intent core.Intent) error {
	name := intent.Component()
	if name == "" {
		name = intent.Action
	}
	f.log.add("start:" + name)
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, intent)
	return nil
}

// fakeShell answers commands from results; anything else exits 1.
type fakeShell struct {
	log     *strategyLog
	name    string
	results map[string]core.ShellResult
}

func (f *fakeShell) Run(cmd string) core.ShellResult {
	if f.log != nil {
		f.log.add(f.name + ":" + cmd)
	}
	if res, ok := f.results[cmd]; ok {
		return res
	}
	return core.ShellResult{ExitCode: 1, Stderr: "not found"}
}

var errBoom = errors.New("boom")
