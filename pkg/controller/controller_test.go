package controller

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/registry"
	"github.com/devicelab-dev/automation-gateway/pkg/selector"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

func newTestController(t *testing.T, backend *fakeBackend, deps Deps) *Controller {
	t.Helper()
	deps.Backend = backend
	if deps.NewID == nil {
		deps.NewID = sequentialIDs()
	}
	c, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_RequiresBackend(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("expected error without backend")
	}
}

func TestNew_DefaultsToUUIDs(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByText, Value: "OK"}
	backend.show(loc)

	c, err := New(Deps{Backend: backend})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	id, ok := c.Find(loc)
	if !ok {
		t.Fatal("Find() failed")
	}
	if len(id) != 36 {
		t.Errorf("expected UUID-shaped id, got %q", id)
	}
}

func TestFindThenClick(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByText, Value: "Login"}
	backend.show(loc)
	c := newTestController(t, backend, Deps{})

	id, ok := c.Find(loc)
	if !ok {
		t.Fatal("Find() should succeed while the node is on screen")
	}
	if id != "el-1" {
		t.Errorf("expected el-1, got %s", id)
	}
	if !c.Click(id) {
		t.Error("Click() should succeed while the node is on screen")
	}

	// The handle is a recipe: once the node disappears the click fails quietly.
	backend.hide(loc)
	if c.Click(id) {
		t.Error("Click() should fail after the node disappeared")
	}
	if c.ElementCount() != 1 {
		t.Errorf("stale handle should stay registered, count = %d", c.ElementCount())
	}
}

func TestPurgeElements(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByText, Value: "OK"}
	backend.show(loc)

	now := time.Unix(0, 0)
	elements := registry.New[core.Locator](registry.Options{
		TTL:   time.Minute,
		Clock: func() time.Time { return now },
	})
	c := newTestController(t, backend, Deps{Elements: elements})

	if _, ok := c.Find(loc); !ok {
		t.Fatal("Find() failed")
	}
	if n := c.PurgeElements(); n != 0 {
		t.Errorf("PurgeElements() = %d before expiry, want 0", n)
	}

	now = now.Add(2 * time.Minute)
	if n := c.PurgeElements(); n != 1 {
		t.Errorf("PurgeElements() = %d, want 1", n)
	}
	if c.ElementCount() != 0 {
		t.Errorf("ElementCount() = %d, want 0", c.ElementCount())
	}
}

func TestFind_NoMatch(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend, Deps{})

	id, ok := c.Find(core.Locator{Strategy: core.ByID, Value: "com.app:id/missing"})
	if ok || id != "" {
		t.Errorf("Find() = (%q, %v), want absent", id, ok)
	}
	if c.ElementCount() != 0 {
		t.Errorf("expected no handles, got %d", c.ElementCount())
	}
}

func TestFind_EmptyValue(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend, Deps{})

	if _, ok := c.Find(core.Locator{Strategy: core.ByText}); ok {
		t.Error("Find() with empty value should fail")
	}
	if len(backend.calls) != 0 {
		t.Errorf("backend should not be called, got %v", backend.calls)
	}
}

func TestFind_ResolvesByStrategy(t *testing.T) {
	tests := []struct {
		loc  core.Locator
		call string
	}{
		{core.Locator{Strategy: core.ByText, Value: "A"}, "resolveText:A"},
		{core.Locator{Strategy: core.ByID, Value: "b"}, "resolveID:b"},
		{core.Locator{Strategy: core.ByClass, Value: "C"}, "resolveClass:C"},
	}

	for _, tt := range tests {
		t.Run(string(tt.loc.Strategy), func(t *testing.T) {
			backend := newFakeBackend()
			c := newTestController(t, backend, Deps{})
			c.Find(tt.loc)
			if len(backend.calls) != 1 || backend.calls[0] != tt.call {
				t.Errorf("calls = %v, want [%s]", backend.calls, tt.call)
			}
		})
	}
}

func TestClick_UnknownElement(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend, Deps{})

	if c.Click("no-such-id") {
		t.Error("Click() on unknown handle should fail")
	}
	if len(backend.calls) != 0 {
		t.Errorf("backend should not be called, got %v", backend.calls)
	}
}

func TestClick_BackendError(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByID, Value: "btn"}
	backend.show(loc)
	c := newTestController(t, backend, Deps{})

	id, _ := c.Find(loc)
	backend.clickErr = errBoom
	if c.Click(id) {
		t.Error("Click() should fail when the backend errors")
	}
}

func TestClickSelector(t *testing.T) {
	backend := newFakeBackend()
	backend.show(core.Locator{Strategy: core.ByID, Value: "com.app:id/ok"})
	c := newTestController(t, backend, Deps{})

	if !c.ClickSelector(selector.ByResourceID("com.app:id/ok")) {
		t.Error("ClickSelector() should succeed")
	}
	if c.ClickSelector(selector.Selector{}) {
		t.Error("ClickSelector() with zero selector should fail")
	}
	if c.ElementCount() != 0 {
		t.Error("selector clicks must not register handles")
	}
}

func TestSetText_NotEditable(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByID, Value: "com.app:id/title"}
	backend.show(loc)
	c := newTestController(t, backend, Deps{})

	id, ok := c.Find(loc)
	if !ok {
		t.Fatal("Find() failed")
	}

	if c.SetText(id, "hello") {
		t.Error("SetText() on a non-editable node should fail")
	}
	if c.ElementCount() != 1 {
		t.Errorf("registry changed, count = %d", c.ElementCount())
	}
	got, ok := c.Element(id)
	if !ok || got != loc {
		t.Errorf("Element(%s) = (%v, %v), want (%v, true)", id, got, ok, loc)
	}
	if _, written := backend.texts[loc]; written {
		t.Error("text should not be written")
	}
}

func TestSetText_Editable(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByID, Value: "com.app:id/username"}
	backend.show(loc)
	backend.editable[loc] = true
	c := newTestController(t, backend, Deps{})

	id, _ := c.Find(loc)
	if !c.SetText(id, "alice") {
		t.Fatal("SetText() should succeed")
	}
	if backend.texts[loc] != "alice" {
		t.Errorf("expected text alice, got %q", backend.texts[loc])
	}
}

func TestSetText_UnknownElement(t *testing.T) {
	c := newTestController(t, newFakeBackend(), Deps{})
	if c.SetText("missing", "x") {
		t.Error("SetText() on unknown handle should fail")
	}
}

func TestSetTextSelector_RejectsClass(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByClass, Value: "android.widget.EditText"}
	backend.show(loc)
	backend.editable[loc] = true
	c := newTestController(t, backend, Deps{})

	if c.SetTextSelector(selector.ByClassName("android.widget.EditText"), "x") {
		t.Error("class selectors must not be mutation targets")
	}
	if len(backend.calls) != 0 {
		t.Errorf("backend should not be called, got %v", backend.calls)
	}
}

func TestStartApp(t *testing.T) {
	t.Run("explicit activity", func(t *testing.T) {
		launcher := &fakeLauncher{log: &strategyLog{}}
		c := newTestController(t, newFakeBackend(), Deps{AppLauncher: launcher})

		if !c.StartApp("com.example", ".Main") {
			t.Fatal("StartApp() should succeed")
		}
		if len(launcher.started) != 1 {
			t.Fatalf("expected one intent, got %d", len(launcher.started))
		}
		in := launcher.started[0]
		if in.Component() != "com.example/.Main" {
			t.Errorf("component = %q", in.Component())
		}
		if in.Flags&core.FlagActivityNewTask == 0 {
			t.Error("new-task flag not set")
		}
		if len(launcher.log.calls) != 1 {
			t.Errorf("explicit activity should not resolve, calls = %v", launcher.log.calls)
		}
	})

	t.Run("resolved activity", func(t *testing.T) {
		launcher := &fakeLauncher{
			log:       &strategyLog{},
			installed: map[string]string{"com.example": "com.example.Splash"},
		}
		c := newTestController(t, newFakeBackend(), Deps{AppLauncher: launcher})

		if !c.StartApp("com.example", "") {
			t.Fatal("StartApp() should succeed")
		}
		in := launcher.started[0]
		if in.Activity != "com.example.Splash" {
			t.Errorf("activity = %q", in.Activity)
		}
		if in.Flags&core.FlagActivityNewTask == 0 {
			t.Error("new-task flag not set")
		}
	})

	t.Run("no launch intent", func(t *testing.T) {
		launcher := &fakeLauncher{log: &strategyLog{}}
		c := newTestController(t, newFakeBackend(), Deps{AppLauncher: launcher})

		if c.StartApp("com.missing", "") {
			t.Error("StartApp() should fail without a launch intent")
		}
		if len(launcher.started) != 0 {
			t.Error("nothing should be started")
		}
	})

	t.Run("start fails", func(t *testing.T) {
		launcher := &fakeLauncher{log: &strategyLog{}, startErr: errBoom}
		c := newTestController(t, newFakeBackend(), Deps{AppLauncher: launcher})

		if c.StartApp("com.example", ".Main") {
			t.Error("StartApp() should fail when the launch fails")
		}
	})

	t.Run("no launcher", func(t *testing.T) {
		c := newTestController(t, newFakeBackend(), Deps{})
		if c.StartApp("com.example", ".Main") {
			t.Error("StartApp() should fail without an app launcher")
		}
	})

	t.Run("empty package", func(t *testing.T) {
		launcher := &fakeLauncher{log: &strategyLog{}}
		c := newTestController(t, newFakeBackend(), Deps{AppLauncher: launcher})
		if c.StartApp("", ".Main") {
			t.Error("StartApp() should fail with empty package")
		}
	})
}

func TestSwipe(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend, Deps{})

	if !c.Swipe(100, 800, 100, 200, 300) {
		t.Fatal("Swipe() should succeed")
	}
	want := core.Gesture{StartX: 100, StartY: 800, EndX: 100, EndY: 200, DurationMs: 300}
	if len(backend.gestures) != 1 || backend.gestures[0] != want {
		t.Errorf("gestures = %v, want [%v]", backend.gestures, want)
	}

	if c.Swipe(-1, 0, 0, 0, 100) {
		t.Error("negative coordinate should fail")
	}
	if c.Swipe(0, 0, 0, 0, -5) {
		t.Error("negative duration should fail")
	}
	if len(backend.gestures) != 1 {
		t.Error("invalid swipes must not reach the backend")
	}

	backend.gestureErr = core.ErrNoActiveWindow
	if c.Swipe(0, 0, 10, 10, 0) {
		t.Error("Swipe() should fail when the backend refuses")
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScreenshot(t *testing.T) {
	backend := newFakeBackend()
	backend.capture = testPNG(t)
	c := newTestController(t, backend, Deps{})

	data, ok := c.Screenshot()
	if !ok {
		t.Fatal("Screenshot() failed")
	}
	if data != base64.StdEncoding.EncodeToString(backend.capture) {
		t.Error("PNG capture should be returned unchanged as base64")
	}
}

func TestScreenshot_Failures(t *testing.T) {
	tests := []struct {
		name    string
		capture []byte
		err     error
	}{
		{"backend error", nil, core.ErrCaptureFailed},
		{"empty capture", nil, nil},
		{"garbage", []byte("not an image"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.capture = tt.capture
			backend.captureErr = tt.err
			c := newTestController(t, backend, Deps{})

			if data, ok := c.Screenshot(); ok || data != "" {
				t.Errorf("Screenshot() = (%q, %v), want absent", data, ok)
			}
		})
	}
}

func TestGetText(t *testing.T) {
	backend := newFakeBackend()
	loc := core.Locator{Strategy: core.ByText, Value: "Welcome"}
	backend.show(loc)
	backend.texts[loc] = "Welcome"
	c := newTestController(t, backend, Deps{})

	text, ok := c.GetText(selector.ByText("Welcome"))
	if !ok || text != "Welcome" {
		t.Errorf("GetText() = (%q, %v)", text, ok)
	}

	if _, ok := c.GetText(selector.ByText("Goodbye")); ok {
		t.Error("GetText() should be absent when not found")
	}
	if _, ok := c.GetText(selector.Selector{}); ok {
		t.Error("GetText() with zero selector should fail")
	}
}

func TestExists(t *testing.T) {
	backend := newFakeBackend()
	backend.show(core.Locator{Strategy: core.ByClass, Value: "android.widget.Button"})
	c := newTestController(t, backend, Deps{})

	if !c.Exists(selector.ByClassName("android.widget.Button")) {
		t.Error("Exists() should be true")
	}
	if c.Exists(selector.ByText("Login")) {
		t.Error("Exists() should be false")
	}
	if c.Exists(selector.Selector{}) {
		t.Error("Exists() with zero selector should be false")
	}
}

func TestDumpUI_FiltersDepthAndEmptyNodes(t *testing.T) {
	backend := newFakeBackend()
	backend.nodes = []core.Node{
		{ClassName: "FrameLayout", Depth: 0},
		{ClassName: "TextView", Text: "Title", Depth: 1},
		{ClassName: "ImageView", Description: "Logo", Depth: 2},
		{ClassName: "Button", ResourceID: "com.app:id/ok", Depth: MaxDumpDepth},
		{ClassName: "TextView", Text: "Too deep", Depth: MaxDumpDepth + 1},
		{ClassName: "LinearLayout", Depth: 3},
	}
	c := newTestController(t, backend, Deps{})

	nodes := c.DumpUI()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d: %v", len(nodes), nodes)
	}
	for _, n := range nodes {
		if n.Depth > MaxDumpDepth {
			t.Errorf("node deeper than limit: %v", n)
		}
		if n.Text == "" && n.Description == "" && n.ResourceID == "" {
			t.Errorf("node without text/description/resource-id: %v", n)
		}
	}
	if nodes[0].Text != "Title" || nodes[2].ResourceID != "com.app:id/ok" {
		t.Errorf("pre-order not preserved: %v", nodes)
	}
	if backend.calls[0] != fmt.Sprintf("dump:%d", MaxDumpDepth) {
		t.Errorf("expected dump with depth %d, got %v", MaxDumpDepth, backend.calls)
	}
}

func TestDumpUI_NoActiveWindow(t *testing.T) {
	backend := newFakeBackend()
	backend.dumpErr = core.ErrNoActiveWindow
	c := newTestController(t, backend, Deps{})

	nodes := c.DumpUI()
	if nodes == nil || len(nodes) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", nodes)
	}
}
