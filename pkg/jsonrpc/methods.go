package jsonrpc

import (
	"fmt"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/selector"
)

// DefaultSwipeDuration applies when swipe and adb_swipe omit the duration.
const DefaultSwipeDuration = 500

type method struct {
	minParams int
	call      func(p Params) Result
}

func (h *Handler) methodTable() map[string]method {
	return map[string]method{
		"click":      {1, h.click},
		"set_text":   {2, h.setText},
		"app_start":  {1, h.appStart},
		"press":      {1, h.press},
		"swipe":      {4, h.swipe},
		"screenshot": {0, h.screenshot},
		"get_text":   {1, h.getText},
		"exists":     {1, h.exists},
		"dump_ui":    {0, h.dumpUI},
		"adb_shell":  {1, h.adbShell},
		"adb_tap":    {2, h.adbTap},
		"adb_text":   {1, h.adbText},
		"adb_swipe":  {4, h.adbSwipe},
	}
}

func readSelector(p Params) (selector.Selector, error) {
	raw, err := p.Selector(0)
	if err != nil {
		return selector.Selector{}, err
	}
	return selector.ParseForRead(raw)
}

func (h *Handler) click(p Params) Result {
	sel, err := readSelector(p)
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.ClickSelector(sel), "Element not found or click failed: "+sel.String())
}

func (h *Handler) setText(p Params) Result {
	raw, err := p.Selector(0)
	if err != nil {
		return failure(err.Error())
	}
	sel, err := selector.ParseForMutation(raw)
	if err != nil {
		return failure(err.Error())
	}
	text, err := p.String(1, "text")
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.SetTextSelector(sel, text), "Element not found or not editable: "+sel.String())
}

func (h *Handler) appStart(p Params) Result {
	pkg, err := p.String(0, "package")
	if err != nil {
		return failure(err.Error())
	}
	if pkg == "" {
		return failure("package must not be empty")
	}
	activity, err := p.OptionalString(1, "activity", "")
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.StartApp(pkg, activity), "Failed to start "+pkg)
}

// press accepts a key code or a key name such as "home" or "back".
func (h *Handler) press(p Params) Result {
	var code int
	if p.IsString(0) {
		name, err := p.String(0, "key")
		if err != nil {
			return failure(err.Error())
		}
		c, ok := core.KeyCodeByName(name)
		if !ok {
			return failure(fmt.Sprintf("Unknown key: %s", name))
		}
		code = c
	} else {
		c, err := p.Int(0, "key")
		if err != nil {
			return failure(err.Error())
		}
		code = c
	}

	if code <= 0 {
		return failure(fmt.Sprintf("Invalid key code: %d", code))
	}
	return outcome(h.auto.PressKey(code), fmt.Sprintf("Failed to press key %d", code))
}

type swipeArgs struct {
	x1, y1, x2, y2, duration int
}

func parseSwipe(p Params) (swipeArgs, error) {
	var a swipeArgs
	var err error
	for i, dst := range []*int{&a.x1, &a.y1, &a.x2, &a.y2} {
		if *dst, err = p.Int(i, "coordinate"); err != nil {
			return a, err
		}
	}
	if a.duration, err = p.OptionalInt(4, "duration", DefaultSwipeDuration); err != nil {
		return a, err
	}
	if a.x1 < 0 || a.y1 < 0 || a.x2 < 0 || a.y2 < 0 || a.duration < 0 {
		return a, fmt.Errorf("coordinates and duration must not be negative")
	}
	return a, nil
}

func (h *Handler) swipe(p Params) Result {
	a, err := parseSwipe(p)
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.Swipe(a.x1, a.y1, a.x2, a.y2, a.duration), "Swipe failed")
}

func (h *Handler) screenshot(Params) Result {
	data, ok := h.auto.Screenshot()
	if !ok {
		return failure("Screenshot failed")
	}
	return Result{"success": true, "data": data, "format": "png"}
}

func (h *Handler) getText(p Params) Result {
	sel, err := readSelector(p)
	if err != nil {
		return failure(err.Error())
	}
	text, ok := h.auto.GetText(sel)
	if !ok {
		return failure("Element not found: " + sel.String())
	}
	return Result{"success": true, "text": text}
}

func (h *Handler) exists(p Params) Result {
	sel, err := readSelector(p)
	if err != nil {
		return failure(err.Error())
	}
	return Result{"success": true, "exists": h.auto.Exists(sel)}
}

func (h *Handler) dumpUI(Params) Result {
	nodes := h.auto.DumpUI()
	if nodes == nil {
		nodes = []core.Node{}
	}
	return Result{"success": true, "nodes": nodes, "count": len(nodes)}
}

func (h *Handler) adbShell(p Params) Result {
	cmd, err := p.String(0, "command")
	if err != nil {
		return failure(err.Error())
	}

	res := h.auto.RawShell(cmd)
	out := Result{
		"success":   res.OK(),
		"exit_code": res.ExitCode,
		"stdout":    res.Stdout,
		"stderr":    res.Stderr,
	}
	if res.Err != nil {
		out["error"] = res.Err.Error()
	}
	return out
}

func (h *Handler) adbTap(p Params) Result {
	x, err := p.Int(0, "x")
	if err != nil {
		return failure(err.Error())
	}
	y, err := p.Int(1, "y")
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.ShellTap(x, y), "input tap failed")
}

func (h *Handler) adbText(p Params) Result {
	text, err := p.String(0, "text")
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.ShellText(text), "input text failed")
}

func (h *Handler) adbSwipe(p Params) Result {
	a, err := parseSwipe(p)
	if err != nil {
		return failure(err.Error())
	}
	return outcome(h.auto.ShellSwipe(a.x1, a.y1, a.x2, a.y2, a.duration), "input swipe failed")
}
