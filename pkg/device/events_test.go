package device

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

const geteventOutput = `add device 1: /dev/input/event3
  name:     "gpio-keys"
  events:
    KEY (0001): KEY_VOLUMEDOWN        KEY_VOLUMEUP          KEY_POWER
  input props:
    <none>
add device 2: /dev/input/event1
  name:     "qwerty2"
  events:
    KEY (0001): KEY_ESC               KEY_HOME              KEY_BACK
                KEY_POWER
    ABS (0003): ABS_X                 : value 0, min 0, max 1079, fuzz 0, flat 0, resolution 0
`

// scriptedShell answers commands by prefix and records them.
type scriptedShell struct {
	cmds    []string
	results map[string]core.ShellResult
}

func (s *scriptedShell) Run(cmd string) core.ShellResult {
	s.cmds = append(s.cmds, cmd)
	for prefix, res := range s.results {
		if strings.HasPrefix(cmd, prefix) {
			return res
		}
	}
	return core.ShellResult{ExitCode: 1, Stderr: "unexpected"}
}

func TestParseKeyDevices(t *testing.T) {
	got := parseKeyDevices(geteventOutput)

	want := map[string]string{
		"KEY_VOLUMEDOWN": "/dev/input/event3",
		"KEY_VOLUMEUP":   "/dev/input/event3",
		"KEY_POWER":      "/dev/input/event3",
		"KEY_ESC":        "/dev/input/event1",
		"KEY_HOME":       "/dev/input/event1",
		"KEY_BACK":       "/dev/input/event1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseKeyDevices() = %v, want %v", got, want)
	}
}

func TestEventKeyboard_DownUp(t *testing.T) {
	shell := &scriptedShell{results: map[string]core.ShellResult{
		"getevent":  {Stdout: geteventOutput},
		"sendevent": {},
	}}
	k := NewEventKeyboard(shell)

	if err := k.KeyDown(core.KeyCodeBack); err != nil {
		t.Fatalf("KeyDown() error = %v", err)
	}
	if err := k.KeyUp(core.KeyCodeBack); err != nil {
		t.Fatalf("KeyUp() error = %v", err)
	}

	want := []string{
		"getevent -pl",
		"sendevent /dev/input/event1 1 158 1 && sendevent /dev/input/event1 0 0 0",
		"sendevent /dev/input/event1 1 158 0 && sendevent /dev/input/event1 0 0 0",
	}
	if !reflect.DeepEqual(shell.cmds, want) {
		t.Errorf("commands = %q, want %q", shell.cmds, want)
	}
}

func TestEventKeyboard_HomeFallsBackToHomepage(t *testing.T) {
	shell := &scriptedShell{results: map[string]core.ShellResult{
		"getevent":  {Stdout: "add device 1: /dev/input/event5\n    KEY (0001): KEY_HOMEPAGE\n"},
		"sendevent": {},
	}}
	k := NewEventKeyboard(shell)

	if err := k.KeyDown(core.KeyCodeHome); err != nil {
		t.Fatalf("KeyDown() error = %v", err)
	}
	if last := shell.cmds[len(shell.cmds)-1]; !strings.HasPrefix(last, "sendevent /dev/input/event5 1 172 1") {
		t.Errorf("command = %q", last)
	}
}

func TestEventKeyboard_Unsupported(t *testing.T) {
	shell := &scriptedShell{results: map[string]core.ShellResult{
		"getevent": {Stdout: geteventOutput},
	}}
	k := NewEventKeyboard(shell)

	if err := k.KeyDown(core.KeyCodeEnter); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("KeyDown(ENTER) error = %v, want unsupported", err)
	}
	if len(shell.cmds) != 0 {
		t.Errorf("unmapped key should not touch the shell, got %q", shell.cmds)
	}

	noHome := &scriptedShell{results: map[string]core.ShellResult{
		"getevent": {Stdout: "add device 1: /dev/input/event0\n    KEY (0001): KEY_POWER\n"},
	}}
	if err := NewEventKeyboard(noHome).KeyDown(core.KeyCodeHome); !errors.Is(err, core.ErrUnsupported) {
		t.Errorf("KeyDown(HOME) error = %v, want unsupported", err)
	}
}

func TestEventKeyboard_DiscoveryRetriedAfterFailure(t *testing.T) {
	shell := &scriptedShell{results: map[string]core.ShellResult{
		"getevent": {ExitCode: 1, Stderr: "permission denied"},
	}}
	k := NewEventKeyboard(shell)

	err := k.KeyDown(core.KeyCodePower)
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("KeyDown() error = %v, want getevent failure", err)
	}

	shell.results = map[string]core.ShellResult{
		"getevent":  {Stdout: geteventOutput},
		"sendevent": {},
	}
	if err := k.KeyDown(core.KeyCodePower); err != nil {
		t.Fatalf("KeyDown() after recovery error = %v", err)
	}
	if got := shell.cmds[len(shell.cmds)-1]; !strings.HasPrefix(got, "sendevent /dev/input/event3 1 116 1") {
		t.Errorf("command = %q", got)
	}
}

func TestEventKeyboard_SendFailure(t *testing.T) {
	shell := &scriptedShell{results: map[string]core.ShellResult{
		"getevent":  {Stdout: geteventOutput},
		"sendevent": {ExitCode: 1, Stderr: "could not open /dev/input/event1"},
	}}

	err := NewEventKeyboard(shell).KeyUp(core.KeyCodeBack)
	if err == nil || !strings.Contains(err.Error(), "could not open") {
		t.Errorf("KeyUp() error = %v", err)
	}
}
