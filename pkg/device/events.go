package device

import (
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// Linux input event types written by sendevent.
const (
	evSyn = 0
	evKey = 1
)

// scanKey is a Linux input key that the stock key layouts map to an Android key code.
type scanKey struct {
	name string
	code int
}

var scanKeys = map[int][]scanKey{
	core.KeyCodeHome:       {{"KEY_HOME", 102}, {"KEY_HOMEPAGE", 172}},
	core.KeyCodeBack:       {{"KEY_BACK", 158}},
	core.KeyCodeVolumeUp:   {{"KEY_VOLUMEUP", 115}},
	core.KeyCodeVolumeDown: {{"KEY_VOLUMEDOWN", 114}},
	core.KeyCodePower:      {{"KEY_POWER", 116}},
}

// EventKeyboard sends key down and up as raw input events with sendevent.
// The input device for each key is discovered once with `getevent -pl`.
type EventKeyboard struct {
	shell core.ShellRunner

	mu      sync.Mutex
	devices map[string]string // key name -> /dev/input node, nil until discovered
}

// NewEventKeyboard creates an EventKeyboard running commands through shell.
func NewEventKeyboard(shell core.ShellRunner) *EventKeyboard {
	return &EventKeyboard{shell: shell}
}

// KeyDown presses the key.
func (k *EventKeyboard) KeyDown(code int) error {
	return k.send(code, 1)
}

// KeyUp releases the key.
func (k *EventKeyboard) KeyUp(code int) error {
	return k.send(code, 0)
}

func (k *EventKeyboard) send(code, value int) error {
	dev, key, err := k.target(code)
	if err != nil {
		return err
	}

	cmd := fmt.Sprintf("sendevent %s %d %d %d && sendevent %s %d 0 0", dev, evKey, key.code, value, dev, evSyn)
	if res := k.shell.Run(cmd); !res.OK() {
		return fmt.Errorf("sendevent %s: %s", key.name, describe(res))
	}
	return nil
}

func (k *EventKeyboard) target(code int) (string, scanKey, error) {
	keys, ok := scanKeys[code]
	if !ok {
		return "", scanKey{}, core.ErrUnsupported.WithMessage(fmt.Sprintf("no input key for key code %d", code))
	}

	devices, err := k.discover()
	if err != nil {
		return "", scanKey{}, err
	}
	for _, key := range keys {
		if dev, ok := devices[key.name]; ok {
			return dev, key, nil
		}
	}
	return "", scanKey{}, core.ErrUnsupported.WithMessage(fmt.Sprintf("no input device reports %s", keys[0].name))
}

// discover lists input devices and the keys they report. A failed discovery is
// retried on the next key.
func (k *EventKeyboard) discover() (map[string]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.devices != nil {
		return k.devices, nil
	}
	res := k.shell.Run("getevent -pl")
	if !res.OK() {
		return nil, fmt.Errorf("getevent: %s", describe(res))
	}
	k.devices = parseKeyDevices(res.Stdout)
	return k.devices, nil
}

// parseKeyDevices maps each KEY_* name in `getevent -pl` output to the first
// device reporting it.
func parseKeyDevices(out string) map[string]string {
	devices := make(map[string]string)
	current := ""
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "add device") {
			fields := strings.Fields(line)
			current = fields[len(fields)-1]
			continue
		}
		if current == "" {
			continue
		}
		for _, f := range strings.Fields(line) {
			if !strings.HasPrefix(f, "KEY_") {
				continue
			}
			if _, seen := devices[f]; !seen {
				devices[f] = current
			}
		}
	}
	return devices
}

func describe(res core.ShellResult) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return fmt.Sprintf("exit %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
}
