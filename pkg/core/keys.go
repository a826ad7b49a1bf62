package core

import (
	"strconv"
	"strings"
)

// Android key codes the gateway refers to by name.
const (
	KeyCodeHome       = 3
	KeyCodeBack       = 4
	KeyCodeCall       = 5
	KeyCodeEndCall    = 6
	KeyCodeDpadUp     = 19
	KeyCodeDpadDown   = 20
	KeyCodeDpadLeft   = 21
	KeyCodeDpadRight  = 22
	KeyCodeDpadCenter = 23
	KeyCodeVolumeUp   = 24
	KeyCodeVolumeDown = 25
	KeyCodePower      = 26
	KeyCodeCamera     = 27
	KeyCodeTab        = 61
	KeyCodeSpace      = 62
	KeyCodeEnter      = 66
	KeyCodeDelete     = 67
	KeyCodeMenu       = 82
	KeyCodeSearch     = 84
	KeyCodeMute       = 164
	KeyCodeAppSwitch  = 187
)

// KeyCodeByName maps a key name ("home", "back", "volume_up", ...) or a
// decimal string to an Android key code.
func KeyCodeByName(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "keycode_")

	switch key {
	case "home":
		return KeyCodeHome, true
	case "back":
		return KeyCodeBack, true
	case "call":
		return KeyCodeCall, true
	case "endcall", "end_call":
		return KeyCodeEndCall, true
	case "enter":
		return KeyCodeEnter, true
	case "menu":
		return KeyCodeMenu, true
	case "delete", "del", "backspace":
		return KeyCodeDelete, true
	case "tab":
		return KeyCodeTab, true
	case "space":
		return KeyCodeSpace, true
	case "volume_up", "volumeup":
		return KeyCodeVolumeUp, true
	case "volume_down", "volumedown":
		return KeyCodeVolumeDown, true
	case "volume_mute", "mute":
		return KeyCodeMute, true
	case "power":
		return KeyCodePower, true
	case "camera":
		return KeyCodeCamera, true
	case "search":
		return KeyCodeSearch, true
	case "recent", "app_switch", "recents":
		return KeyCodeAppSwitch, true
	case "dpad_up", "up":
		return KeyCodeDpadUp, true
	case "dpad_down", "down":
		return KeyCodeDpadDown, true
	case "dpad_left", "left":
		return KeyCodeDpadLeft, true
	case "dpad_right", "right":
		return KeyCodeDpadRight, true
	case "dpad_center", "center":
		return KeyCodeDpadCenter, true
	}

	if n, err := strconv.Atoi(key); err == nil && n > 0 {
		return n, true
	}
	return 0, false
}
