package uiautomator2

import "fmt"

// Screenshot captures the full screen. The server returns PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	data, err := c.request("GET", c.sessionPath("/screenshot"), nil)
	if err != nil {
		return nil, err
	}

	b64, err := valueString(data)
	if err != nil {
		return nil, fmt.Errorf("unexpected screenshot response: %w", err)
	}
	return decodeBase64(b64)
}

// Source returns the UI hierarchy as XML.
func (c *Client) Source() (string, error) {
	data, err := c.request("GET", c.sessionPath("/source"), nil)
	if err != nil {
		return "", err
	}
	return valueString(data)
}

// PressKeyCode presses and releases an Android key code.
func (c *Client) PressKeyCode(keyCode int) error {
	_, err := c.request("POST", c.sessionPath("/appium/device/press_keycode"), KeyCodeRequest{KeyCode: keyCode})
	return err
}

// PerformActions dispatches W3C action sequences.
func (c *Client) PerformActions(seqs []ActionSequence) error {
	_, err := c.request("POST", c.sessionPath("/actions"), ActionsRequest{Actions: seqs})
	return err
}

// Swipe drags one finger from (x1,y1) to (x2,y2) over durationMs.
func (c *Client) Swipe(x1, y1, x2, y2, durationMs int) error {
	return c.PerformActions([]ActionSequence{SwipeSequence(x1, y1, x2, y2, durationMs)})
}

// SwipeSequence builds a single-finger straight-line pointer sequence.
func SwipeSequence(x1, y1, x2, y2, durationMs int) ActionSequence {
	return ActionSequence{
		Type:       "pointer",
		ID:         "finger1",
		Parameters: &PointerParams{PointerType: "touch"},
		Actions: []PointerAction{
			{Type: "pointerMove", X: x1, Y: y1},
			{Type: "pointerDown"},
			{Type: "pointerMove", Duration: durationMs, X: x2, Y: y2},
			{Type: "pointerUp"},
		},
	}
}
