// Package uiautomator2 provides an HTTP client for the UIAutomator2 server.
package uiautomator2

import "fmt"

// ErrorValue represents an error from UIAutomator2.
type ErrorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ServerError is returned for any 4xx/5xx response.
type ServerError struct {
	Status  int
	Code    string // W3C error code, e.g. "no such element"
	Message string
}

func (e *ServerError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoSuchElement reports whether the server could not find the element.
func (e *ServerError) IsNoSuchElement() bool {
	return e.Code == "no such element"
}

// Capabilities for session creation.
type Capabilities struct {
	PlatformName string `json:"platformName,omitempty"`
	DeviceName   string `json:"deviceName,omitempty"`
}

// SessionRequest for creating a session.
type SessionRequest struct {
	Capabilities Capabilities `json:"capabilities"`
}

// FindElementRequest for finding elements.
type FindElementRequest struct {
	Strategy string `json:"strategy"`
	Selector string `json:"selector"`
}

// InputTextRequest for typing text.
type InputTextRequest struct {
	Text    string `json:"text"`
	Replace bool   `json:"replace,omitempty"`
}

// KeyCodeRequest for pressing keys.
type KeyCodeRequest struct {
	KeyCode  int `json:"keycode"`
	MetaKeys int `json:"metastate,omitempty"`
}

// ActionsRequest is a W3C actions payload.
type ActionsRequest struct {
	Actions []ActionSequence `json:"actions"`
}

// ActionSequence is one input source and its ticks.
type ActionSequence struct {
	Type       string          `json:"type"` // "pointer"
	ID         string          `json:"id"`
	Parameters *PointerParams  `json:"parameters,omitempty"`
	Actions    []PointerAction `json:"actions"`
}

// PointerParams selects the pointer kind.
type PointerParams struct {
	PointerType string `json:"pointerType"` // "touch"
}

// PointerAction is a single pointer tick.
type PointerAction struct {
	Type     string `json:"type"` // pointerMove, pointerDown, pointerUp, pause
	Duration int    `json:"duration,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Button   int    `json:"button,omitempty"`
}

// Locator strategies.
const (
	StrategyID          = "id"
	StrategyClassName   = "class name"
	StrategyUIAutomator = "-android uiautomator"
)
