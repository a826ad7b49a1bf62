package uiautomator2

// NewTestElement creates an Element for testing purposes.
// The element has no client; use it only with mocked UIA2 clients.
func NewTestElement(id string) *Element {
	return &Element{id: id}
}
