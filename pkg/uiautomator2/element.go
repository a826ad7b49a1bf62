package uiautomator2

import (
	"encoding/json"
	"fmt"
)

// Element is a server-side element reference. It is only valid until the
// screen changes, so callers re-find instead of keeping it.
type Element struct {
	id     string
	client *Client
}

// ID returns the element ID.
func (e *Element) ID() string {
	return e.id
}

// FindElement finds a single element.
func (c *Client) FindElement(strategy, selector string) (*Element, error) {
	req := FindElementRequest{
		Strategy: strategy,
		Selector: selector,
	}

	data, err := c.request("POST", c.sessionPath("/element"), req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Value struct {
			ELEMENT string `json:"ELEMENT"`
			W3C     string `json:"element-6066-11e4-a52e-4f735466cecf"`
		} `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse element response: %w", err)
	}

	id := resp.Value.ELEMENT
	if id == "" {
		id = resp.Value.W3C
	}
	if id == "" {
		return nil, fmt.Errorf("element not found: %s=%s", strategy, selector)
	}

	return &Element{id: id, client: c}, nil
}

func (c *Client) elementPath(id, suffix string) string {
	return c.sessionPath("/element/" + id + suffix)
}

// ClickElement taps an element by ID.
func (c *Client) ClickElement(id string) error {
	_, err := c.request("POST", c.elementPath(id, "/click"), nil)
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(id string) error {
	_, err := c.request("POST", c.elementPath(id, "/clear"), nil)
	return err
}

// SendKeysToElement types text into an element.
func (c *Client) SendKeysToElement(id, text string) error {
	_, err := c.request("POST", c.elementPath(id, "/value"), InputTextRequest{Text: text})
	return err
}

// ElementText returns an element's text content.
func (c *Client) ElementText(id string) (string, error) {
	data, err := c.request("GET", c.elementPath(id, "/text"), nil)
	if err != nil {
		return "", err
	}
	return valueString(data)
}

// ElementAttribute returns an element attribute such as "className" or "enabled".
func (c *Client) ElementAttribute(id, name string) (string, error) {
	data, err := c.request("GET", c.elementPath(id, "/attribute/"+name), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Value interface{} `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	switch v := resp.Value.(type) {
	case string:
		return v, nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Click taps the element.
func (e *Element) Click() error { return e.client.ClickElement(e.id) }

// Clear clears the element's text.
func (e *Element) Clear() error { return e.client.ClearElement(e.id) }

// SendKeys types text into the element.
func (e *Element) SendKeys(text string) error { return e.client.SendKeysToElement(e.id, text) }

// Text returns the element's text content.
func (e *Element) Text() (string, error) { return e.client.ElementText(e.id) }

// Attribute returns an element attribute.
func (e *Element) Attribute(name string) (string, error) { return e.client.ElementAttribute(e.id, name) }
