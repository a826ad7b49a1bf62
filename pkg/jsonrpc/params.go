package jsonrpc

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/devicelab-dev/automation-gateway/pkg/selector"
)

// Params are the positional parameters of a request.
type Params []json.RawMessage

// require fails unless at least n parameters are present.
func (p Params) require(method string, n int) error {
	if len(p) < n {
		return fmt.Errorf("%s requires at least %d parameter(s), got %d", method, n, len(p))
	}
	return nil
}

func (p Params) has(i int) bool {
	return i < len(p) && string(p[i]) != "null"
}

func (p Params) String(i int, name string) (string, error) {
	if !p.has(i) {
		return "", fmt.Errorf("parameter %d (%s) is required", i, name)
	}
	var s string
	if err := json.Unmarshal(p[i], &s); err != nil {
		return "", fmt.Errorf("parameter %d (%s) must be a string", i, name)
	}
	return s, nil
}

func (p Params) OptionalString(i int, name, def string) (string, error) {
	if !p.has(i) {
		return def, nil
	}
	return p.String(i, name)
}

// Int accepts a JSON number with no fractional part.
func (p Params) Int(i int, name string) (int, error) {
	if !p.has(i) {
		return 0, fmt.Errorf("parameter %d (%s) is required", i, name)
	}
	var f float64
	if err := json.Unmarshal(p[i], &f); err != nil {
		return 0, fmt.Errorf("parameter %d (%s) must be a number", i, name)
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("parameter %d (%s) must be an integer", i, name)
	}
	return int(f), nil
}

func (p Params) OptionalInt(i int, name string, def int) (int, error) {
	if !p.has(i) {
		return def, nil
	}
	return p.Int(i, name)
}

// Selector decodes parameter i as a selector object.
func (p Params) Selector(i int) (selector.Raw, error) {
	if !p.has(i) {
		return selector.Raw{}, fmt.Errorf("parameter %d (selector) is required", i)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(p[i], &m); err != nil {
		return selector.Raw{}, fmt.Errorf("parameter %d (selector) must be an object", i)
	}
	return selector.RawFromMap(m)
}

// IsString reports whether parameter i is a JSON string.
func (p Params) IsString(i int) bool {
	return p.has(i) && len(p[i]) > 0 && p[i][0] == '"'
}
