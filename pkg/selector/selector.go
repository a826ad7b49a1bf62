// Package selector parses request selectors and locators into a single-variant
// form the controller can resolve against the backend.
package selector

import (
	"fmt"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// Kind identifies which discriminator a Selector carries.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindResourceID
	KindClassName
)

// String returns the wire name of the discriminator.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindResourceID:
		return "resourceId"
	case KindClassName:
		return "className"
	default:
		return "none"
	}
}

// Selector carries exactly one discriminator. The zero value is invalid.
type Selector struct {
	kind  Kind
	value string
}

// ByText selects by visible text.
func ByText(text string) Selector {
	return Selector{kind: KindText, value: text}
}

// ByResourceID selects by resource identifier.
func ByResourceID(id string) Selector {
	return Selector{kind: KindResourceID, value: id}
}

// ByClassName selects by widget class name.
func ByClassName(className string) Selector {
	return Selector{kind: KindClassName, value: className}
}

// Kind returns the populated discriminator.
func (s Selector) Kind() Kind {
	return s.kind
}

// Value returns the discriminator value.
func (s Selector) Value() string {
	return s.value
}

// IsZero reports whether no discriminator is set.
func (s Selector) IsZero() bool {
	return s.kind == KindNone
}

// Locator converts the selector into a backend re-resolution recipe.
func (s Selector) Locator() core.Locator {
	switch s.kind {
	case KindText:
		return core.Locator{Strategy: core.ByText, Value: s.value}
	case KindResourceID:
		return core.Locator{Strategy: core.ByID, Value: s.value}
	case KindClassName:
		return core.Locator{Strategy: core.ByClass, Value: s.value}
	default:
		return core.Locator{}
	}
}

// String returns "kind=value".
func (s Selector) String() string {
	return s.kind.String() + "=" + s.value
}

// FromLocator is the inverse of Selector.Locator.
func FromLocator(loc core.Locator) (Selector, error) {
	switch loc.Strategy {
	case core.ByText:
		return ByText(loc.Value), nil
	case core.ByID:
		return ByResourceID(loc.Value), nil
	case core.ByClass:
		return ByClassName(loc.Value), nil
	default:
		return Selector{}, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unknown locator strategy: %q", loc.Strategy))
	}
}
