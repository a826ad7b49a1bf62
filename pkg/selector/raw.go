package selector

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// Raw is the wire form of a selector: any subset of the discriminators may be set.
type Raw struct {
	Text       string `json:"text,omitempty"`
	ResourceID string `json:"resourceId,omitempty"`
	ClassName  string `json:"className,omitempty"`
}

// Precedence orders the discriminators consulted when a raw selector carries more than one.
type Precedence []Kind

var (
	// ReadPrecedence applies to click, get_text and exists.
	ReadPrecedence = Precedence{KindText, KindResourceID, KindClassName}

	// MutationPrecedence applies to set_text. Text is never a set-text target.
	MutationPrecedence = Precedence{KindResourceID, KindClassName}
)

// String joins the discriminator names in order.
func (p Precedence) String() string {
	names := make([]string, len(p))
	for i, k := range p {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

func (r Raw) value(k Kind) string {
	switch k {
	case KindText:
		return r.Text
	case KindResourceID:
		return r.ResourceID
	case KindClassName:
		return r.ClassName
	}
	return ""
}

// Resolve picks exactly one discriminator following p.
// A raw selector with none of p's discriminators is a validation error.
func (r Raw) Resolve(p Precedence) (Selector, error) {
	for _, k := range p {
		if v := r.value(k); v != "" {
			return Selector{kind: k, value: v}, nil
		}
	}
	if r != (Raw{}) {
		return Selector{}, core.ErrEmptySelector.WithMessage("selector requires one of " + p.String())
	}
	return Selector{}, core.ErrEmptySelector
}

// ParseForRead resolves r for click, get_text and exists.
func ParseForRead(r Raw) (Selector, error) {
	return r.Resolve(ReadPrecedence)
}

// ParseForMutation resolves r for set_text.
func ParseForMutation(r Raw) (Selector, error) {
	return r.Resolve(MutationPrecedence)
}

// RawFromMap decodes a selector object taken from untyped JSON.
// Unknown keys are ignored; known keys must hold strings.
func RawFromMap(m map[string]interface{}) (Raw, error) {
	var r Raw
	for key, dst := range map[string]*string{
		"text":       &r.Text,
		"resourceId": &r.ResourceID,
		"className":  &r.ClassName,
	} {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return Raw{}, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("selector field %q must be a string", key))
		}
		*dst = s
	}
	return r, nil
}
