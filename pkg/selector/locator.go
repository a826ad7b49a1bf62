package selector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// WebDriver locator strategies accepted by find.
const (
	UsingID        = "id"
	UsingText      = "text"
	UsingLinkText  = "link text"
	UsingClassName = "class name"
	UsingXPath     = "xpath"
)

// FromWebDriver converts a WebDriver (using, value) pair into a locator.
// XPath expressions are normalized to one of the other strategies.
func FromWebDriver(using, value string) (core.Locator, error) {
	if value == "" {
		return core.Locator{}, core.ErrInvalidArgument.WithMessage("locator value is required")
	}

	switch using {
	case UsingID:
		return core.Locator{Strategy: core.ByID, Value: value}, nil
	case UsingText, UsingLinkText:
		return core.Locator{Strategy: core.ByText, Value: value}, nil
	case UsingClassName:
		return core.Locator{Strategy: core.ByClass, Value: value}, nil
	case UsingXPath:
		return ParseXPath(value)
	default:
		return core.Locator{}, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unsupported locator strategy: %q", using))
	}
}

// //tag or //tag[@attr='value'] or //tag[@attr="value"]
var xpathPattern = regexp.MustCompile(`^//([A-Za-z_*][\w.$]*)(?:\[@([\w-]+)=(?:'([^']*)'|"([^"]*)")\])?$`)

// ParseXPath accepts the XPath subset the gateway can re-resolve:
//
//	//android.widget.Button          -> by class
//	//*[@text='Login']               -> by text
//	//*[@resource-id='com.app:id/x'] -> by id
//	//android.widget.Button[@text='OK'] -> by text (the class is not checked)
func ParseXPath(expr string) (core.Locator, error) {
	m := xpathPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return core.Locator{}, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unsupported xpath: %q", expr))
	}

	tag, attr := m[1], m[2]
	value := m[3]
	if value == "" {
		value = m[4]
	}

	if attr == "" {
		if tag == "*" {
			return core.Locator{}, core.ErrInvalidArgument.WithMessage("xpath //* matches every node")
		}
		return core.Locator{Strategy: core.ByClass, Value: tag}, nil
	}

	if value == "" {
		return core.Locator{}, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("xpath predicate @%s has an empty value", attr))
	}

	switch attr {
	case "text":
		return core.Locator{Strategy: core.ByText, Value: value}, nil
	case "resource-id":
		return core.Locator{Strategy: core.ByID, Value: value}, nil
	case "class":
		return core.Locator{Strategy: core.ByClass, Value: value}, nil
	default:
		return core.Locator{}, core.ErrInvalidArgument.WithMessage(fmt.Sprintf("unsupported xpath attribute: @%s", attr))
	}
}
