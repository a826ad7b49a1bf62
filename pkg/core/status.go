package core

// ErrorCategory classifies the type of error so protocol adapters can map it
// onto their own response shapes.
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryValidation                      // Missing or malformed parameters, detected before touching the backend
	ErrCategoryResolution                      // Locator matched nothing on screen
	ErrCategoryAction                          // Backend call failed or refused
	ErrCategoryProtocol                        // Unroutable request, unknown session, unparseable body
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryValidation:
		return "validation"
	case ErrCategoryResolution:
		return "resolution"
	case ErrCategoryAction:
		return "action"
	case ErrCategoryProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}
