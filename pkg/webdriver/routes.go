package webdriver

import (
	"net/http"
	"strings"
)

// Path parameter names.
const (
	paramSession = "sessionId"
	paramElement = "elementId"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request, p params)

// route matches a method and a path pattern. A pattern segment in braces
// captures one path segment; a "*" segment matches any number of segments,
// so "/session/{sessionId}/*/press_keycode" accepts both
// /session/x/press_keycode and /session/x/appium/device/press_keycode.
type route struct {
	method  string
	pattern string
	handler handlerFunc

	segments []string
}

type params map[string]string

func newRoute(method, pattern string, h handlerFunc) route {
	return route{
		method:   method,
		pattern:  pattern,
		handler:  h,
		segments: splitPath(pattern),
	}
}

// sessionScoped reports whether the route requires an existing session.
func (rt route) sessionScoped() bool {
	return strings.Contains(rt.pattern, "{"+paramSession+"}")
}

func (rt route) match(method string, path []string) (params, bool) {
	if rt.method != method {
		return nil, false
	}

	head, tail := rt.segments, []string(nil)
	for i, s := range rt.segments {
		if s == "*" {
			head, tail = rt.segments[:i], rt.segments[i+1:]
			break
		}
	}
	wildcard := len(head) != len(rt.segments)

	if wildcard {
		if len(path) < len(head)+len(tail) {
			return nil, false
		}
	} else if len(path) != len(head) {
		return nil, false
	}

	p := params{}
	if !matchSegments(head, path[:len(head)], p) {
		return nil, false
	}
	if !matchSegments(tail, path[len(path)-len(tail):], p) {
		return nil, false
	}
	return p, true
}

func matchSegments(pattern, path []string, p params) bool {
	for i, seg := range pattern {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if path[i] == "" {
				return false
			}
			p[seg[1:len(seg)-1]] = path[i]
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// routes returns the route table. Order matters: the first match wins.
func (h *Handler) routes() []route {
	return []route{
		newRoute(http.MethodGet, "/status", h.handleStatus),
		newRoute(http.MethodPost, "/session", h.handleCreateSession),
		newRoute(http.MethodDelete, "/session/{sessionId}", h.handleDeleteSession),
		newRoute(http.MethodGet, "/session/{sessionId}", h.handleGetSession),
		newRoute(http.MethodPost, "/session/{sessionId}/element", h.handleFindElement),
		newRoute(http.MethodPost, "/session/{sessionId}/element/{elementId}/click", h.handleClick),
		newRoute(http.MethodPost, "/session/{sessionId}/element/{elementId}/value", h.handleSendKeys),
		newRoute(http.MethodGet, "/session/{sessionId}/element/{elementId}/text", h.handleElementText),
		newRoute(http.MethodGet, "/session/{sessionId}/screenshot", h.handleScreenshot),
		newRoute(http.MethodGet, "/session/{sessionId}/source", h.handleSource),
		newRoute(http.MethodPost, "/session/{sessionId}/*/start_activity", h.handleStartActivity),
		newRoute(http.MethodPost, "/session/{sessionId}/*/press_keycode", h.handlePressKeycode),
	}
}
