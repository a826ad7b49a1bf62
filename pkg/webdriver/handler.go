// Package webdriver implements the WebDriver-style REST adapter.
//
// Only a fixed command subset is routed. Sessions are bookkeeping: they echo
// back capabilities and gate the session-scoped routes, but do not reserve
// the device.
package webdriver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/registry"
	"github.com/devicelab-dev/automation-gateway/pkg/selector"
)

// W3C element reference key.
const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// Automation is the subset of the controller the adapter drives.
type Automation interface {
	Find(loc core.Locator) (string, bool)
	Element(elementID string) (core.Locator, bool)
	Click(elementID string) bool
	SetText(elementID, text string) bool
	GetText(sel selector.Selector) (string, bool)
	StartApp(pkg, activity string) bool
	PressKey(code int) bool
	Screenshot() (string, bool)
	DumpUI() []core.Node
}

// Session is a WebDriver session. Capabilities are kept as submitted.
type Session struct {
	ID           string
	Capabilities json.RawMessage
	CreatedAt    time.Time
}

// Options configures a Handler.
type Options struct {
	// Prefix is stripped from every request path, e.g. "/wd/hub".
	Prefix string
	// NewID generates session IDs. Nil means random UUIDs.
	NewID func() string
	// Now is injectable for tests. Nil means time.Now.
	Now func() time.Time
}

// Handler serves the WebDriver routes.
type Handler struct {
	auto     Automation
	sessions *registry.Registry[*Session]
	prefix   string
	newID    func() string
	now      func() time.Time
	table    []route
}

// NewHandler creates a WebDriver handler driving auto.
func NewHandler(auto Automation, opts Options) *Handler {
	h := &Handler{
		auto:     auto,
		sessions: registry.New[*Session](registry.Options{}),
		prefix:   strings.TrimRight(opts.Prefix, "/"),
		newID:    opts.NewID,
		now:      opts.Now,
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.table = h.routes()
	return h
}

// Session returns a live session.
func (h *Handler) Session(id string) (*Session, bool) {
	return h.sessions.Get(id)
}

// SessionCount returns the number of live sessions.
func (h *Handler) SessionCount() int {
	return h.sessions.Len()
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if h.prefix != "" {
		if path != h.prefix && !strings.HasPrefix(path, h.prefix+"/") {
			h.unknownCommand(w, r)
			return
		}
		path = strings.TrimPrefix(path, h.prefix)
	}
	segments := splitPath(path)

	for _, rt := range h.table {
		p, ok := rt.match(r.Method, segments)
		if !ok {
			continue
		}

		if rt.sessionScoped() {
			if _, exists := h.sessions.Get(p[paramSession]); !exists {
				logger.Debugw("webdriver: unknown session", "session", p[paramSession], "path", path)
				writeError(w, core.ErrInvalidSession.WithMessage(
					fmt.Sprintf("session %s does not exist", p[paramSession])))
				return
			}
		}

		logger.Debugw("webdriver: command", "method", r.Method, "route", rt.pattern)
		rt.handler(w, r, p)
		return
	}

	h.unknownCommand(w, r)
}

func (h *Handler) unknownCommand(w http.ResponseWriter, r *http.Request) {
	logger.Debugw("webdriver: unknown command", "method", r.Method, "path", r.URL.Path)
	writeError(w, core.ErrUnknownCommand.WithMessage(
		fmt.Sprintf("unknown command: %s %s", r.Method, r.URL.Path)))
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
// Syntax errors are malformed requests; type mismatches are invalid arguments.
func decodeBody(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return core.ErrMalformedRequest.WithCause(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return core.ErrInvalidArgument.WithMessage(
				fmt.Sprintf("field %q has the wrong type", typeErr.Field))
		}
		return core.ErrMalformedRequest.WithCause(err)
	}
	return nil
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request, _ params) {
	writeValue(w, map[string]interface{}{
		"ready":   true,
		"message": "automation-gateway is ready",
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request, _ params) {
	var req struct {
		Capabilities        json.RawMessage `json:"capabilities"`
		DesiredCapabilities json.RawMessage `json:"desiredCapabilities"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	caps := req.Capabilities
	if isNull(caps) {
		caps = req.DesiredCapabilities
	}
	if isNull(caps) {
		caps = json.RawMessage(`{}`)
	}

	s := &Session{
		ID:           h.newID(),
		Capabilities: caps,
		CreatedAt:    h.now(),
	}
	h.sessions.Put(s.ID, s)
	logger.Info("webdriver: session %s created", s.ID)

	writeValue(w, map[string]interface{}{
		"sessionId":    s.ID,
		"capabilities": s.Capabilities,
	})
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, _ *http.Request, p params) {
	h.sessions.Remove(p[paramSession])
	logger.Info("webdriver: session %s deleted", p[paramSession])
	writeValue(w, nil)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, _ *http.Request, p params) {
	s, ok := h.sessions.Get(p[paramSession])
	if !ok {
		writeError(w, core.ErrInvalidSession)
		return
	}
	writeValue(w, s.Capabilities)
}

func (h *Handler) handleFindElement(w http.ResponseWriter, r *http.Request, _ params) {
	var req struct {
		Using string `json:"using"`
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Using == "" || req.Value == "" {
		writeError(w, core.ErrInvalidArgument.WithMessage("using and value are required"))
		return
	}

	loc, err := selector.FromWebDriver(req.Using, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	id, ok := h.auto.Find(loc)
	if !ok {
		writeError(w, core.ErrElementNotFound.WithMessage(
			fmt.Sprintf("no element matches %s=%q", req.Using, req.Value)))
		return
	}

	writeValue(w, map[string]string{
		"ELEMENT":  id,
		elementKey: id,
	})
}

func (h *Handler) handleClick(w http.ResponseWriter, _ *http.Request, p params) {
	if !h.auto.Click(p[paramElement]) {
		writeError(w, core.ErrElementNotFound.WithMessage(
			fmt.Sprintf("element %s could not be clicked", p[paramElement])))
		return
	}
	writeValue(w, nil)
}

func (h *Handler) handleSendKeys(w http.ResponseWriter, r *http.Request, p params) {
	var req struct {
		Text  *string  `json:"text"`
		Value []string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var text string
	switch {
	case req.Text != nil:
		text = *req.Text
	case req.Value != nil:
		text = strings.Join(req.Value, "")
	default:
		writeError(w, core.ErrInvalidArgument.WithMessage("text or value is required"))
		return
	}

	if !h.auto.SetText(p[paramElement], text) {
		writeError(w, core.ErrElementNotFound.WithMessage(
			fmt.Sprintf("element %s does not accept text", p[paramElement])))
		return
	}
	writeValue(w, nil)
}

func (h *Handler) handleElementText(w http.ResponseWriter, _ *http.Request, p params) {
	loc, ok := h.auto.Element(p[paramElement])
	if !ok {
		writeError(w, core.ErrElementNotFound.WithMessage(
			fmt.Sprintf("element %s is unknown", p[paramElement])))
		return
	}

	sel, err := selector.FromLocator(loc)
	if err != nil {
		writeError(w, err)
		return
	}

	text, ok := h.auto.GetText(sel)
	if !ok {
		writeError(w, core.ErrElementNotFound.WithMessage(
			fmt.Sprintf("element %s is no longer on screen", p[paramElement])))
		return
	}
	writeValue(w, text)
}

func (h *Handler) handleScreenshot(w http.ResponseWriter, _ *http.Request, _ params) {
	data, ok := h.auto.Screenshot()
	if !ok {
		writeError(w, core.ErrCaptureFailed)
		return
	}
	writeValue(w, data)
}

func (h *Handler) handleSource(w http.ResponseWriter, _ *http.Request, _ params) {
	writeValue(w, h.auto.DumpUI())
}

func (h *Handler) handleStartActivity(w http.ResponseWriter, r *http.Request, _ params) {
	var req struct {
		AppPackage  string `json:"appPackage"`
		AppActivity string `json:"appActivity"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.AppPackage == "" {
		writeError(w, core.ErrInvalidArgument.WithMessage("appPackage is required"))
		return
	}

	if !h.auto.StartApp(req.AppPackage, req.AppActivity) {
		writeError(w, core.ErrActionFailed.WithMessage(
			fmt.Sprintf("could not start %s", req.AppPackage)))
		return
	}
	writeValue(w, nil)
}

func (h *Handler) handlePressKeycode(w http.ResponseWriter, r *http.Request, _ params) {
	var req struct {
		Keycode *int `json:"keycode"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Keycode == nil || *req.Keycode <= 0 {
		writeError(w, core.ErrInvalidArgument.WithMessage("keycode must be a positive integer"))
		return
	}

	if !h.auto.PressKey(*req.Keycode) {
		writeError(w, core.ErrActionFailed.WithMessage(
			fmt.Sprintf("key %d could not be delivered", *req.Keycode)))
		return
	}
	writeValue(w, nil)
}
