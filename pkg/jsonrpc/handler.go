// Package jsonrpc implements the JSON-RPC adapter.
//
// Every response is HTTP 200. Application errors, including unknown
// methods and invalid parameters, are reported inside result; only a body
// that cannot be parsed at all produces a top-level error object.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/selector"
)

// Version is the protocol version echoed in every response.
const Version = "2.0"

// CodeParseError is the only top-level error code produced.
const CodeParseError = -32700

// Automation is the subset of the controller the adapter drives.
type Automation interface {
	ClickSelector(sel selector.Selector) bool
	SetTextSelector(sel selector.Selector, text string) bool
	StartApp(pkg, activity string) bool
	PressKey(code int) bool
	Swipe(x1, y1, x2, y2, durationMs int) bool
	Screenshot() (string, bool)
	GetText(sel selector.Selector) (string, bool)
	Exists(sel selector.Selector) bool
	DumpUI() []core.Node
	RawShell(cmd string) core.ShellResult
	ShellTap(x, y int) bool
	ShellText(text string) bool
	ShellSwipe(x1, y1, x2, y2, durationMs int) bool
}

// Request is an incoming call. ID defaults to 1.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     json.RawMessage `json:"id"`
}

// Response carries either Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  Result          `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Result is the method-specific payload.
type Result map[string]interface{}

// Error is a top-level JSON-RPC error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var defaultID = json.RawMessage(`1`)

// Handler serves the JSON-RPC endpoint.
type Handler struct {
	auto    Automation
	methods map[string]method
}

// NewHandler creates a JSON-RPC handler driving auto.
func NewHandler(auto Automation) *Handler {
	h := &Handler{auto: auto}
	h.methods = h.methodTable()
	return h
}

// Methods returns the names of the supported methods, sorted.
func (h *Handler) Methods() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		logger.Warn("jsonrpc: wrong method %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Warn("jsonrpc: read body: %v", err)
		h.write(w, parseError())
		return
	}

	h.write(w, h.Handle(body))
}

// Handle dispatches one raw request body.
func (h *Handler) Handle(body []byte) Response {
	var req Request
	err := json.Unmarshal(body, &req)

	// A body that is not an object at all is a parse error; a known field
	// of the wrong type is an application error.
	var typeErr *json.UnmarshalTypeError
	if err != nil && (!errors.As(err, &typeErr) || typeErr.Field == "") {
		logger.Debug("jsonrpc: parse error: %v", err)
		return parseError()
	}

	id := req.ID
	if isNull(id) {
		id = defaultID
	}

	resp := Response{JSONRPC: Version, ID: id}
	if typeErr != nil {
		resp.Result = failure(fmt.Sprintf("request field %q has the wrong type", typeErr.Field))
		return resp
	}
	resp.Result = h.call(req)
	return resp
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (h *Handler) call(req Request) Result {
	m, ok := h.methods[req.Method]
	if !ok {
		logger.Debug("jsonrpc: unknown method %q", req.Method)
		return Result{"error": "Unknown method: " + req.Method}
	}

	var params Params
	if !isNull(req.Params) {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return failure("params must be an array")
		}
	}

	if err := params.require(req.Method, m.minParams); err != nil {
		return failure(err.Error())
	}

	logger.Debugw("jsonrpc: call", "method", req.Method, "params", len(params))
	return m.call(params)
}

func parseError() Response {
	return Response{
		JSONRPC: Version,
		ID:      json.RawMessage(`null`),
		Error:   &Error{Code: CodeParseError, Message: "Parse error"},
	}
}

func (h *Handler) write(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn("jsonrpc: write response: %v", err)
	}
}

func failure(msg string) Result {
	return Result{"success": false, "error": msg}
}

func outcome(ok bool, failMsg string) Result {
	if !ok {
		return failure(failMsg)
	}
	return Result{"success": true}
}
