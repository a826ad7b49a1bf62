package webdriver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// W3C error codes returned in the error envelope.
const (
	ErrCodeInvalidArgument = "invalid argument"
	ErrCodeNoSuchElement   = "no such element"
	ErrCodeInvalidSession  = "invalid session id"
	ErrCodeUnknownCommand  = "unknown command"
	ErrCodeUnknownError    = "unknown error"
	ErrCodeUnableToCapture = "unable to capture screen"
)

// Envelope is the body of every response.
type Envelope struct {
	Value interface{} `json:"value"`
}

// ErrorValue is the value of an error envelope.
type ErrorValue struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

// statusFor maps a W3C error code onto its HTTP status.
func statusFor(code string) int {
	switch code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNoSuchElement, ErrCodeInvalidSession, ErrCodeUnknownCommand:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// codeFor maps the gateway error taxonomy onto W3C error codes.
func codeFor(err error) string {
	var execErr *core.ExecutionError
	if !errors.As(err, &execErr) {
		return ErrCodeUnknownError
	}

	switch {
	case errors.Is(err, core.ErrInvalidArgument), errors.Is(err, core.ErrEmptySelector):
		return ErrCodeInvalidArgument
	case errors.Is(err, core.ErrElementNotFound):
		return ErrCodeNoSuchElement
	case errors.Is(err, core.ErrInvalidSession):
		return ErrCodeInvalidSession
	case errors.Is(err, core.ErrUnknownCommand):
		return ErrCodeUnknownCommand
	case errors.Is(err, core.ErrCaptureFailed):
		return ErrCodeUnableToCapture
	default:
		return ErrCodeUnknownError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("webdriver: write response: %v", err)
	}
}

func writeValue(w http.ResponseWriter, value interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Value: value})
}

func writeError(w http.ResponseWriter, err error) {
	code := codeFor(err)
	writeJSON(w, statusFor(code), Envelope{Value: ErrorValue{
		Error:   code,
		Message: err.Error(),
	}})
}
