package http

import (
	"fmt"
	"net/http"
)

// Error codes returned by the API.
const (
	CodeNotFound    = "ERR_NOT_FOUND"
	CodeNoSnapshot  = "ERR_NO_SNAPSHOT"
	CodeInvalidTime = "ERR_INVALID_TIME"
	CodeBind        = "ERR_BIND"
	CodeInternal    = "ERR_INTERNAL"
)

var codeStatus = map[string]int{
	CodeNotFound:    http.StatusNotFound,
	CodeNoSnapshot:  http.StatusNotFound,
	CodeInvalidTime: http.StatusBadRequest,
	CodeBind:        http.StatusBadRequest,
	CodeInternal:    http.StatusInternalServerError,
}

// AppError is an API error whose HTTP status follows from its code.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an error for code. Unknown codes map to 500.
func NewAppError(code, message string) *AppError {
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, Status: status}
}

// OnField names the offending request field.
func (e *AppError) OnField(field string) *AppError {
	e.Field = field
	return e
}

func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, message)
}

// NoSnapshotError is returned before the first compute tick for symbol.
func NoSnapshotError(symbol string) *AppError {
	return NewAppError(CodeNoSnapshot, "no snapshot computed yet").WithParam("symbol", symbol)
}

func InvalidTimeError(field, value string) *AppError {
	return NewAppError(CodeInvalidTime, field+" must be RFC3339 or a unix timestamp").
		OnField(field).
		WithParam("value", value)
}
