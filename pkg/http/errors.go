package http

import (
	"fmt"
	"net/http"
)

// Error codes returned in the response envelope.
const (
	CodeUpstream         = "ERR_UPSTREAM"
	CodeDataInsufficient = "ERR_DATA_INSUFFICIENT"
	CodeRateLimited      = "ERR_RATE_LIMITED"
	CodeInternal         = "ERR_INTERNAL"
)

// AppError is an error that knows its HTTP status and envelope code.
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
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError attaches the cause. It is logged, never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithParam adds a detail to the serialized error.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

func newAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// BadGatewayError reports a failed or timed out upstream call.
func BadGatewayError(message string) *AppError {
	return newAppError(CodeUpstream, message, http.StatusBadGateway)
}

// UnprocessableError reports that upstream returned too little data to
// compute a result.
func UnprocessableError(message string) *AppError {
	return newAppError(CodeDataInsufficient, message, http.StatusUnprocessableEntity)
}

func TooManyRequestsError(message string) *AppError {
	return newAppError(CodeRateLimited, message, http.StatusTooManyRequests)
}

func InternalError(message string) *AppError {
	return newAppError(CodeInternal, message, http.StatusInternalServerError)
}
