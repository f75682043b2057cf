package models

import (
	"errors"
	"fmt"
)

// ErrDataInsufficient matches any *DataInsufficientError via errors.Is.
var ErrDataInsufficient = errors.New("insufficient data")

// UpstreamError is a provider-level failure reported by a data source.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// DataInsufficientError reports a missing or too short input series.
type DataInsufficientError struct {
	What string
	Need int
	Got  int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d, got %d", e.What, e.Need, e.Got)
}

func (e *DataInsufficientError) Is(target error) bool { return target == ErrDataInsufficient }

// NewDataInsufficient builds a DataInsufficientError.
func NewDataInsufficient(what string, need, got int) error {
	return &DataInsufficientError{What: what, Need: need, Got: got}
}
