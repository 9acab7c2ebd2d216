package models

import (
	"errors"
	"fmt"
)

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrEmptyTicker is returned when the input is blank after trimming.
var ErrEmptyTicker = &ValidationError{Field: "ticker", Message: "Please enter a stock ticker."}

var errNotObject = errors.New("response body is not a JSON object")

// MalformedResponseError reports a webhook body that could not be decoded.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed webhook response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
