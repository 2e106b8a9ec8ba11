package wispr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoLogoffURL is returned by Logoff when no session logoff URL is stored.
var ErrNoLogoffURL = errors.New("no logoff URL known, can not log off")

// ErrNoWISPrResponse is returned when a response that must carry a WISPr
// fragment does not.
var ErrNoWISPrResponse = errors.New("no WISPr response found")

// ErrMissingLocation is returned when a redirect response has no Location header.
var ErrMissingLocation = errors.New("redirect without location")

// ErrInternal is wrapped by a LogoffFailedError when the gateway reports an
// internal error.
var ErrInternal = errors.New("internal error from WISPr server")

// MissingFieldError indicates a WISPr message lacks a field its type requires.
type MissingFieldError struct {
	Message string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s message is missing %s", e.Message, e.Field)
}

// UnexpectedMessageError indicates the gateway answered a step with a
// message type or response code the step does not allow.
type UnexpectedMessageError struct {
	Stage string
	Type  MessageType
	Code  ResponseCode
}

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("unexpected %s message (type %s, code %s) during %s",
		e.Type, string(e.Type), string(e.Code), e.Stage)
}

// InvalidDelayError indicates a Delay field that is not a non-negative
// number of seconds.
type InvalidDelayError struct {
	Value string
}

func (e *InvalidDelayError) Error() string {
	return fmt.Sprintf("invalid delay %q", e.Value)
}

// IllegalStatusError indicates an HTTP status a step does not accept.
type IllegalStatusError struct {
	StatusCode int
}

func (e *IllegalStatusError) Error() string {
	return fmt.Sprintf("illegal response to logoff request: %d", e.StatusCode)
}

// LogoffFailedError carries the response code of a rejected logoff.
type LogoffFailedError struct {
	Code ResponseCode
}

func (e *LogoffFailedError) Error() string {
	if e.Code == ResInternalError {
		return ErrInternal.Error()
	}
	return fmt.Sprintf("logoff failed, error %s", string(e.Code))
}

// Unwrap lets errors.Is match ErrInternal.
func (e *LogoffFailedError) Unwrap() error {
	if e.Code == ResInternalError {
		return ErrInternal
	}
	return nil
}
