package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when a cart mutation or checkout is attempted
// without a session token. It is always raised before any network call.
var ErrUnauthenticated = errors.New("not logged in")

// ErrEmptyCart is returned by checkout when there is nothing to pay for.
var ErrEmptyCart = errors.New("cart is empty")

// AuthError is a non-success answer to login or register. Message is shown to
// the user verbatim.
type AuthError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// TransportError covers everything between the client and a usable payload:
// network failures, non-2xx statuses and bodies that do not decode.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Op
	switch {
	case e.StatusCode != 0 && e.Message != "":
		msg += fmt.Sprintf(": server returned status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		msg += fmt.Sprintf(": server returned status %d", e.StatusCode)
	case e.Err == nil:
		return msg + ": transport failure"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown next to the control that failed.
func UserMessage(err error, fallback string) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) && transportErr.Message != "" {
		return transportErr.Message
	}
	return fallback
}
