package usecase

import "errors"

// TokenSource is the read side of the session every view consults right
// before issuing a call.
type TokenSource interface {
	Token() (string, bool)
}

// TokenWriter is the write side used by the auth flow.
type TokenWriter interface {
	SetToken(token string) error
}

var (
	ErrAuthInProgress = errors.New("an authentication request is already in progress")
	ErrCartNotReady   = errors.New("cart is still loading")
)

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
