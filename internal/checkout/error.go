package checkout

import "errors"

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrInvalidEvent    = errors.New("invalid checkout event")
	ErrForbidden       = errors.New("checkout session belongs to another client")
)
