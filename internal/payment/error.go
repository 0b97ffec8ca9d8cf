package payment

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation     Kind = "ValidationError"
	KindGatewayCreate  Kind = "GatewayCreateError"
	KindGatewayAttach  Kind = "GatewayAttachError"
	KindAsyncFailure   Kind = "GatewayAsyncFailure"
	KindSdkUnavailable Kind = "SdkUnavailableError"
)

// Sentinels for errors.Is matching on a Kind.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrGatewayCreate  = &Error{Kind: KindGatewayCreate}
	ErrGatewayAttach  = &Error{Kind: KindGatewayAttach}
	ErrAsyncFailure   = &Error{Kind: KindAsyncFailure}
	ErrSdkUnavailable = &Error{Kind: KindSdkUnavailable}
)

var ErrUnknownMethod = errors.New("unknown payment method")

// Error is a user-visible payment failure. Message is safe to show; Err keeps
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func NewError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage returns the text shown to the payer.
func UserMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Message != "" {
			return pe.Message
		}
		if pe.Err != nil {
			return pe.Err.Error()
		}
		return string(pe.Kind)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// KindOf reports the Kind of err, or "" when err is not a payment error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
