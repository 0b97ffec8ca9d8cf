package utils

import "context"

const (
	ClientIDKey   contextKey = "client_id"
	ClientRoleKey contextKey = "role"
)

type ctxKey string

const internalRequestKey ctxKey = "internal_request"

// WithInternalRequest marks a call from a trusted service, such as the
// booking subsystem reading payment sessions.
func WithInternalRequest(ctx context.Context) context.Context {
	return context.WithValue(ctx, internalRequestKey, true)
}

func IsInternalRequest(ctx context.Context) bool {
	v, _ := ctx.Value(internalRequestKey).(bool)
	return v
}
