package utils

import "context"

type contextKey string

// SetClientContext sets the authenticated client into context (called by middleware)
func SetClientContext(ctx context.Context, clientID string, role string) context.Context {
	ctx = context.WithValue(ctx, ClientIDKey, clientID)
	ctx = context.WithValue(ctx, ClientRoleKey, role)
	return ctx
}

// GetClientIDFromContext retrieves the client id safely
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDKey).(string)
	return id, ok && id != ""
}

func GetClientRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ClientRoleKey).(string)
	return role
}
