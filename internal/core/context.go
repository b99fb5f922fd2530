package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "audit_client"

// ClientInfo identifies the caller of a command for the audit trail.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// ContextWithClient attaches caller details to ctx.
func ContextWithClient(ctx context.Context, c ClientInfo) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the caller details stored by ContextWithClient.
func ClientFromContext(ctx context.Context) ClientInfo {
	if c, ok := ctx.Value(ctxKeyClient).(ClientInfo); ok {
		return c
	}
	return ClientInfo{}
}
