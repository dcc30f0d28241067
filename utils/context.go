package utils

import "context"

type contextKey string

// Request-scoped context keys
const (
	RequestIDKey contextKey = "request_id"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
)

// RequestIDFrom returns the request ID stored in ctx, if any
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// EndpointFrom returns the handler endpoint name stored in ctx, if any
func EndpointFrom(ctx context.Context) string {
	if v, ok := ctx.Value(EndpointKey).(string); ok {
		return v
	}
	return ""
}

// IPAddressFrom returns the client IP stored in ctx, if any
func IPAddressFrom(ctx context.Context) string {
	if v, ok := ctx.Value(IPAddressKey).(string); ok {
		return v
	}
	return ""
}
