package utils

import "context"

// Currency used for commission amounts
const DefaultCurrency = "TMN"

type contextKey string

// Request-scoped context keys populated by handlers
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
)

// RequestIDFromContext extracts the request id stored by handlers
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}
