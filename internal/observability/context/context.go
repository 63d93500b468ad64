// Package context carries request correlation identifiers across layers.
package context

import (
	stdcontext "context"
	"strings"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	tenantIDKey  ctxKey = "tenant_id"
	userIDKey    ctxKey = "user_id"
)

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return withValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	return valueFrom(ctx, requestIDKey)
}

func WithTenantID(ctx stdcontext.Context, tenantID string) stdcontext.Context {
	return withValue(ctx, tenantIDKey, tenantID)
}

func TenantIDFromContext(ctx stdcontext.Context) string {
	return valueFrom(ctx, tenantIDKey)
}

func WithUserID(ctx stdcontext.Context, userID string) stdcontext.Context {
	return withValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx stdcontext.Context) string {
	return valueFrom(ctx, userIDKey)
}

func withValue(ctx stdcontext.Context, key ctxKey, value string) stdcontext.Context {
	if ctx == nil {
		ctx = stdcontext.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, key, value)
}

func valueFrom(ctx stdcontext.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
