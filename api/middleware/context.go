package middleware

import (
	"context"

	"github.com/peykantravel/peykan-storefront/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxSessionID contextKey = "session_id"
	ctxIsAgent   contextKey = "is_agent"
	ctxCurrency  contextKey = "currency"
	ctxLocale    contextKey = "locale"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext returns the jti of the caller's access token.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func IsAgentFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxIsAgent).(bool); ok {
		return v
	}
	return false
}

func CurrencyFromContext(ctx context.Context) enums.Currency {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCurrency).(enums.Currency); ok {
		return v
	}
	return ""
}

// LocaleFromContext returns the resolved locale, defaulting when the
// request never passed through the locale middleware.
func LocaleFromContext(ctx context.Context) enums.Locale {
	if ctx == nil {
		return enums.DefaultLocale
	}
	if v, ok := ctx.Value(ctxLocale).(enums.Locale); ok {
		return v
	}
	return enums.DefaultLocale
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

func WithLocale(ctx context.Context, locale enums.Locale) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLocale, locale)
}
