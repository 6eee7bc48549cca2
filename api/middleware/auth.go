package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/peykantravel/peykan-storefront/api/responses"
	pkgAuth "github.com/peykantravel/peykan-storefront/pkg/auth"
	"github.com/peykantravel/peykan-storefront/pkg/auth/session"
	"github.com/peykantravel/peykan-storefront/pkg/config"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// claims. The jti doubles as the session id keying server-side state.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxSessionID, claims.ID)
			ctx = context.WithValue(ctx, ctxIsAgent, claims.IsAgent)
			if claims.Currency != "" {
				ctx = context.WithValue(ctx, ctxCurrency, claims.Currency)
			}

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID,
					"session_id": claims.ID,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth parses credentials when present but lets anonymous
// requests through. The session id then comes from a client-managed
// cookie so anonymous carts survive page loads.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	authed := Auth(cfg, verifier, logg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if BearerToken(r) != "" {
				authed(next).ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if sid := anonymousSessionID(r); sid != "" {
				ctx = context.WithValue(ctx, ctxSessionID, sid)
				if logg != nil {
					ctx = logg.WithSessionID(ctx, sid)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAgent gates agent-only routes behind the is_agent claim.
func RequireAgent(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAgentFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "agent account required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const anonymousSessionCookie = "peykan_session"

func anonymousSessionID(r *http.Request) string {
	cookie, err := r.Cookie(anonymousSessionCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// BearerToken extracts the Authorization bearer credential, tolerating a
// bare token without the scheme prefix.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
