package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peykantravel/peykan-storefront/internal/locale"
	"github.com/peykantravel/peykan-storefront/pkg/logger"
)

// Locale resolves the request language from the {locale} path prefix.
// Unknown prefixes fall back to the default locale and are logged; a
// missing prefix is negotiated from Accept-Language.
func Locale(resolver *locale.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			prefix := chi.URLParam(r, "locale")

			loc := resolver.Default()
			switch {
			case prefix == "":
				loc = resolver.Negotiate(r.Header.Get("Accept-Language"))
			default:
				resolved, exact := resolver.Resolve(prefix)
				loc = resolved
				if !exact && logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"prefix":   prefix,
						"fallback": loc.String(),
					}), "locale.unknown_prefix")
				}
			}

			ctx = WithLocale(ctx, loc)
			if logg != nil {
				ctx = logg.WithLocale(ctx, loc.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
