// Package locale resolves the storefront language from the URL path
// prefix. Persian is the default; unknown prefixes fall back to it.
package locale

import (
	"fmt"
	"strings"

	"github.com/peykantravel/peykan-storefront/pkg/config"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	"golang.org/x/text/language"
)

// Resolver maps path prefixes and Accept-Language values onto the
// supported locale set.
type Resolver struct {
	def       enums.Locale
	supported map[enums.Locale]struct{}
	// ordered mirrors the matcher's tag order; matcher indexes map
	// back into it.
	ordered []enums.Locale
	matcher language.Matcher
}

// NewResolver builds a resolver from the locale configuration.
func NewResolver(cfg config.LocaleConfig) (*Resolver, error) {
	def, err := enums.ParseLocale(cfg.Default)
	if err != nil {
		return nil, fmt.Errorf("default locale: %w", err)
	}

	supported := make(map[enums.Locale]struct{}, len(cfg.Supported))
	ordered := make([]enums.Locale, 0, len(cfg.Supported)+1)
	tags := make([]language.Tag, 0, len(cfg.Supported)+1)

	// The default goes first so the matcher falls back to it.
	supported[def] = struct{}{}
	ordered = append(ordered, def)
	tags = append(tags, language.Make(def.String()))

	for _, raw := range cfg.Supported {
		loc, err := enums.ParseLocale(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, fmt.Errorf("supported locale: %w", err)
		}
		if _, seen := supported[loc]; seen {
			continue
		}
		supported[loc] = struct{}{}
		ordered = append(ordered, loc)
		tags = append(tags, language.Make(loc.String()))
	}

	return &Resolver{
		def:       def,
		supported: supported,
		ordered:   ordered,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Default returns the fallback locale.
func (r *Resolver) Default() enums.Locale {
	if r == nil {
		return enums.DefaultLocale
	}
	return r.def
}

// Resolve maps a raw path prefix to a supported locale. The second
// return is false when the prefix was unknown and the default was used.
func (r *Resolver) Resolve(prefix string) (enums.Locale, bool) {
	if r == nil {
		return enums.DefaultLocale, false
	}
	loc, err := enums.ParseLocale(strings.ToLower(strings.TrimSpace(prefix)))
	if err != nil {
		return r.def, false
	}
	if _, ok := r.supported[loc]; !ok {
		return r.def, false
	}
	return loc, true
}

// Negotiate picks the best supported locale for an Accept-Language
// header. Used when no path prefix is present.
func (r *Resolver) Negotiate(acceptLanguage string) enums.Locale {
	if r == nil {
		return enums.DefaultLocale
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return r.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.def
	}
	_, index, _ := r.matcher.Match(tags...)
	if index < 0 || index >= len(r.ordered) {
		return r.def
	}
	return r.ordered[index]
}

// SplitPath separates a two-letter locale prefix from the rest of the
// path. "/en/tours/x" yields ("en", "/tours/x"); "/tours/x" yields
// ("", "/tours/x").
func SplitPath(path string) (prefix, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "/"
	}
	head, tail, found := strings.Cut(trimmed, "/")
	if len(head) != 2 {
		return "", path
	}
	if !found {
		return head, "/"
	}
	return head, "/" + tail
}
