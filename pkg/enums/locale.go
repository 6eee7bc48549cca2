package enums

import "fmt"

// Locale identifies a storefront language served under a URL path prefix.
type Locale string

const (
	LocaleFA Locale = "fa"
	LocaleEN Locale = "en"
	LocaleTR Locale = "tr"
)

// DefaultLocale is used when the requested prefix is unknown.
const DefaultLocale = LocaleFA

var validLocales = []Locale{
	LocaleFA,
	LocaleEN,
	LocaleTR,
}

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the value is a supported Locale.
func (l Locale) IsValid() bool {
	for _, candidate := range validLocales {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLocale converts raw input into a Locale.
func ParseLocale(value string) (Locale, error) {
	for _, candidate := range validLocales {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid locale %q", value)
}
