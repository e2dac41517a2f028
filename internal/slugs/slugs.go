// Package slugs keeps public slugs unique per locale and records redirects
// when they change.
package slugs

import (
	"sort"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/locales"
)

// Clean trims every slug and drops empty entries.
func Clean(slugByLocale map[string]string) map[string]string {
	out := make(map[string]string, len(slugByLocale))
	for locale, value := range slugByLocale {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out[locale] = trimmed
		}
	}
	return out
}

// Validate checks that every slug is well formed and that each locale in
// required has one.
func Validate(slugByLocale map[string]string, required []string) error {
	for _, locale := range required {
		if strings.TrimSpace(slugByLocale[locale]) == "" {
			return apperrors.SlugRequired()
		}
	}
	for _, locale := range sortedLocales(slugByLocale) {
		value := strings.TrimSpace(slugByLocale[locale])
		if value == "" {
			continue
		}
		if !slug.IsValid(value) {
			return apperrors.InvalidSlug(locales.Key(locale), value)
		}
	}
	return nil
}

// Normalize turns free text into a slug, returning "" when nothing usable
// remains.
func Normalize(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	return normalized
}

// Merge overlays patch onto base. Empty values in patch keep the base slug.
func Merge(base, patch map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(patch))
	for locale, value := range base {
		out[locale] = value
	}
	for locale, value := range Clean(patch) {
		out[locale] = value
	}
	return out
}

// Equal reports whether two slug maps hold the same non-empty slugs.
func Equal(a, b map[string]string) bool {
	ca, cb := Clean(a), Clean(b)
	if len(ca) != len(cb) {
		return false
	}
	for locale, value := range ca {
		if cb[locale] != value {
			return false
		}
	}
	return true
}

func sortedLocales(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
