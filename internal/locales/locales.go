// Package locales canonicalises locale codes and builds public paths.
package locales

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Default supported locales, in display order.
var DefaultLocales = []string{"zh-CN", "en"}

// FallbackLocale is consulted by LocaleValue when the requested locale is absent.
const FallbackLocale = "en"

var (
	ErrNoLocales       = errors.New("locales: at least one locale is required")
	ErrInvalidLocale   = errors.New("locales: invalid locale")
	ErrDefaultNotInSet = errors.New("locales: default locale must be supported")
)

// Set is an immutable collection of supported locales.
type Set struct {
	tags          []string
	defaultLocale string
}

// NewSet canonicalises the provided codes. An empty default picks the first entry.
func NewSet(codes []string, defaultLocale string) (Set, error) {
	if len(codes) == 0 {
		return Set{}, ErrNoLocales
	}
	seen := map[string]struct{}{}
	tags := make([]string, 0, len(codes))
	for _, code := range codes {
		canonical, err := Canonical(code)
		if err != nil {
			return Set{}, err
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		tags = append(tags, canonical)
	}
	set := Set{tags: tags, defaultLocale: tags[0]}
	if strings.TrimSpace(defaultLocale) != "" {
		canonical, err := Canonical(defaultLocale)
		if err != nil {
			return Set{}, err
		}
		if _, ok := seen[canonical]; !ok {
			return Set{}, fmt.Errorf("%w: %s", ErrDefaultNotInSet, canonical)
		}
		set.defaultLocale = canonical
	}
	return set, nil
}

// MustSet is NewSet that panics on error.
func MustSet(codes []string, defaultLocale string) Set {
	set, err := NewSet(codes, defaultLocale)
	if err != nil {
		panic(err)
	}
	return set
}

// DefaultSet returns the built-in zh-CN/en set.
func DefaultSet() Set {
	return MustSet(DefaultLocales, "")
}

// Supported returns a copy of the canonical locale list.
func (s Set) Supported() []string {
	return append([]string(nil), s.tags...)
}

// Default returns the default locale.
func (s Set) Default() string {
	return s.defaultLocale
}

// Contains reports whether locale is supported after canonicalisation.
func (s Set) Contains(locale string) bool {
	_, ok := s.Resolve(locale)
	return ok
}

// Resolve returns the canonical supported form of locale.
func (s Set) Resolve(locale string) (string, bool) {
	canonical, err := Canonical(locale)
	if err != nil {
		return "", false
	}
	for _, tag := range s.tags {
		if tag == canonical {
			return tag, true
		}
	}
	return "", false
}

// ResolveOr resolves locale, falling back to fallback when locale is blank.
func (s Set) ResolveOr(locale, fallback string) (string, bool) {
	if strings.TrimSpace(locale) == "" {
		locale = fallback
	}
	if strings.TrimSpace(locale) == "" {
		return "", false
	}
	return s.Resolve(locale)
}

// Canonical parses a BCP 47 code and returns its canonical string.
func Canonical(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", ErrInvalidLocale
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidLocale, trimmed)
	}
	return tag.String(), nil
}

// Key returns the short base-language key for a locale (zh-CN becomes zh).
func Key(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(locale))
	}
	base, _ := tag.Base()
	return base.String()
}

// LocaleValue picks the value for locale, then the fallback locale, then the
// first value by key order.
func LocaleValue(values map[string]string, locale string) string {
	if v, ok := values[locale]; ok {
		return v
	}
	if v, ok := values[FallbackLocale]; ok {
		return v
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return values[keys[0]]
}
