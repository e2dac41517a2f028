package slugs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-catalog/internal/store"
)

// PathBuilder renders the public path of slug in locale. The locales
// package route helpers satisfy it.
type PathBuilder func(locale, slug string) (string, error)

// Redirect is one synthesised old path to new path mapping.
type Redirect struct {
	Locale   string `json:"locale"`
	FromPath string `json:"fromPath"`
	ToPath   string `json:"toPath"`
}

// BuildRedirects returns a redirect for every locale whose slug changed
// between previous and next. Locales where either side is empty are skipped.
func BuildRedirects(previous, next map[string]string, path PathBuilder) ([]Redirect, error) {
	seen := map[string]struct{}{}
	for locale := range previous {
		seen[locale] = struct{}{}
	}
	for locale := range next {
		seen[locale] = struct{}{}
	}
	localeList := make([]string, 0, len(seen))
	for locale := range seen {
		localeList = append(localeList, locale)
	}
	sort.Strings(localeList)

	var out []Redirect
	for _, locale := range localeList {
		from := strings.TrimSpace(previous[locale])
		to := strings.TrimSpace(next[locale])
		if from == "" || to == "" || from == to {
			continue
		}
		fromPath, err := path(locale, from)
		if err != nil {
			return nil, fmt.Errorf("slugs: path for %s %s: %w", locale, from, err)
		}
		toPath, err := path(locale, to)
		if err != nil {
			return nil, fmt.Errorf("slugs: path for %s %s: %w", locale, to, err)
		}
		out = append(out, Redirect{Locale: locale, FromPath: fromPath, ToPath: toPath})
	}
	return out, nil
}

// ApplyRedirects upserts the redirects for a slug change through repo.
func ApplyRedirects(ctx context.Context, repo store.RedirectRepository, previous, next map[string]string, path PathBuilder, now time.Time) ([]Redirect, error) {
	redirects, err := BuildRedirects(previous, next, path)
	if err != nil {
		return nil, err
	}
	for _, r := range redirects {
		if _, err := repo.Upsert(ctx, r.Locale, r.FromPath, r.ToPath, now); err != nil {
			return nil, fmt.Errorf("slugs: upsert redirect %s %s: %w", r.Locale, r.FromPath, err)
		}
	}
	return redirects, nil
}
