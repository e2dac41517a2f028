package store

import (
	"maps"
	"time"
)

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneJSON(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	case map[string]string:
		return maps.Clone(typed)
	default:
		return v
	}
}

func cloneJSON(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneTimePtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneProduct(p *Product) *Product {
	if p == nil {
		return nil
	}
	copied := *p
	copied.SlugByLocale = maps.Clone(p.SlugByLocale)
	copied.TypeTaxonomy = cloneStrings(p.TypeTaxonomy)
	copied.Platforms = cloneStrings(p.Platforms)
	copied.StoreLinks = maps.Clone(p.StoreLinks)
	copied.Developer = cloneStringPtr(p.Developer)
	copied.Publisher = cloneStringPtr(p.Publisher)
	copied.Brand = cloneStringPtr(p.Brand)
	return &copied
}

func cloneDoc(d *Doc) *Doc {
	if d == nil {
		return nil
	}
	copied := *d
	copied.Content = cloneJSON(d.Content)
	copied.LockedFields = maps.Clone(d.LockedFields)
	copied.SlugByLocale = maps.Clone(d.SlugByLocale)
	copied.PublishedAt = cloneTimePtr(d.PublishedAt)
	return &copied
}

func cloneMedia(m *MediaAsset) *MediaAsset {
	if m == nil {
		return nil
	}
	copied := *m
	copied.Locale = cloneStringPtr(m.Locale)
	copied.Meta = cloneJSON(m.Meta)
	return &copied
}

func cloneRedirect(r *Redirect) *Redirect {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

func cloneAudit(a *AuditEntry) *AuditEntry {
	if a == nil {
		return nil
	}
	copied := *a
	copied.ActorID = cloneStringPtr(a.ActorID)
	copied.Locale = cloneStringPtr(a.Locale)
	copied.Diff = cloneJSON(a.Diff)
	return &copied
}

// CloneDoc returns a deep copy of a document row.
func CloneDoc(d *Doc) *Doc {
	return cloneDoc(d)
}

// CloneProduct returns a deep copy of a product.
func CloneProduct(p *Product) *Product {
	return cloneProduct(p)
}
