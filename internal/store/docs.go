package store

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/identity"
)

const (
	defaultPageSize = 20
)

// SlugIndexError reports a write that would break the (locale, slug) index.
type SlugIndexError struct {
	Locale string
	Slug   string
}

func (e *SlugIndexError) Error() string {
	return fmt.Sprintf("store: slug %q already indexed for locale %s", e.Slug, e.Locale)
}

func (e *SlugIndexError) Unwrap() error {
	return apperrors.ErrConflict
}

func docID(key DocKey) uuid.UUID {
	return identity.DocUUID(string(key.Kind), key.Key, key.Locale, string(key.State))
}

func docKeyString(key DocKey) string {
	return fmt.Sprintf("%s/%s/%s", key.Key, key.Locale, key.State)
}

// buildDoc applies params on top of the existing row, bumping the revision.
func buildDoc(id uuid.UUID, params UpsertDocParams, existing *Doc) *Doc {
	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	content := cloneJSON(params.Content)
	if content == nil {
		content = map[string]any{}
	}
	doc := &Doc{
		ID:           id,
		Kind:         params.Key.Kind,
		Key:          params.Key.Key,
		Locale:       params.Key.Locale,
		State:        params.Key.State,
		Content:      content,
		LockedFields: maps.Clone(params.LockedFields),
		Mode:         params.Mode,
		SlugByLocale: maps.Clone(params.SlugByLocale),
		PublishedAt:  cloneTimePtr(params.PublishedAt),
		Revision:     1,
		CreatedBy:    params.ActorID,
		UpdatedBy:    params.ActorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil {
		doc.Revision = existing.Revision + 1
		doc.CreatedBy = existing.CreatedBy
		doc.CreatedAt = existing.CreatedAt
	}
	return doc
}

func (f ProductFilter) limitOffset() (int, int) {
	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}
