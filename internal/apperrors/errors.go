// Package apperrors defines the structured failure type shared by catalog
// services. Each error carries its kind and parameters as fields; the legacy
// string codes are produced only when the error is rendered.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a catalog failure.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindInvariant     Kind = "invariant"
	KindStaleWrite    Kind = "stale_write"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrNotFound      = errors.New("catalog: not found")
	ErrConflict      = errors.New("catalog: conflict")
	ErrAuthorization = errors.New("catalog: not authorized")
	ErrValidation    = errors.New("catalog: invalid input")
	ErrInvariant     = errors.New("catalog: invariant violated")
	ErrStaleWrite    = errors.New("catalog: stale write")
)

// Codes rendered for presentation.
const (
	CodeProductNotFound     = "product_not_found"
	CodeDraftNotFound       = "draft_not_found"
	CodeMediaNotFound       = "media_not_found"
	CodeCanonicalIDConflict = "canonical_id_conflict"
	CodeSlugConflict        = "slug_conflict"
	CodeLockedFieldsAdmin   = "locked_fields_admin_only"
	CodeLockedFieldModified = "locked_field_modified"
	CodeSlugRequired        = "slug_required_both_locales"
	CodeInvalidEntityType   = "invalid_entity_type"
	CodeStaleWrite          = "stale_write"
	CodeInvalidSlug         = "invalid_slug"
	CodeUnsupportedPath     = "unsupported_lock_path"
	CodeForbidden           = "forbidden"
)

// Error is a catalog failure with structured parameters.
type Error struct {
	Kind Kind
	Code string
	// Locale is the short locale key (zh, en) for slug conflicts.
	Locale      string
	Slug        string
	OwnerID     string
	OwnerStatus string
	Path        string
	ID          string
	Expected    int
	Actual      int
	Message     string
}

// Error renders the legacy code, including its colon separated parameters.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Code {
	case CodeSlugConflict:
		return fmt.Sprintf("slug_%s_conflict:%s:%s:%s", e.Locale, e.Slug, e.OwnerID, e.OwnerStatus)
	case CodeCanonicalIDConflict:
		return CodeCanonicalIDConflict + ":" + e.ID
	case CodeLockedFieldModified, CodeUnsupportedPath:
		return e.Code + ":" + e.Path
	case CodeStaleWrite:
		return fmt.Sprintf("%s:%d:%d", CodeStaleWrite, e.Expected, e.Actual)
	case CodeInvalidSlug:
		return fmt.Sprintf("%s:%s:%s", CodeInvalidSlug, e.Locale, e.Slug)
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Unwrap exposes the kind sentinel so errors.Is works on categories.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindAuthorization:
		return ErrAuthorization
	case KindValidation:
		return ErrValidation
	case KindStaleWrite:
		return ErrStaleWrite
	default:
		return ErrInvariant
	}
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of the wrapped *Error or an empty string.
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the status code the presentation layer should use.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindStaleWrite:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation, KindInvariant:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Render returns the presentation payload for an error.
func Render(err error) map[string]any {
	if err == nil {
		return nil
	}
	out := map[string]any{"error": err.Error()}
	if e, ok := As(err); ok {
		out["kind"] = string(e.Kind)
		out["code"] = e.Code
		if e.Slug != "" {
			out["slug"] = e.Slug
		}
		if e.OwnerID != "" {
			out["ownerId"] = e.OwnerID
			out["ownerStatus"] = e.OwnerStatus
		}
		if e.Path != "" {
			out["path"] = e.Path
		}
	}
	return out
}

func ProductNotFound(canonicalID string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeProductNotFound, ID: canonicalID}
}

func DraftNotFound(key string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeDraftNotFound, ID: key}
}

func MediaNotFound(id string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeMediaNotFound, ID: id}
}

func CanonicalIDConflict(canonicalID string) *Error {
	return &Error{Kind: KindConflict, Code: CodeCanonicalIDConflict, ID: canonicalID}
}

// SlugConflict reports a slug held by another owner. localeKey is the short
// locale key used in the rendered code.
func SlugConflict(localeKey, slug, ownerID, ownerStatus string) *Error {
	return &Error{
		Kind:        KindConflict,
		Code:        CodeSlugConflict,
		Locale:      localeKey,
		Slug:        slug,
		OwnerID:     ownerID,
		OwnerStatus: ownerStatus,
	}
}

func LockedFieldsAdminOnly() *Error {
	return &Error{Kind: KindAuthorization, Code: CodeLockedFieldsAdmin}
}

func LockedFieldModified(path string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeLockedFieldModified, Path: path}
}

func UnsupportedPath(path string) *Error {
	return &Error{Kind: KindValidation, Code: CodeUnsupportedPath, Path: path}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: message}
}

func SlugRequired() *Error {
	return &Error{Kind: KindInvariant, Code: CodeSlugRequired}
}

func InvalidSlug(localeKey, slug string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidSlug, Locale: localeKey, Slug: slug}
}

func InvalidEntityType(entityType string) *Error {
	return &Error{Kind: KindInvariant, Code: CodeInvalidEntityType, ID: entityType}
}

func StaleWrite(expected, actual int) *Error {
	return &Error{Kind: KindStaleWrite, Code: CodeStaleWrite, Expected: expected, Actual: actual}
}

// Validation builds a validation failure with a free-form code.
func Validation(code string) *Error {
	return &Error{Kind: KindValidation, Code: strings.TrimSpace(code)}
}
