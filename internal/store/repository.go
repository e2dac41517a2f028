// Package store persists catalog records. Every service receives a Store
// explicitly; there is no package level handle.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/domain"
)

// Store groups the repositories and the unit of work.
type Store interface {
	Products() ProductRepository
	Docs() DocRepository
	Media() MediaRepository
	Redirects() RedirectRepository
	Audit() AuditRepository
	// RunInTx runs fn against a transactional view of the store. Returning an
	// error rolls back every write made through tx. Nested calls join the
	// outer transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ProductRepository stores products and their slug index.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) (*Product, error)
	Update(ctx context.Context, product *Product) (*Product, error)
	GetByCanonicalID(ctx context.Context, canonicalID string) (*Product, error)
	FindBySlug(ctx context.Context, locale, slug string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*Product, int, error)
	// Delete hard deletes the product and its slug index rows.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search   string
	Type     string
	Status   domain.ProductStatus
	Page     int
	PageSize int
}

// DocRepository stores localized document rows.
type DocRepository interface {
	Get(ctx context.Context, key DocKey) (*Doc, error)
	Upsert(ctx context.Context, params UpsertDocParams) (*Doc, error)
	ListByOwner(ctx context.Context, kind domain.EntityKind, key string) ([]*Doc, error)
	ListByKind(ctx context.Context, kind domain.EntityKind, locale string) ([]*Doc, error)
}

// UpsertDocParams describes a write to one document row. The stored revision
// becomes 1 for a new row and previous+1 otherwise.
type UpsertDocParams struct {
	Key          DocKey
	Content      map[string]any
	LockedFields map[string]bool
	Mode         string
	SlugByLocale map[string]string
	PublishedAt  *time.Time
	ActorID      string
	Now          time.Time
	// ExpectedRevision, when set, must equal the current revision (0 for a
	// missing row) or the write fails with a stale_write error.
	ExpectedRevision *int
}

// MediaRepository stores media assets.
type MediaRepository interface {
	Create(ctx context.Context, asset *MediaAsset) (*MediaAsset, error)
	Update(ctx context.Context, asset *MediaAsset) (*MediaAsset, error)
	Get(ctx context.Context, id uuid.UUID) (*MediaAsset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerType domain.MediaOwnerType, ownerID string) ([]*MediaAsset, error)
	DeleteByOwner(ctx context.Context, ownerType domain.MediaOwnerType, ownerID string) (int, error)
}

// RedirectRepository stores the public path redirect map.
type RedirectRepository interface {
	// Upsert records from -> to and re-points rows targeting from, so every
	// row resolves to the current path in one hop.
	Upsert(ctx context.Context, locale, from, to string, now time.Time) (*Redirect, error)
	Resolve(ctx context.Context, locale, path string) (*Redirect, error)
	List(ctx context.Context, locale string) ([]*Redirect, error)
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error)
}

// AuditFilter narrows audit listings. Results are newest first.
type AuditFilter struct {
	Limit      int
	EntityType string
	EntityID   string
	Action     string
}

// ErrNotFound is matched by errors.Is for every *NotFoundError.
var ErrNotFound = errors.New("store: record not found")

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsNotFound reports whether err marks a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}
