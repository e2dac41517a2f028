package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog/internal/domain"
)

// Product is the canonical, locale independent identity record.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID           uuid.UUID            `bun:",pk,type:uuid"                     json:"id"`
	CanonicalID  string               `bun:"canonical_id,notnull,unique"       json:"canonicalId"`
	SlugByLocale map[string]string    `bun:"slug_by_locale,type:jsonb,notnull" json:"slugByLocale"`
	TypeTaxonomy []string             `bun:"type_taxonomy,type:jsonb,notnull"  json:"typeTaxonomy"`
	Platforms    []string             `bun:"platforms,type:jsonb,notnull"      json:"platforms"`
	Developer    *string              `bun:"developer"                         json:"developer"`
	Publisher    *string              `bun:"publisher"                         json:"publisher"`
	Brand        *string              `bun:"brand"                             json:"brand"`
	StoreLinks   map[string]string    `bun:"store_links,type:jsonb"            json:"storeLinks"`
	Status       domain.ProductStatus `bun:"status,notnull,default:'active'"   json:"status"`
	CreatedBy    string               `bun:"created_by"                        json:"createdBy,omitempty"`
	UpdatedBy    string               `bun:"updated_by"                        json:"updatedBy,omitempty"`
	CreatedAt    time.Time            `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time            `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// ProductSlug indexes one locale slug of a product. (locale, slug) is unique.
type ProductSlug struct {
	bun.BaseModel `bun:"table:product_slugs,alias:ps"`

	ID        uuid.UUID `bun:",pk,type:uuid"            json:"id"`
	ProductID uuid.UUID `bun:"product_id,notnull,type:uuid" json:"productId"`
	Locale    string    `bun:"locale,notnull"           json:"locale"`
	Slug      string    `bun:"slug,notnull"             json:"slug"`
}

// Doc is one (kind, key, locale, state) row of a localized document.
type Doc struct {
	bun.BaseModel `bun:"table:localized_docs,alias:d"`

	ID           uuid.UUID         `bun:",pk,type:uuid"                json:"id"`
	Kind         domain.EntityKind `bun:"kind,notnull"                 json:"kind"`
	Key          string            `bun:"owner_key,notnull"            json:"key"`
	Locale       string            `bun:"locale,notnull"               json:"locale"`
	State        domain.DocState   `bun:"state,notnull"                json:"state"`
	Content      map[string]any    `bun:"content,type:jsonb,notnull"   json:"content"`
	LockedFields map[string]bool   `bun:"locked_fields,type:jsonb"     json:"lockedFields,omitempty"`
	Mode         string            `bun:"mode"                         json:"mode,omitempty"`
	SlugByLocale map[string]string `bun:"slug_by_locale,type:jsonb"    json:"slugByLocale,omitempty"`
	Revision     int               `bun:"revision,notnull"             json:"revision"`
	PublishedAt  *time.Time        `bun:"published_at,nullzero"        json:"publishedAt,omitempty"`
	CreatedBy    string            `bun:"created_by"                   json:"createdBy,omitempty"`
	UpdatedBy    string            `bun:"updated_by"                   json:"updatedBy,omitempty"`
	CreatedAt    time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// DocKey addresses a single document row.
type DocKey struct {
	Kind   domain.EntityKind
	Key    string
	Locale string
	State  domain.DocState
}

// MediaAsset is attached to an owner, optionally for a single locale.
// A nil Locale applies to every locale of the owner.
type MediaAsset struct {
	bun.BaseModel `bun:"table:media_assets,alias:m"`

	ID        uuid.UUID             `bun:",pk,type:uuid"         json:"id"`
	OwnerType domain.MediaOwnerType `bun:"owner_type,notnull"    json:"ownerType"`
	OwnerID   string                `bun:"owner_id,notnull"      json:"ownerId"`
	Locale    *string               `bun:"locale"                json:"locale"`
	Type      domain.MediaType      `bun:"type,notnull"          json:"type"`
	URL       string                `bun:"url,notnull"           json:"url"`
	Meta      map[string]any        `bun:"meta,type:jsonb"       json:"meta,omitempty"`
	CreatedBy string                `bun:"created_by"            json:"createdBy,omitempty"`
	UpdatedBy string                `bun:"updated_by"            json:"updatedBy,omitempty"`
	CreatedAt time.Time             `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time             `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// Redirect maps an old public path to the current one. Rows are only ever
// inserted or overwritten. A row whose target equals its source is inert.
type Redirect struct {
	bun.BaseModel `bun:"table:redirects,alias:r"`

	ID        uuid.UUID `bun:",pk,type:uuid"      json:"id"`
	Locale    string    `bun:"locale,notnull"     json:"locale"`
	FromPath  string    `bun:"from_path,notnull"  json:"fromPath"`
	ToPath    string    `bun:"to_path,notnull"    json:"toPath"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt"`
}

// Active reports whether the redirect points somewhere other than itself.
func (r *Redirect) Active() bool {
	return r != nil && r.FromPath != r.ToPath
}

// AuditEntry is one immutable audit row.
type AuditEntry struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         uuid.UUID      `bun:",pk,type:uuid"            json:"id"`
	ActorID    *string        `bun:"actor_id"                 json:"actorId"`
	Action     string         `bun:"action,notnull"           json:"action"`
	EntityType string         `bun:"entity_type,notnull"      json:"entityType"`
	EntityID   string         `bun:"entity_id,notnull"        json:"entityId"`
	Locale     *string        `bun:"locale"                   json:"locale"`
	Diff       map[string]any `bun:"diff,type:jsonb,notnull"  json:"diff"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
}
