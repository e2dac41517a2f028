package products

import (
	"context"
	"time"

	"github.com/goliatone/go-catalog/internal/store"
)

// Service exposes product identity use cases.
type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*store.Product, error)
	Patch(ctx context.Context, req PatchProductRequest) (*store.Product, error)
	Delete(ctx context.Context, canonicalID, actorID string) (*DeleteResult, error)
	Get(ctx context.Context, canonicalID string) (*store.Product, error)
	List(ctx context.Context, req ListRequest) (*Page, error)
}

// CreateProductRequest carries a new product. Status defaults to active.
type CreateProductRequest struct {
	CanonicalID  string            `json:"canonicalId"`
	SlugByLocale map[string]string `json:"slugByLocale"`
	TypeTaxonomy []string          `json:"typeTaxonomy"`
	Platforms    []string          `json:"platforms"`
	Developer    string            `json:"developer"`
	Publisher    string            `json:"publisher"`
	Brand        string            `json:"brand"`
	StoreLinks   map[string]string `json:"storeLinks"`
	Status       string            `json:"status"`
	ActorID      string            `json:"-"`
}

// PatchProductRequest carries a partial update. Nil fields are left alone;
// SlugByLocale is merged into the current map.
type PatchProductRequest struct {
	CanonicalID  string            `json:"canonicalId"`
	SlugByLocale map[string]string `json:"slugByLocale"`
	TypeTaxonomy []string          `json:"typeTaxonomy"`
	Platforms    []string          `json:"platforms"`
	Developer    *string           `json:"developer"`
	Publisher    *string           `json:"publisher"`
	Brand        *string           `json:"brand"`
	StoreLinks   map[string]string `json:"storeLinks"`
	Status       *string           `json:"status"`
	ActorID      string            `json:"-"`
}

// DeleteResult describes a soft delete.
type DeleteResult struct {
	Deleted         bool      `json:"deleted"`
	Mode            string    `json:"mode"`
	Status          string    `json:"status"`
	AlreadyArchived bool      `json:"alreadyArchived"`
	ArchivedAt      time.Time `json:"archivedAt"`
}

// ListRequest filters the product list.
type ListRequest struct {
	Search   string
	Type     string
	Status   string
	Page     int
	PageSize int
}

// Page is one page of products.
type Page struct {
	Items    []*store.Product `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}
