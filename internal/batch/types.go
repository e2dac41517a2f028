// Package batch validates and applies heterogeneous item batches. Validation
// classifies every item before anything is written; apply only runs when the
// whole batch is valid.
package batch

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog/internal/docs"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/internal/store"
)

// Service runs batch validation and apply.
type Service interface {
	Validate(ctx context.Context, req Request) (*ValidationResult, error)
	Upsert(ctx context.Context, req Request) (*UpsertResult, error)
}

// Request is one batch. Locale is the fallback for items without their own.
type Request struct {
	EntityType string           `json:"entityType"`
	Locale     string           `json:"locale,omitempty"`
	Items      []map[string]any `json:"items"`
	Role       domain.Role      `json:"-"`
	ActorID    string           `json:"-"`
}

// ItemIssue points at an item by index. Index -1 refers to the whole batch.
type ItemIssue struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type Stats struct {
	Total  int `json:"total"`
	Create int `json:"create"`
	Update int `json:"update"`
}

type ValidationResult struct {
	Valid    bool        `json:"valid"`
	Errors   []ItemIssue `json:"errors"`
	Warnings []ItemIssue `json:"warnings,omitempty"`
	Stats    Stats       `json:"stats"`
}

type UpsertResult struct {
	ValidationResult
	Applied int `json:"applied"`
}

// Services are the single-entity operations an apply delegates to.
type Services struct {
	Products products.Service
	Docs     docs.Service
	Media    media.Service
}

// ServiceFactory builds Services bound to st. Apply calls it with the open
// transaction so every delegated write joins it.
type ServiceFactory func(st store.Store) Services

// ItemError reports the item that failed during apply.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
