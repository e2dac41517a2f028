package docs

import (
	"context"

	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/store"
)

// Service edits and publishes localized documents.
type Service interface {
	UpsertProductDraft(ctx context.Context, req ProductDraftRequest) (*store.Doc, error)
	UpsertHomepageDraft(ctx context.Context, req HomepageDraftRequest) (*store.Doc, error)
	UpsertLeaderboardDraft(ctx context.Context, req LeaderboardDraftRequest) (*store.Doc, error)
	UpsertCollectionDraft(ctx context.Context, req CollectionDraftRequest) (*store.Doc, error)

	PublishProductDraft(ctx context.Context, req PublishRequest) (*store.Doc, error)
	PublishHomepageDraft(ctx context.Context, req PublishRequest) (*store.Doc, error)
	PublishLeaderboardDraft(ctx context.Context, req PublishRequest) (*store.Doc, error)
	PublishCollectionDraft(ctx context.Context, req PublishRequest) (*store.Doc, error)

	GetDocPair(ctx context.Context, kind domain.EntityKind, key, locale string) (*DocPair, error)
}

// DraftInput is shared by every draft request.
type DraftInput struct {
	Locale  string         `json:"locale"`
	Content map[string]any `json:"content"`
	Role    domain.Role    `json:"-"`
	ActorID string         `json:"-"`
	// ExpectedRevision, when set, must match the current draft revision
	// (0 when no draft exists yet).
	ExpectedRevision *int `json:"expectedRevision,omitempty"`
}

// ProductDraftRequest saves a productDoc draft. LockedFields may only be
// submitted by admins.
type ProductDraftRequest struct {
	DraftInput
	CanonicalID  string          `json:"canonicalId"`
	LockedFields map[string]bool `json:"lockedFields,omitempty"`
}

type HomepageDraftRequest struct {
	DraftInput
}

type LeaderboardDraftRequest struct {
	DraftInput
	BoardID string `json:"boardId"`
	Mode    string `json:"mode"`
}

type CollectionDraftRequest struct {
	DraftInput
	CollectionID string            `json:"collectionId"`
	SlugByLocale map[string]string `json:"slugByLocale"`
}

// PublishRequest promotes the draft of Key in Locale. Key is ignored for
// the homepage.
type PublishRequest struct {
	Key     string      `json:"key"`
	Locale  string      `json:"locale"`
	Role    domain.Role `json:"-"`
	ActorID string      `json:"-"`
}

// DocPair holds both rows of a document; either may be nil.
type DocPair struct {
	Draft     *store.Doc `json:"draft"`
	Published *store.Doc `json:"published"`
}
