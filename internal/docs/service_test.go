package docs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/docs"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/store/storetest"
	"github.com/goliatone/go-catalog/internal/validation"
)

func clock() func() time.Time {
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func setup(t *testing.T, st store.Store, opts ...docs.ServiceOption) docs.Service {
	t.Helper()
	_, err := products.NewService(st).Create(context.Background(), products.CreateProductRequest{
		CanonicalID:  "hades",
		SlugByLocale: map[string]string{"zh-CN": "hades-zh", "en": "hades"},
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return docs.NewService(st, append([]docs.ServiceOption{docs.WithClock(clock())}, opts...)...)
}

func productDraft(role domain.Role, content map[string]any) docs.ProductDraftRequest {
	return docs.ProductDraftRequest{
		CanonicalID: "hades",
		DraftInput:  docs.DraftInput{Locale: "en", Content: content, Role: role, ActorID: string(role) + "-1"},
	}
}

func publishReq(key string) docs.PublishRequest {
	return docs.PublishRequest{Key: key, Locale: "en", Role: domain.RoleEditor, ActorID: "editor-1"}
}

func TestDraftRevisionIncrementsPerRow(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := setup(t, st)

		for want := 1; want <= 3; want++ {
			doc, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"n": want}))
			if err != nil {
				t.Fatalf("upsert %d: %v", want, err)
			}
			if doc.Revision != want {
				t.Fatalf("expected revision %d, got %d", want, doc.Revision)
			}
		}
		if _, err := svc.PublishProductDraft(ctx, publishReq("hades")); err != nil {
			t.Fatalf("publish: %v", err)
		}
		if _, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"n": 4})); err != nil {
			t.Fatalf("upsert after publish: %v", err)
		}
		pair, err := svc.GetDocPair(ctx, domain.KindProductDoc, "hades", "en")
		if err != nil {
			t.Fatalf("GetDocPair: %v", err)
		}
		if pair.Draft.Revision != 4 || pair.Published.Revision != 1 {
			t.Fatalf("expected draft 4 / published 1, got %d / %d", pair.Draft.Revision, pair.Published.Revision)
		}
	})
}

func TestLockedFieldGuard(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := setup(t, st)

		admin := productDraft(domain.RoleAdmin, map[string]any{"canonicalSummary": "original", "definition": "d"})
		admin.LockedFields = map[string]bool{"canonicalSummary": true}
		if _, err := svc.UpsertProductDraft(ctx, admin); err != nil {
			t.Fatalf("admin seed: %v", err)
		}

		_, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"canonicalSummary": "changed", "definition": "d"}))
		if !errors.Is(err, apperrors.ErrAuthorization) || err.Error() != "locked_field_modified:canonicalSummary" {
			t.Fatalf("expected locked_field_modified:canonicalSummary, got %v", err)
		}

		if _, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"canonicalSummary": "original", "definition": "edited"})); err != nil {
			t.Fatalf("editor change to unlocked field: %v", err)
		}

		doc, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleAdmin, map[string]any{"canonicalSummary": "changed", "definition": "edited"}))
		if err != nil {
			t.Fatalf("admin change: %v", err)
		}
		if !doc.LockedFields["canonicalSummary"] {
			t.Fatalf("expected locks to survive admin save, got %v", doc.LockedFields)
		}
	})
}

func TestNonAdminCannotSubmitLocks(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	req := productDraft(domain.RoleEditor, map[string]any{"a": 1})
	req.LockedFields = map[string]bool{"a": true}
	_, err := svc.UpsertProductDraft(context.Background(), req)
	if err == nil || err.Error() != "locked_fields_admin_only" {
		t.Fatalf("expected locked_fields_admin_only, got %v", err)
	}
}

func TestFirstDraftInheritsPublishedLocks(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := setup(t, st)
	if _, err := st.Docs().Upsert(ctx, store.UpsertDocParams{
		Key:          store.DocKey{Kind: domain.KindProductDoc, Key: "hades", Locale: "en", State: domain.StatePublished},
		Content:      map[string]any{"canonicalSummary": "live"},
		LockedFields: map[string]bool{"canonicalSummary": true},
	}); err != nil {
		t.Fatalf("seed published: %v", err)
	}
	_, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"canonicalSummary": "draft"}))
	if apperrors.CodeOf(err) != apperrors.CodeLockedFieldModified {
		t.Fatalf("expected guard against published content, got %v", err)
	}
	doc, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"canonicalSummary": "live", "extra": 1}))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !doc.LockedFields["canonicalSummary"] {
		t.Fatalf("expected first draft to inherit published locks, got %v", doc.LockedFields)
	}
}

func TestPublishCopiesDraft(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := setup(t, st)

		draft, err := svc.UpsertProductDraft(ctx, productDraft(domain.RoleEditor, map[string]any{"a": 1}))
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		first, err := svc.PublishProductDraft(ctx, publishReq("hades"))
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
		if first.Revision != 1 || first.PublishedAt == nil || first.State != domain.StatePublished {
			t.Fatalf("unexpected first publish %+v", first)
		}
		if diff := cmp.Diff(map[string]any{"a": float64(1)}, normalise(t, first.Content)); diff != "" {
			t.Fatalf("published content mismatch (-want +got):\n%s", diff)
		}
		second, err := svc.PublishProductDraft(ctx, publishReq("hades"))
		if err != nil {
			t.Fatalf("republish: %v", err)
		}
		if second.Revision != 2 {
			t.Fatalf("expected republish revision 2, got %d", second.Revision)
		}
		pair, _ := svc.GetDocPair(ctx, domain.KindProductDoc, "hades", "en")
		if pair.Draft.Revision != draft.Revision {
			t.Fatalf("publish must not touch the draft, revision %d -> %d", draft.Revision, pair.Draft.Revision)
		}
		entries, _ := st.Audit().List(ctx, store.AuditFilter{Action: "productDoc.publish"})
		if len(entries) != 2 {
			t.Fatalf("expected two publish audit rows, got %d", len(entries))
		}
	})
}

func normalise(t *testing.T, content map[string]any) map[string]any {
	t.Helper()
	out := map[string]any{}
	for k, v := range content {
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		default:
			out[k] = v
		}
	}
	return out
}

func TestPublishWithoutDraft(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	_, err := svc.PublishLeaderboardDraft(context.Background(), publishReq("games_top"))
	if !errors.Is(err, apperrors.ErrNotFound) || apperrors.CodeOf(err) != apperrors.CodeDraftNotFound {
		t.Fatalf("expected draft_not_found, got %v", err)
	}
}

func TestProductDraftRequiresProduct(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	req := productDraft(domain.RoleEditor, map[string]any{})
	req.CanonicalID = "ghost"
	if _, err := svc.UpsertProductDraft(context.Background(), req); apperrors.CodeOf(err) != apperrors.CodeProductNotFound {
		t.Fatalf("expected product_not_found, got %v", err)
	}
}

func TestViewerCannotWrite(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	_, err := svc.UpsertHomepageDraft(context.Background(), docs.HomepageDraftRequest{
		DraftInput: docs.DraftInput{Locale: "en", Role: domain.RoleViewer},
	})
	if !errors.Is(err, apperrors.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestExpectedRevisionRejectsStaleWrites(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := setup(t, st)
		zero := 0
		req := docs.HomepageDraftRequest{DraftInput: docs.DraftInput{
			Locale: "zh-CN", Content: map[string]any{"featured": []any{}}, Role: domain.RoleEditor, ExpectedRevision: &zero,
		}}
		if _, err := svc.UpsertHomepageDraft(ctx, req); err != nil {
			t.Fatalf("first write: %v", err)
		}
		_, err := svc.UpsertHomepageDraft(ctx, req)
		if !errors.Is(err, apperrors.ErrStaleWrite) || err.Error() != "stale_write:0:1" {
			t.Fatalf("expected stale_write:0:1, got %v", err)
		}
		entries, _ := st.Audit().List(ctx, store.AuditFilter{Action: "homepage.draft.upsert"})
		if len(entries) != 1 || entries[0].EntityID != "zh-CN" {
			t.Fatalf("expected one homepage audit keyed by locale, got %+v", entries)
		}
	})
}

func TestLeaderboardModeDefaultsToManual(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	doc, err := svc.UpsertLeaderboardDraft(context.Background(), docs.LeaderboardDraftRequest{
		BoardID:    "games_top",
		DraftInput: docs.DraftInput{Locale: "en", Role: domain.RoleEditor},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if doc.Mode != "manual" {
		t.Fatalf("expected manual mode, got %q", doc.Mode)
	}
	_, err = svc.UpsertLeaderboardDraft(context.Background(), docs.LeaderboardDraftRequest{
		BoardID:    "games_top",
		Mode:       "random",
		DraftInput: docs.DraftInput{Locale: "en", Role: domain.RoleEditor},
	})
	if apperrors.CodeOf(err) != "leaderboard_mode_invalid" {
		t.Fatalf("expected leaderboard_mode_invalid, got %v", err)
	}
}

func TestCollectionPublishRedirectsChangedSlug(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := setup(t, st)
		save := func(slug string) {
			t.Helper()
			if _, err := svc.UpsertCollectionDraft(ctx, docs.CollectionDraftRequest{
				CollectionID: "roguelikes",
				SlugByLocale: map[string]string{"en": slug, "zh-CN": slug},
				DraftInput:   docs.DraftInput{Locale: "en", Role: domain.RoleEditor, Content: map[string]any{"title": "Roguelikes"}},
			}); err != nil {
				t.Fatalf("save %s: %v", slug, err)
			}
			if _, err := svc.PublishCollectionDraft(ctx, publishReq("roguelikes")); err != nil {
				t.Fatalf("publish %s: %v", slug, err)
			}
		}
		save("best-roguelikes")
		save("top-roguelikes")

		redirect, err := st.Redirects().Resolve(ctx, "en", "/en/collections/best-roguelikes")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if redirect.ToPath != "/en/collections/top-roguelikes" {
			t.Fatalf("unexpected redirect target %s", redirect.ToPath)
		}
		zh, _ := st.Redirects().List(ctx, "zh-CN")
		if len(zh) != 0 {
			t.Fatalf("publishing en must not redirect zh-CN, got %+v", zh)
		}
	})
}

func TestCollectionSlugCollision(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	ctx := context.Background()
	input := docs.DraftInput{Locale: "en", Role: domain.RoleEditor}
	if _, err := svc.UpsertCollectionDraft(ctx, docs.CollectionDraftRequest{CollectionID: "a", SlugByLocale: map[string]string{"en": "shared"}, DraftInput: input}); err != nil {
		t.Fatalf("first collection: %v", err)
	}
	_, err := svc.UpsertCollectionDraft(ctx, docs.CollectionDraftRequest{CollectionID: "b", SlugByLocale: map[string]string{"en": "shared"}, DraftInput: input})
	if err == nil || err.Error() != "slug_en_conflict:shared:a:draft" {
		t.Fatalf("expected collection slug conflict, got %v", err)
	}
}

func TestSchemaValidatorIsAdvisory(t *testing.T) {
	st := store.NewMemoryStore()
	svc := setup(t, st, docs.WithSchemaValidator(validation.MustValidator()))
	saved, err := svc.UpsertLeaderboardDraft(context.Background(), docs.LeaderboardDraftRequest{
		BoardID:    "games_top",
		DraftInput: docs.DraftInput{Locale: "en", Role: domain.RoleEditor, Content: map[string]any{"title": 3}},
	})
	if err != nil {
		t.Fatalf("expected schema issues not to block the draft, got %v", err)
	}
	if saved.Revision != 1 || saved.Content["title"] != 3 {
		t.Fatalf("expected content stored as submitted, got %+v", saved)
	}
}

func TestSchemaEnforcementRejectsInvalidContent(t *testing.T) {
	svc := setup(t, store.NewMemoryStore(),
		docs.WithSchemaValidator(validation.MustValidator()),
		docs.WithSchemaEnforcement(true),
	)
	_, err := svc.UpsertLeaderboardDraft(context.Background(), docs.LeaderboardDraftRequest{
		BoardID:    "games_top",
		DraftInput: docs.DraftInput{Locale: "en", Role: domain.RoleEditor, Content: map[string]any{"title": 3}},
	})
	if apperrors.CodeOf(err) != "content_schema_invalid" {
		t.Fatalf("expected content_schema_invalid, got %v", err)
	}
}

func TestUnsupportedLocale(t *testing.T) {
	svc := setup(t, store.NewMemoryStore())
	_, err := svc.GetDocPair(context.Background(), domain.KindHomepage, "", "fr")
	if apperrors.CodeOf(err) != "locale_unsupported" {
		t.Fatalf("expected locale_unsupported, got %v", err)
	}
}
