package media_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/store/storetest"
)

func TestUpsertCreatesAndUpdates(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := media.NewService(st)

		created, err := svc.Upsert(ctx, media.UpsertMediaRequest{
			OwnerType: "product",
			OwnerID:   "hades",
			Locale:    "en",
			Type:      "cover",
			URL:       "https://cdn.example.com/hades.jpg",
			ActorID:   "editor-1",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.Locale == nil || *created.Locale != "en" {
			t.Fatalf("expected en locale, got %v", created.Locale)
		}

		updated, err := svc.Upsert(ctx, media.UpsertMediaRequest{
			ID:        created.ID,
			OwnerType: "product",
			OwnerID:   "hades",
			Type:      "image",
			URL:       "https://cdn.example.com/hades-2.jpg",
		})
		if err != nil {
			t.Fatalf("update via upsert: %v", err)
		}
		if updated.ID != created.ID || updated.Locale != nil || updated.Type != domain.MediaImage {
			t.Fatalf("unexpected update %+v", updated)
		}

		list, err := svc.ListByOwner(ctx, domain.MediaOwnerProduct, "hades")
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected one asset, got %d", len(list))
		}
		creates, _ := st.Audit().List(ctx, store.AuditFilter{Action: media.ActionCreate})
		updates, _ := st.Audit().List(ctx, store.AuditFilter{Action: media.ActionUpdate})
		if len(creates) != 1 || len(updates) != 1 {
			t.Fatalf("expected one create and one update audit, got %d/%d", len(creates), len(updates))
		}
	})
}

func TestUpsertRequiresFields(t *testing.T) {
	svc := media.NewService(store.NewMemoryStore())
	_, err := svc.Upsert(context.Background(), media.UpsertMediaRequest{OwnerType: "product", OwnerID: "hades"})
	if apperrors.CodeOf(err) != "ownerType_ownerId_type_url_required" {
		t.Fatalf("expected required fields error, got %v", err)
	}
	_, err = svc.Upsert(context.Background(), media.UpsertMediaRequest{OwnerType: "page", OwnerID: "x", Type: "image", URL: "u"})
	if apperrors.CodeOf(err) != "media_owner_type_invalid" {
		t.Fatalf("expected owner type error, got %v", err)
	}
}

func TestUpdateKeepsLocaleUnlessCleared(t *testing.T) {
	ctx := context.Background()
	svc := media.NewService(store.NewMemoryStore())
	created, err := svc.Upsert(ctx, media.UpsertMediaRequest{OwnerType: "homepage", OwnerID: "homepage", Locale: "zh-CN", Type: "video", URL: "https://v.example.com/1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	url := "https://v.example.com/2"
	updated, err := svc.Update(ctx, media.UpdateMediaRequest{ID: created.ID, URL: &url})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Locale == nil || *updated.Locale != "zh-CN" || updated.URL != url {
		t.Fatalf("unexpected update %+v", updated)
	}
	cleared, err := svc.Update(ctx, media.UpdateMediaRequest{ID: created.ID, ClearLocale: true})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.Locale != nil {
		t.Fatalf("expected locale to be cleared, got %v", *cleared.Locale)
	}
}

func TestDeleteMedia(t *testing.T) {
	storetest.Each(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		svc := media.NewService(st)
		created, err := svc.Upsert(ctx, media.UpsertMediaRequest{OwnerType: "collection", OwnerID: "roguelikes", Type: "icon", URL: "https://cdn.example.com/i.png"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		result, err := svc.Delete(ctx, created.ID, "admin-1")
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if !result.Deleted || result.ID != created.ID {
			t.Fatalf("unexpected result %+v", result)
		}
		_, err = svc.Delete(ctx, created.ID, "admin-1")
		if !errors.Is(err, apperrors.ErrNotFound) || apperrors.CodeOf(err) != apperrors.CodeMediaNotFound {
			t.Fatalf("expected media_not_found, got %v", err)
		}
	})
}

func TestUpdateUnknownMedia(t *testing.T) {
	_, err := media.NewService(store.NewMemoryStore()).Update(context.Background(), media.UpdateMediaRequest{ID: uuid.New()})
	if apperrors.CodeOf(err) != apperrors.CodeMediaNotFound {
		t.Fatalf("expected media_not_found, got %v", err)
	}
}
