package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/pkg/testsupport"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := testsupport.NewSQLiteMemoryDB(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := CreateSchema(ctx, db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("bun", func(t *testing.T) {
		fn(t, NewBunStore(newTestDB(t)))
	})
}

func strPtr(v string) *string { return &v }

func newProduct(id string, slugs map[string]string) *Product {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Product{
		CanonicalID:  id,
		SlugByLocale: slugs,
		TypeTaxonomy: []string{"game"},
		Platforms:    []string{"web"},
		Brand:        strPtr("Acme " + id),
		StoreLinks:   map[string]string{},
		Status:       domain.ProductActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestProductsRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		created, err := s.Products().Create(ctx, newProduct("alpha", map[string]string{"zh-CN": "alpha-zh", "en": "alpha"}))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		fetched, err := s.Products().GetByCanonicalID(ctx, "alpha")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if fetched.ID != created.ID || fetched.SlugByLocale["en"] != "alpha" {
			t.Fatalf("unexpected product %+v", fetched)
		}

		owner, err := s.Products().FindBySlug(ctx, "zh-CN", "alpha-zh")
		if err != nil || owner.CanonicalID != "alpha" {
			t.Fatalf("expected slug owner alpha, got %+v %v", owner, err)
		}

		fetched.SlugByLocale["en"] = "alpha-2"
		if _, err := s.Products().Update(ctx, fetched); err != nil {
			t.Fatalf("update: %v", err)
		}
		if _, err := s.Products().FindBySlug(ctx, "en", "alpha"); !IsNotFound(err) {
			t.Fatalf("expected old slug to be released, got %v", err)
		}

		if err := s.Products().Delete(ctx, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Products().GetByCanonicalID(ctx, "alpha"); !IsNotFound(err) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
		if _, err := s.Products().FindBySlug(ctx, "zh-CN", "alpha-zh"); !IsNotFound(err) {
			t.Fatalf("expected slug index cleared, got %v", err)
		}
	})
}

func TestProductsList(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i, id := range []string{"alpha", "beta", "gamma"} {
			p := newProduct(id, map[string]string{"en": id})
			p.UpdatedAt = p.UpdatedAt.Add(time.Duration(i) * time.Minute)
			if id == "gamma" {
				p.Status = domain.ProductArchived
				p.TypeTaxonomy = []string{"ai"}
			}
			if _, err := s.Products().Create(ctx, p); err != nil {
				t.Fatalf("create %s: %v", id, err)
			}
		}

		items, total, err := s.Products().List(ctx, ProductFilter{Status: domain.ProductActive, Page: 1, PageSize: 1})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 2 || len(items) != 1 || items[0].CanonicalID != "beta" {
			t.Fatalf("unexpected page total=%d items=%v", total, items)
		}

		items, total, err = s.Products().List(ctx, ProductFilter{Type: "ai"})
		if err != nil || total != 1 || items[0].CanonicalID != "gamma" {
			t.Fatalf("expected type filter to match gamma, got %v %d %v", items, total, err)
		}

		items, _, err = s.Products().List(ctx, ProductFilter{Search: "ACME AL"})
		if err != nil || len(items) != 1 || items[0].CanonicalID != "alpha" {
			t.Fatalf("expected brand search to match alpha, got %v %v", items, err)
		}
	})
}

func TestDocsRevisionPerRow(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		draft := DocKey{Kind: domain.KindProductDoc, Key: "alpha", Locale: "en", State: domain.StateDraft}
		published := draft
		published.State = domain.StatePublished

		for i := 1; i <= 3; i++ {
			doc, err := s.Docs().Upsert(ctx, UpsertDocParams{Key: draft, Content: map[string]any{"n": i}, ActorID: "u1"})
			if err != nil {
				t.Fatalf("upsert %d: %v", i, err)
			}
			if doc.Revision != i {
				t.Fatalf("expected revision %d, got %d", i, doc.Revision)
			}
		}
		pub, err := s.Docs().Upsert(ctx, UpsertDocParams{Key: published, Content: map[string]any{"n": 3}, ActorID: "u2"})
		if err != nil {
			t.Fatalf("publish upsert: %v", err)
		}
		if pub.Revision != 1 {
			t.Fatalf("expected published revision 1, got %d", pub.Revision)
		}

		got, err := s.Docs().Get(ctx, draft)
		if err != nil {
			t.Fatalf("get draft: %v", err)
		}
		if got.Revision != 3 || got.CreatedBy != "u1" {
			t.Fatalf("unexpected draft %+v", got)
		}
		if diff := cmp.Diff(map[string]any{"n": float64(3)}, normalizeNumbers(got.Content)); diff != "" {
			t.Fatalf("unexpected content (-want +got):\n%s", diff)
		}

		docs, err := s.Docs().ListByOwner(ctx, domain.KindProductDoc, "alpha")
		if err != nil || len(docs) != 2 {
			t.Fatalf("expected two rows, got %d %v", len(docs), err)
		}
	})
}

func TestDocsExpectedRevision(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		key := DocKey{Kind: domain.KindHomepage, Key: domain.HomepageKey, Locale: "en", State: domain.StateDraft}
		zero := 0
		if _, err := s.Docs().Upsert(ctx, UpsertDocParams{Key: key, Content: map[string]any{}, ExpectedRevision: &zero}); err != nil {
			t.Fatalf("create with expected 0: %v", err)
		}
		stale := 0
		_, err := s.Docs().Upsert(ctx, UpsertDocParams{Key: key, Content: map[string]any{}, ExpectedRevision: &stale})
		if !errors.Is(err, apperrors.ErrStaleWrite) {
			t.Fatalf("expected stale write, got %v", err)
		}
		one := 1
		doc, err := s.Docs().Upsert(ctx, UpsertDocParams{Key: key, Content: map[string]any{}, ExpectedRevision: &one})
		if err != nil || doc.Revision != 2 {
			t.Fatalf("expected revision 2, got %+v %v", doc, err)
		}
	})
}

func TestRunInTxRollsBack(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		boom := errors.New("boom")
		err := s.RunInTx(ctx, func(ctx context.Context, tx Store) error {
			if _, err := tx.Products().Create(ctx, newProduct("alpha", map[string]string{"en": "alpha"})); err != nil {
				return err
			}
			if err := tx.Audit().Append(ctx, &AuditEntry{Action: "x", EntityType: "product", EntityID: "alpha", Diff: map[string]any{}, CreatedAt: time.Now()}); err != nil {
				return err
			}
			return tx.RunInTx(ctx, func(ctx context.Context, nested Store) error {
				return boom
			})
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := s.Products().GetByCanonicalID(ctx, "alpha"); !IsNotFound(err) {
			t.Fatalf("expected rollback of product, got %v", err)
		}
		entries, err := s.Audit().List(ctx, AuditFilter{Limit: 10})
		if err != nil || len(entries) != 0 {
			t.Fatalf("expected rollback of audit, got %d %v", len(entries), err)
		}
	})
}

func TestMediaOwnership(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC()
		for i := 0; i < 2; i++ {
			if _, err := s.Media().Create(ctx, &MediaAsset{OwnerType: domain.MediaOwnerProduct, OwnerID: "alpha", Type: domain.MediaImage, URL: fmt.Sprintf("https://cdn/%d.png", i), CreatedAt: now.Add(time.Duration(i) * time.Second), UpdatedAt: now}); err != nil {
				t.Fatalf("create media: %v", err)
			}
		}
		other, err := s.Media().Create(ctx, &MediaAsset{OwnerType: domain.MediaOwnerProduct, OwnerID: "beta", Locale: strPtr("en"), Type: domain.MediaIcon, URL: "https://cdn/b.png", CreatedAt: now, UpdatedAt: now})
		if err != nil {
			t.Fatalf("create media: %v", err)
		}

		deleted, err := s.Media().DeleteByOwner(ctx, domain.MediaOwnerProduct, "alpha")
		if err != nil || deleted != 2 {
			t.Fatalf("expected two deletions, got %d %v", deleted, err)
		}
		remaining, err := s.Media().ListByOwner(ctx, domain.MediaOwnerProduct, "beta")
		if err != nil || len(remaining) != 1 || remaining[0].ID != other.ID {
			t.Fatalf("unexpected remaining media %v %v", remaining, err)
		}
		if err := s.Media().Delete(ctx, other.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Media().Get(ctx, other.ID); !IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestRedirectsPointAtCurrentPath(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC()
		steps := [][2]string{
			{"/en/products/a", "/en/products/b"},
			{"/en/products/b", "/en/products/c"},
		}
		for _, step := range steps {
			if _, err := s.Redirects().Upsert(ctx, "en", step[0], step[1], now); err != nil {
				t.Fatalf("upsert: %v", err)
			}
		}
		row, err := s.Redirects().Resolve(ctx, "en", "/en/products/a")
		if err != nil || row.ToPath != "/en/products/c" {
			t.Fatalf("expected a to resolve to c, got %+v %v", row, err)
		}

		if _, err := s.Redirects().Upsert(ctx, "en", "/en/products/c", "/en/products/a", now); err != nil {
			t.Fatalf("upsert back: %v", err)
		}
		if _, err := s.Redirects().Resolve(ctx, "en", "/en/products/a"); !IsNotFound(err) {
			t.Fatalf("expected current path a to stop redirecting, got %v", err)
		}
		row, err = s.Redirects().Resolve(ctx, "en", "/en/products/b")
		if err != nil || row.ToPath != "/en/products/a" {
			t.Fatalf("expected b to resolve to a, got %+v %v", row, err)
		}
		rows, err := s.Redirects().List(ctx, "en")
		if err != nil || len(rows) != 3 {
			t.Fatalf("expected three rows kept, got %d %v", len(rows), err)
		}
	})
}

func TestAuditListNewestFirst(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, action := range []string{"product.create", "product.patch", "media.create"} {
			entry := &AuditEntry{Action: action, EntityType: "product", EntityID: "alpha", Diff: map[string]any{}, CreatedAt: base.Add(time.Duration(i) * time.Second)}
			if action == "media.create" {
				entry.EntityType = "media"
			}
			if err := s.Audit().Append(ctx, entry); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
		entries, err := s.Audit().List(ctx, AuditFilter{Limit: 2})
		if err != nil || len(entries) != 2 {
			t.Fatalf("expected two entries, got %d %v", len(entries), err)
		}
		if entries[0].Action != "media.create" || entries[1].Action != "product.patch" {
			t.Fatalf("unexpected order %s, %s", entries[0].Action, entries[1].Action)
		}
		entries, err = s.Audit().List(ctx, AuditFilter{EntityType: "product", Limit: 10})
		if err != nil || len(entries) != 2 {
			t.Fatalf("expected two product entries, got %d %v", len(entries), err)
		}
	})
}

func normalizeNumbers(m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		if n, ok := v.(int); ok {
			out[k] = float64(n)
			continue
		}
		out[k] = v
	}
	return out
}

func TestOpenSQLiteAppliesSchema(t *testing.T) {
	db, err := Open("sqlite3", "file:open_schema_test?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := CreateSchema(ctx, db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if n, err := db.NewSelect().Model((*Product)(nil)).Count(ctx); err != nil || n != 0 {
		t.Fatalf("expected empty products table, got %d %v", n, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mongo", "mongodb://localhost"); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := Open("postgres", " "); err == nil {
		t.Fatal("expected missing dsn error")
	}
}

func TestInsertDocConflictKeepsTransactionUsable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	key := DocKey{Kind: domain.KindHomepage, Key: domain.HomepageKey, Locale: "en", State: domain.StateDraft}
	params := UpsertDocParams{Key: key, Content: map[string]any{"hero": "first"}, Now: time.Now().UTC()}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		first, err := insertDoc(ctx, tx, buildDoc(docID(key), params, nil))
		if err != nil || !first {
			t.Fatalf("first insert: inserted=%v err=%v", first, err)
		}
		again, err := insertDoc(ctx, tx, buildDoc(docID(key), params, nil))
		if err != nil || again {
			t.Fatalf("expected a silent conflict, got inserted=%v err=%v", again, err)
		}
		existing, err := selectDoc(ctx, tx, docID(key))
		if err != nil || existing == nil || existing.Revision != 1 {
			t.Fatalf("expected the first row to survive, got %+v (%v)", existing, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestAfterCommitRunsOnlyOnCommit(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var ran []string
		failed := errors.New("rolled back")

		err := s.RunInTx(ctx, func(ctx context.Context, tx Store) error {
			return tx.RunInTx(ctx, func(ctx context.Context, _ Store) error {
				AfterCommit(ctx, func() { ran = append(ran, "rollback") })
				return failed
			})
		})
		if !errors.Is(err, failed) || len(ran) != 0 {
			t.Fatalf("expected hook to be dropped, got %v (%v)", ran, err)
		}

		err = s.RunInTx(ctx, func(ctx context.Context, tx Store) error {
			AfterCommit(ctx, func() { ran = append(ran, "outer") })
			return tx.RunInTx(ctx, func(ctx context.Context, _ Store) error {
				AfterCommit(ctx, func() { ran = append(ran, "nested") })
				if len(ran) != 0 {
					t.Fatal("hook ran before commit")
				}
				return nil
			})
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		if diff := cmp.Diff([]string{"outer", "nested"}, ran); diff != "" {
			t.Fatalf("hooks mismatch (-want +got):\n%s", diff)
		}

		AfterCommit(ctx, func() { ran = append(ran, "direct") })
		if ran[len(ran)-1] != "direct" {
			t.Fatal("expected hook outside a transaction to run immediately")
		}
	})
}
