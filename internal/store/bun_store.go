package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/identity"
)

const (
	productNamespace  = "product"
	maxUpsertAttempts = 3
)

var errConcurrentWrite = errors.New("store: concurrent write detected")

// BunStore implements Store on top of a bun database.
type BunStore struct {
	root *bun.DB
	db   bun.IDB
	inTx bool

	productRepo  repository.Repository[*Product]
	productReads repository.Repository[*Product]
	auditRepo    repository.Repository[*AuditEntry]

	cacheService cache.CacheService
	cachePrefix  string
}

var _ Store = (*BunStore)(nil)

// BunOption configures a BunStore.
type BunOption func(*BunStore)

// WithCache wraps product reads with go-repository-cache.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) BunOption {
	return func(s *BunStore) {
		if service == nil || serializer == nil {
			return
		}
		s.productReads = repositorycache.New(s.productRepo, service, serializer)
		s.cacheService = service
		s.cachePrefix = productNamespace + cache.KeySeparator
	}
}

// NewBunStore builds a store on db. The schema must exist; see CreateSchema.
func NewBunStore(db *bun.DB, opts ...BunOption) *BunStore {
	s := &BunStore{
		root:        db,
		db:          db,
		productRepo: newProductRepository(db),
		auditRepo:   newAuditRepository(db),
	}
	s.productReads = s.productRepo
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *BunStore) Products() ProductRepository   { return bunProducts{s} }
func (s *BunStore) Docs() DocRepository           { return bunDocs{s} }
func (s *BunStore) Media() MediaRepository        { return bunMedia{s} }
func (s *BunStore) Redirects() RedirectRepository { return bunRedirects{s} }
func (s *BunStore) Audit() AuditRepository        { return bunAudit{s} }

// RunInTx opens a database transaction unless one is already active.
func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	ctx, hooks := withCommitHooks(ctx)
	err := s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, s.withTx(tx))
	})
	if err != nil {
		return err
	}
	if err := s.invalidate(ctx); err != nil {
		return err
	}
	hooks.run()
	return nil
}

func (s *BunStore) withTx(tx bun.Tx) *BunStore {
	copied := *s
	copied.db = tx
	copied.inTx = true
	return &copied
}

// exec runs fn inside the active transaction or a new one.
func (s *BunStore) exec(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.inTx {
		return fn(ctx, s.db)
	}
	err := s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		return err
	}
	return s.invalidate(ctx)
}

func (s *BunStore) invalidate(ctx context.Context) error {
	if s.cacheService == nil || s.cachePrefix == "" {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}

func newProductRepository(db *bun.DB) repository.Repository[*Product] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(p *Product) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Product, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "canonical_id"
		},
		GetIdentifierValue: func(p *Product) string {
			return p.CanonicalID
		},
	})
}

func newAuditRepository(db *bun.DB) repository.Repository[*AuditEntry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*AuditEntry]{
		NewRecord: func() *AuditEntry { return &AuditEntry{} },
		GetID: func(a *AuditEntry) uuid.UUID {
			return a.ID
		},
		SetID: func(a *AuditEntry, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "entity_id"
		},
		GetIdentifierValue: func(a *AuditEntry) string {
			return a.EntityID
		},
	})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		return notFound(resource, key)
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

type bunProducts struct{ s *BunStore }

func (r bunProducts) Create(ctx context.Context, product *Product) (*Product, error) {
	if product.ID == uuid.Nil {
		product.ID = identity.ProductUUID(product.CanonicalID)
	}
	record := cloneProduct(product)
	err := r.s.exec(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return replaceSlugs(ctx, db, record)
	})
	if err != nil {
		return nil, err
	}
	return cloneProduct(record), nil
}

func (r bunProducts) Update(ctx context.Context, product *Product) (*Product, error) {
	record := cloneProduct(product)
	err := r.s.exec(ctx, func(ctx context.Context, db bun.IDB) error {
		res, err := db.NewUpdate().Model(record).WherePK().Exec(ctx)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return notFound("product", record.CanonicalID)
		}
		return replaceSlugs(ctx, db, record)
	})
	if err != nil {
		return nil, err
	}
	return cloneProduct(record), nil
}

func replaceSlugs(ctx context.Context, db bun.IDB, product *Product) error {
	if _, err := db.NewDelete().
		Model((*ProductSlug)(nil)).
		Where("?TableAlias.product_id = ?", product.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("clear product slugs: %w", err)
	}
	rows := make([]*ProductSlug, 0, len(product.SlugByLocale))
	for locale, slug := range product.SlugByLocale {
		if strings.TrimSpace(slug) == "" {
			continue
		}
		rows = append(rows, &ProductSlug{
			ID:        identity.SlugUUID(locale, slug),
			ProductID: product.ID,
			Locale:    locale,
			Slug:      slug,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("index product slugs: %w", err)
	}
	return nil
}

func (r bunProducts) GetByCanonicalID(ctx context.Context, canonicalID string) (*Product, error) {
	if !r.s.inTx {
		record, err := r.s.productReads.GetByIdentifier(ctx, canonicalID)
		if err != nil {
			return nil, mapRepositoryError(err, "product", canonicalID)
		}
		return cloneProduct(record), nil
	}
	record := new(Product)
	err := r.s.db.NewSelect().
		Model(record).
		Where("?TableAlias.canonical_id = ?", canonicalID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "product", canonicalID)
	}
	return record, nil
}

func (r bunProducts) FindBySlug(ctx context.Context, locale, slug string) (*Product, error) {
	record := new(Product)
	err := r.s.db.NewSelect().
		Model(record).
		Join("JOIN product_slugs AS ps ON ps.product_id = ?TableAlias.id").
		Where("ps.locale = ?", locale).
		Where("ps.slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "product_slug", locale+":"+slug)
	}
	return record, nil
}

func (r bunProducts) List(ctx context.Context, filter ProductFilter) ([]*Product, int, error) {
	limit, offset := filter.limitOffset()
	if !r.s.inTx {
		records, total, err := r.s.productRepo.List(ctx,
			repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
				return applyProductFilter(q, filter)
			}),
			repository.SelectPaginate(limit, offset),
		)
		if err != nil {
			return nil, 0, fmt.Errorf("list products: %w", err)
		}
		return records, total, nil
	}
	var records []*Product
	total, err := applyProductFilter(r.s.db.NewSelect().Model(&records), filter).
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return records, total, nil
}

func applyProductFilter(q *bun.SelectQuery, filter ProductFilter) *bun.SelectQuery {
	if filter.Status != "" {
		q = q.Where("?TableAlias.status = ?", filter.Status)
	}
	if tag := strings.TrimSpace(filter.Type); tag != "" {
		q = q.Where("CAST(?TableAlias.type_taxonomy AS TEXT) LIKE ?", "%\""+tag+"\"%")
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.canonical_id) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.brand) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.developer) LIKE ?", pattern)
		})
	}
	return q.OrderExpr("?TableAlias.updated_at DESC").OrderExpr("?TableAlias.canonical_id ASC")
}

func (r bunProducts) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.exec(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewDelete().
			Model((*ProductSlug)(nil)).
			Where("?TableAlias.product_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete product slugs: %w", err)
		}
		res, err := db.NewDelete().Model(&Product{ID: id}).WherePK().Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return notFound("product", id.String())
		}
		return nil
	})
}

type bunDocs struct{ s *BunStore }

func (r bunDocs) Get(ctx context.Context, key DocKey) (*Doc, error) {
	doc, err := selectDoc(ctx, r.s.db, docID(key))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound(string(key.Kind), docKeyString(key))
	}
	return doc, nil
}

func selectDoc(ctx context.Context, db bun.IDB, id uuid.UUID) (*Doc, error) {
	doc := new(Doc)
	err := db.NewSelect().Model(doc).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select doc: %w", err)
	}
	return doc, nil
}

// insertDoc writes a new row and reports false when another writer created
// it first. The conflict does not abort an open postgres transaction.
func insertDoc(ctx context.Context, db bun.IDB, doc *Doc) (bool, error) {
	res, err := db.NewInsert().Model(doc).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert doc: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert doc: %w", err)
	}
	return affected == 1, nil
}

// Upsert reads the row and writes it back guarded by the revision it read,
// retrying when a concurrent writer got there first. With ExpectedRevision
// set a lost race surfaces as stale_write instead.
func (r bunDocs) Upsert(ctx context.Context, params UpsertDocParams) (*Doc, error) {
	id := docID(params.Key)
	var out *Doc
	err := r.s.exec(ctx, func(ctx context.Context, db bun.IDB) error {
		lastErr := errConcurrentWrite
		for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
			existing, err := selectDoc(ctx, db, id)
			if err != nil {
				return err
			}
			current := 0
			if existing != nil {
				current = existing.Revision
			}
			if params.ExpectedRevision != nil && *params.ExpectedRevision != current {
				return apperrors.StaleWrite(*params.ExpectedRevision, current)
			}

			doc := buildDoc(id, params, existing)
			if existing == nil {
				inserted, err := insertDoc(ctx, db, doc)
				if err != nil {
					return err
				}
				if inserted {
					out = doc
					return nil
				}
				lastErr = errConcurrentWrite
				continue
			}

			res, err := db.NewUpdate().
				Model(doc).
				Column("content", "locked_fields", "mode", "slug_by_locale", "revision", "published_at", "updated_by", "updated_at").
				WherePK().
				Where("revision = ?", existing.Revision).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update doc: %w", err)
			}
			if affected, _ := res.RowsAffected(); affected == 1 {
				out = doc
				return nil
			}
			lastErr = errConcurrentWrite
		}
		return fmt.Errorf("upsert doc %s: %w", docKeyString(params.Key), lastErr)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r bunDocs) ListByOwner(ctx context.Context, kind domain.EntityKind, key string) ([]*Doc, error) {
	var docs []*Doc
	err := r.s.db.NewSelect().
		Model(&docs).
		Where("?TableAlias.kind = ?", kind).
		Where("?TableAlias.owner_key = ?", key).
		OrderExpr("?TableAlias.locale ASC, ?TableAlias.state ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	return docs, nil
}

func (r bunDocs) ListByKind(ctx context.Context, kind domain.EntityKind, locale string) ([]*Doc, error) {
	var docs []*Doc
	q := r.s.db.NewSelect().Model(&docs).Where("?TableAlias.kind = ?", kind)
	if locale != "" {
		q = q.Where("?TableAlias.locale = ?", locale)
	}
	if err := q.OrderExpr("?TableAlias.owner_key ASC, ?TableAlias.locale ASC, ?TableAlias.state ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	return docs, nil
}

type bunMedia struct{ s *BunStore }

func (r bunMedia) Create(ctx context.Context, asset *MediaAsset) (*MediaAsset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	record := cloneMedia(asset)
	if _, err := r.s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert media: %w", err)
	}
	return cloneMedia(record), nil
}

func (r bunMedia) Update(ctx context.Context, asset *MediaAsset) (*MediaAsset, error) {
	record := cloneMedia(asset)
	res, err := r.s.db.NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update media: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, notFound("media", asset.ID.String())
	}
	return cloneMedia(record), nil
}

func (r bunMedia) Get(ctx context.Context, id uuid.UUID) (*MediaAsset, error) {
	record := new(MediaAsset)
	if err := r.s.db.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
		return nil, mapRepositoryError(err, "media", id.String())
	}
	return record, nil
}

func (r bunMedia) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.s.db.NewDelete().Model(&MediaAsset{ID: id}).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return notFound("media", id.String())
	}
	return nil
}

func (r bunMedia) ListByOwner(ctx context.Context, ownerType domain.MediaOwnerType, ownerID string) ([]*MediaAsset, error) {
	var assets []*MediaAsset
	err := r.s.db.NewSelect().
		Model(&assets).
		Where("?TableAlias.owner_type = ?", ownerType).
		Where("?TableAlias.owner_id = ?", ownerID).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return assets, nil
}

func (r bunMedia) DeleteByOwner(ctx context.Context, ownerType domain.MediaOwnerType, ownerID string) (int, error) {
	res, err := r.s.db.NewDelete().
		Model((*MediaAsset)(nil)).
		Where("?TableAlias.owner_type = ?", ownerType).
		Where("?TableAlias.owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete owner media: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

type bunRedirects struct{ s *BunStore }

func (r bunRedirects) Upsert(ctx context.Context, locale, from, to string, now time.Time) (*Redirect, error) {
	row := &Redirect{
		ID:        identity.RedirectUUID(locale, from),
		Locale:    locale,
		FromPath:  from,
		ToPath:    to,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.s.exec(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewUpdate().
			Model((*Redirect)(nil)).
			Set("to_path = ?", to).
			Set("updated_at = ?", now).
			Where("locale = ?", locale).
			Where("to_path = ?", from).
			Where("from_path <> ?", from).
			Exec(ctx); err != nil {
			return fmt.Errorf("repoint redirects: %w", err)
		}

		existing := new(Redirect)
		err := db.NewSelect().Model(existing).Where("?TableAlias.id = ?", row.ID).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
				return fmt.Errorf("insert redirect: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("select redirect: %w", err)
		}
		row.CreatedAt = existing.CreatedAt
		if _, err := db.NewUpdate().
			Model(row).
			Column("to_path", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update redirect: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cloneRedirect(row), nil
}

func (r bunRedirects) Resolve(ctx context.Context, locale, path string) (*Redirect, error) {
	row := new(Redirect)
	err := r.s.db.NewSelect().
		Model(row).
		Where("?TableAlias.id = ?", identity.RedirectUUID(locale, path)).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "redirect", locale+":"+path)
	}
	if !row.Active() {
		return nil, notFound("redirect", locale+":"+path)
	}
	return row, nil
}

func (r bunRedirects) List(ctx context.Context, locale string) ([]*Redirect, error) {
	var rows []*Redirect
	q := r.s.db.NewSelect().Model(&rows)
	if locale != "" {
		q = q.Where("?TableAlias.locale = ?", locale)
	}
	if err := q.OrderExpr("?TableAlias.locale ASC, ?TableAlias.from_path ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list redirects: %w", err)
	}
	return rows, nil
}

type bunAudit struct{ s *BunStore }

func (r bunAudit) Append(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = identity.SequentialUUID(entry.CreatedAt)
	}
	if _, err := r.s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r bunAudit) List(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	apply := func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.EntityType != "" {
			q = q.Where("?TableAlias.entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != "" {
			q = q.Where("?TableAlias.entity_id = ?", filter.EntityID)
		}
		if filter.Action != "" {
			q = q.Where("?TableAlias.action = ?", filter.Action)
		}
		return q.OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC")
	}
	if !r.s.inTx {
		var (
			records []*AuditEntry
			err     error
		)
		if filter.Limit > 0 {
			records, _, err = r.s.auditRepo.List(ctx,
				repository.SelectRawProcessor(apply),
				repository.SelectPaginate(filter.Limit, 0),
			)
		} else {
			records, _, err = r.s.auditRepo.List(ctx, repository.SelectRawProcessor(apply))
		}
		if err != nil {
			return nil, fmt.Errorf("list audit entries: %w", err)
		}
		return records, nil
	}
	var records []*AuditEntry
	q := apply(r.s.db.NewSelect().Model(&records))
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return records, nil
}
