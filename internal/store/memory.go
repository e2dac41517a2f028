package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/identity"
)

// MemoryStore is an in-process Store used by tests and the memory driver.
type MemoryStore struct {
	state *memoryState
	inTx  bool
}

type memoryState struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products  map[uuid.UUID]*Product
	docs      map[uuid.UUID]*Doc
	media     map[uuid.UUID]*MediaAsset
	redirects map[uuid.UUID]*Redirect
	audit     []*AuditEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		products:  map[uuid.UUID]*Product{},
		docs:      map[uuid.UUID]*Doc{},
		media:     map[uuid.UUID]*MediaAsset{},
		redirects: map[uuid.UUID]*Redirect{},
	}}
}

func (s *MemoryStore) Products() ProductRepository   { return memoryProducts{s.state} }
func (s *MemoryStore) Docs() DocRepository           { return memoryDocs{s.state} }
func (s *MemoryStore) Media() MediaRepository        { return memoryMedia{s.state} }
func (s *MemoryStore) Redirects() RedirectRepository { return memoryRedirects{s.state} }
func (s *MemoryStore) Audit() AuditRepository        { return memoryAudit{s.state} }

// RunInTx serialises transactions and restores a snapshot when fn fails.
// AfterCommit hooks run once the lock is released.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	ctx, hooks := withCommitHooks(ctx)
	if err := s.runLocked(ctx, fn); err != nil {
		return err
	}
	hooks.run()
	return nil
}

func (s *MemoryStore) runLocked(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.state.txMu.Lock()
	defer s.state.txMu.Unlock()

	snapshot := s.state.snapshot()
	if err := fn(ctx, &MemoryStore{state: s.state, inTx: true}); err != nil {
		s.state.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	products  map[uuid.UUID]*Product
	docs      map[uuid.UUID]*Doc
	media     map[uuid.UUID]*MediaAsset
	redirects map[uuid.UUID]*Redirect
	audit     []*AuditEntry
}

func (st *memoryState) snapshot() memorySnapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	snap := memorySnapshot{
		products:  make(map[uuid.UUID]*Product, len(st.products)),
		docs:      make(map[uuid.UUID]*Doc, len(st.docs)),
		media:     make(map[uuid.UUID]*MediaAsset, len(st.media)),
		redirects: make(map[uuid.UUID]*Redirect, len(st.redirects)),
		audit:     append([]*AuditEntry(nil), st.audit...),
	}
	for k, v := range st.products {
		snap.products[k] = v
	}
	for k, v := range st.docs {
		snap.docs[k] = v
	}
	for k, v := range st.media {
		snap.media[k] = v
	}
	for k, v := range st.redirects {
		snap.redirects[k] = v
	}
	return snap
}

// restore swaps the maps back. Stored values are never mutated in place, so
// the shallow snapshot is sufficient.
func (st *memoryState) restore(snap memorySnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.products = snap.products
	st.docs = snap.docs
	st.media = snap.media
	st.redirects = snap.redirects
	st.audit = snap.audit
}

type memoryProducts struct{ st *memoryState }

func (r memoryProducts) Create(_ context.Context, product *Product) (*Product, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = identity.ProductUUID(product.CanonicalID)
	}
	for _, existing := range r.st.products {
		if existing.CanonicalID == product.CanonicalID || existing.ID == product.ID {
			return nil, apperrors.CanonicalIDConflict(product.CanonicalID)
		}
	}
	if err := r.checkSlugs(product); err != nil {
		return nil, err
	}
	r.st.products[product.ID] = cloneProduct(product)
	return cloneProduct(product), nil
}

func (r memoryProducts) Update(_ context.Context, product *Product) (*Product, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.products[product.ID]; !ok {
		return nil, notFound("product", product.CanonicalID)
	}
	if err := r.checkSlugs(product); err != nil {
		return nil, err
	}
	r.st.products[product.ID] = cloneProduct(product)
	return cloneProduct(product), nil
}

// checkSlugs mirrors the unique (locale, slug) index of the SQL schema.
func (r memoryProducts) checkSlugs(product *Product) error {
	for locale, slug := range product.SlugByLocale {
		if slug == "" {
			continue
		}
		for _, other := range r.st.products {
			if other.ID != product.ID && other.SlugByLocale[locale] == slug {
				return &SlugIndexError{Locale: locale, Slug: slug}
			}
		}
	}
	return nil
}

func (r memoryProducts) GetByCanonicalID(_ context.Context, canonicalID string) (*Product, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	for _, product := range r.st.products {
		if product.CanonicalID == canonicalID {
			return cloneProduct(product), nil
		}
	}
	return nil, notFound("product", canonicalID)
}

func (r memoryProducts) FindBySlug(_ context.Context, locale, slug string) (*Product, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	for _, product := range r.st.products {
		if value, ok := product.SlugByLocale[locale]; ok && value != "" && value == slug {
			return cloneProduct(product), nil
		}
	}
	return nil, notFound("product_slug", locale+":"+slug)
}

func (r memoryProducts) List(_ context.Context, filter ProductFilter) ([]*Product, int, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]*Product, 0, len(r.st.products))
	for _, product := range r.st.products {
		if filter.Status != "" && product.Status != filter.Status {
			continue
		}
		if filter.Type != "" && !containsString(product.TypeTaxonomy, filter.Type) {
			continue
		}
		if search != "" && !productMatches(product, search) {
			continue
		}
		matched = append(matched, product)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].CanonicalID < matched[j].CanonicalID
	})
	total := len(matched)
	limit, offset := filter.limitOffset()
	if offset >= total {
		return []*Product{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*Product, 0, end-offset)
	for _, product := range matched[offset:end] {
		out = append(out, cloneProduct(product))
	}
	return out, total, nil
}

func (r memoryProducts) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.products[id]; !ok {
		return notFound("product", id.String())
	}
	delete(r.st.products, id)
	return nil
}

func productMatches(product *Product, search string) bool {
	candidates := []string{product.CanonicalID}
	if product.Brand != nil {
		candidates = append(candidates, *product.Brand)
	}
	if product.Developer != nil {
		candidates = append(candidates, *product.Developer)
	}
	for _, candidate := range candidates {
		if strings.Contains(strings.ToLower(candidate), search) {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type memoryDocs struct{ st *memoryState }

func (r memoryDocs) Get(_ context.Context, key DocKey) (*Doc, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	doc, ok := r.st.docs[docID(key)]
	if !ok {
		return nil, notFound(string(key.Kind), docKeyString(key))
	}
	return cloneDoc(doc), nil
}

func (r memoryDocs) Upsert(_ context.Context, params UpsertDocParams) (*Doc, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	id := docID(params.Key)
	existing := r.st.docs[id]
	current := 0
	if existing != nil {
		current = existing.Revision
	}
	if params.ExpectedRevision != nil && *params.ExpectedRevision != current {
		return nil, apperrors.StaleWrite(*params.ExpectedRevision, current)
	}
	doc := buildDoc(id, params, existing)
	r.st.docs[id] = doc
	return cloneDoc(doc), nil
}

func (r memoryDocs) ListByOwner(_ context.Context, kind domain.EntityKind, key string) ([]*Doc, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := []*Doc{}
	for _, doc := range r.st.docs {
		if doc.Kind == kind && doc.Key == key {
			out = append(out, cloneDoc(doc))
		}
	}
	sortDocs(out)
	return out, nil
}

func (r memoryDocs) ListByKind(_ context.Context, kind domain.EntityKind, locale string) ([]*Doc, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := []*Doc{}
	for _, doc := range r.st.docs {
		if doc.Kind == kind && (locale == "" || doc.Locale == locale) {
			out = append(out, cloneDoc(doc))
		}
	}
	sortDocs(out)
	return out, nil
}

func sortDocs(docs []*Doc) {
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Locale != b.Locale {
			return a.Locale < b.Locale
		}
		return a.State < b.State
	})
}

type memoryMedia struct{ st *memoryState }

func (r memoryMedia) Create(_ context.Context, asset *MediaAsset) (*MediaAsset, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	r.st.media[asset.ID] = cloneMedia(asset)
	return cloneMedia(asset), nil
}

func (r memoryMedia) Update(_ context.Context, asset *MediaAsset) (*MediaAsset, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.media[asset.ID]; !ok {
		return nil, notFound("media", asset.ID.String())
	}
	r.st.media[asset.ID] = cloneMedia(asset)
	return cloneMedia(asset), nil
}

func (r memoryMedia) Get(_ context.Context, id uuid.UUID) (*MediaAsset, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	asset, ok := r.st.media[id]
	if !ok {
		return nil, notFound("media", id.String())
	}
	return cloneMedia(asset), nil
}

func (r memoryMedia) Delete(_ context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.media[id]; !ok {
		return notFound("media", id.String())
	}
	delete(r.st.media, id)
	return nil
}

func (r memoryMedia) ListByOwner(_ context.Context, ownerType domain.MediaOwnerType, ownerID string) ([]*MediaAsset, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := []*MediaAsset{}
	for _, asset := range r.st.media {
		if asset.OwnerType == ownerType && asset.OwnerID == ownerID {
			out = append(out, cloneMedia(asset))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r memoryMedia) DeleteByOwner(_ context.Context, ownerType domain.MediaOwnerType, ownerID string) (int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	deleted := 0
	for id, asset := range r.st.media {
		if asset.OwnerType == ownerType && asset.OwnerID == ownerID {
			delete(r.st.media, id)
			deleted++
		}
	}
	return deleted, nil
}

type memoryRedirects struct{ st *memoryState }

func (r memoryRedirects) Upsert(_ context.Context, locale, from, to string, now time.Time) (*Redirect, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for id, existing := range r.st.redirects {
		if existing.Locale == locale && existing.ToPath == from && existing.FromPath != from {
			updated := cloneRedirect(existing)
			updated.ToPath = to
			updated.UpdatedAt = now
			r.st.redirects[id] = updated
		}
	}
	id := identity.RedirectUUID(locale, from)
	row := &Redirect{ID: id, Locale: locale, FromPath: from, ToPath: to, CreatedAt: now, UpdatedAt: now}
	if existing, ok := r.st.redirects[id]; ok {
		row.CreatedAt = existing.CreatedAt
	}
	r.st.redirects[id] = row
	return cloneRedirect(row), nil
}

func (r memoryRedirects) Resolve(_ context.Context, locale, path string) (*Redirect, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	row, ok := r.st.redirects[identity.RedirectUUID(locale, path)]
	if !ok || !row.Active() {
		return nil, notFound("redirect", locale+":"+path)
	}
	return cloneRedirect(row), nil
}

func (r memoryRedirects) List(_ context.Context, locale string) ([]*Redirect, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := []*Redirect{}
	for _, row := range r.st.redirects {
		if locale == "" || row.Locale == locale {
			out = append(out, cloneRedirect(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Locale != out[j].Locale {
			return out[i].Locale < out[j].Locale
		}
		return out[i].FromPath < out[j].FromPath
	})
	return out, nil
}

type memoryAudit struct{ st *memoryState }

func (r memoryAudit) Append(_ context.Context, entry *AuditEntry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = identity.SequentialUUID(entry.CreatedAt)
	}
	r.st.audit = append(r.st.audit, cloneAudit(entry))
	return nil
}

func (r memoryAudit) List(_ context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	out := []*AuditEntry{}
	for i := len(r.st.audit) - 1; i >= 0; i-- {
		entry := r.st.audit[i]
		if !filter.matches(entry) {
			continue
		}
		out = append(out, cloneAudit(entry))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (f AuditFilter) matches(entry *AuditEntry) bool {
	if f.EntityType != "" && entry.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && entry.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && entry.Action != f.Action {
		return false
	}
	return true
}
