// Package catalog is the multilingual game catalog core: products, localized
// documents with draft and published states, slug reclamation, redirects,
// batch ingest and an append-only audit log.
package catalog

import (
	"context"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/batch"
	"github.com/goliatone/go-catalog/internal/di"
	"github.com/goliatone/go-catalog/internal/docs"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// ProductService exports the product service contract.
type ProductService = products.Service

// DocsService exports the localized document service contract.
type DocsService = docs.Service

// MediaService exports the media service contract.
type MediaService = media.Service

// BatchService exports the batch validate/upsert contract.
type BatchService = batch.Service

type (
	Product    = store.Product
	Doc        = store.Doc
	MediaAsset = store.MediaAsset
	Redirect   = store.Redirect
	AuditEntry = store.AuditEntry
	AuditQuery = store.AuditFilter

	Role       = domain.Role
	EntityKind = domain.EntityKind

	Error = apperrors.Error
)

const (
	RoleViewer = domain.RoleViewer
	RoleEditor = domain.RoleEditor
	RoleAdmin  = domain.RoleAdmin
)

// Error kinds, matched with errors.Is.
var (
	ErrNotFound      = apperrors.ErrNotFound
	ErrConflict      = apperrors.ErrConflict
	ErrAuthorization = apperrors.ErrAuthorization
	ErrValidation    = apperrors.ErrValidation
	ErrInvariant     = apperrors.ErrInvariant
	ErrStaleWrite    = apperrors.ErrStaleWrite
)

// HTTPStatus maps a catalog error to the status a presentation layer should send.
func HTTPStatus(err error) int {
	return apperrors.HTTPStatus(err)
}

// Option customises the module's container.
type Option = di.Option

// WithBunDB backs the module with a SQL database. The schema must exist.
func WithBunDB(db *bun.DB) Option {
	return di.WithBunDB(db)
}

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithActivitySink mirrors audit entries into a go-users activity sink.
// Requires Features.ActivityFeed.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return di.WithActivitySink(sink)
}

func WithClock(clock func() time.Time) Option {
	return di.WithClock(clock)
}

// WithCache caches product reads on the bun store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return di.WithCache(service, serializer)
}

// Module represents the top level catalog runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a catalog module using the provided configuration and optional overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Close releases storage opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// EnsureSchema creates the SQL schema for bun backed modules.
func (m *Module) EnsureSchema(ctx context.Context) error {
	return m.container.EnsureSchema(ctx)
}

// Products returns the configured product service.
func (m *Module) Products() ProductService {
	return m.container.ProductService()
}

// Docs returns the configured document service.
func (m *Module) Docs() DocsService {
	return m.container.DocsService()
}

// Media returns the configured media service.
func (m *Module) Media() MediaService {
	return m.container.MediaService()
}

// Batch returns the configured batch service.
func (m *Module) Batch() BatchService {
	return m.container.BatchService()
}

// Locales lists the supported locales, default first when configured so.
func (m *Module) Locales() []string {
	return m.container.Locales().Supported()
}

// Audit lists audit entries newest first. The limit defaults to
// Audit.ListLimitDefault and is capped at Audit.ListLimitMax.
func (m *Module) Audit(ctx context.Context, query AuditQuery) ([]*AuditEntry, error) {
	cfg := m.container.Config.Audit
	switch {
	case query.Limit <= 0:
		query.Limit = cfg.ListLimitDefault
	case query.Limit > cfg.ListLimitMax:
		query.Limit = cfg.ListLimitMax
	}
	return m.container.AuditLog().List(ctx, query)
}

// ResolveRedirect returns the current path for an old public path. A nil
// redirect without error means the path is not redirected.
func (m *Module) ResolveRedirect(ctx context.Context, locale, path string) (*Redirect, error) {
	canonical, ok := m.container.Locales().Resolve(locale)
	if !ok {
		return nil, nil
	}
	redirect, err := m.container.Store().Redirects().Resolve(ctx, canonical, path)
	if store.IsNotFound(err) {
		return nil, nil
	}
	return redirect, err
}

// Redirects lists every redirect recorded for locale.
func (m *Module) Redirects(ctx context.Context, locale string) ([]*Redirect, error) {
	canonical, ok := m.container.Locales().Resolve(locale)
	if !ok {
		return nil, apperrors.Validation("locale_unsupported")
	}
	return m.container.Store().Redirects().List(ctx, canonical)
}

// ProductURL renders the absolute public URL of a product slug against
// Routes.BaseURL.
func (m *Module) ProductURL(locale, slug string) (string, error) {
	canonical, ok := m.container.Locales().Resolve(locale)
	if !ok {
		return "", apperrors.Validation("locale_unsupported")
	}
	return m.container.Routes().URL(locales.RouteProduct, canonical, slug)
}

// ProductPath builds the public path of a product slug.
func ProductPath(locale, slug string) (string, error) {
	return locales.ProductPath(locale, slug)
}
