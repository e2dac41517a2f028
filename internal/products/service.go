// Package products manages canonical product records.
package products

import (
	"context"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/identity"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/slugs"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	ActionCreate  = "product.create"
	ActionPatch   = "product.patch"
	ActionArchive = "product.archive"

	defaultPageSize = 20
	maxPageSize     = 100
	maxCanonicalID  = 128
)

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditWriter(writer *audit.Writer) ServiceOption {
	return func(s *service) {
		if writer != nil {
			s.audit = writer
		}
	}
}

func WithSlugRegistry(registry *slugs.Registry) ServiceOption {
	return func(s *service) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithLocales sets the locales every new product must carry a slug for.
func WithLocales(set locales.Set) ServiceOption {
	return func(s *service) {
		s.locales = set
	}
}

// WithRoutes renders redirect paths through routes.
func WithRoutes(routes *locales.Routes) ServiceOption {
	return func(s *service) {
		if routes != nil {
			s.routes = routes
		}
	}
}

// WithMaxPageSize caps List page sizes.
func WithMaxPageSize(size int) ServiceOption {
	return func(s *service) {
		if size > 0 {
			s.maxPageSize = size
		}
	}
}

type service struct {
	store       store.Store
	audit       *audit.Writer
	registry    *slugs.Registry
	locales     locales.Set
	routes      *locales.Routes
	logger      interfaces.Logger
	now         func() time.Time
	maxPageSize int
}

// NewService constructs the product service on top of st.
func NewService(st store.Store, opts ...ServiceOption) Service {
	s := &service{
		store:       st,
		locales:     locales.DefaultSet(),
		routes:      locales.DefaultRoutes(),
		logger:      logging.NoOp(),
		now:         func() time.Time { return time.Now().UTC() },
		maxPageSize: maxPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.audit == nil {
		s.audit = audit.NewWriter(audit.WithClock(s.now), audit.WithLogger(s.logger))
	}
	if s.registry == nil {
		s.registry = slugs.NewRegistry(slugs.WithAuditWriter(s.audit), slugs.WithClock(s.now), slugs.WithLogger(s.logger))
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*store.Product, error) {
	canonicalID := strings.TrimSpace(req.CanonicalID)
	logger := logging.WithEntity(s.logger, string(domain.KindProduct), canonicalID, "")

	if err := CheckCreate(req, s.locales.Supported()); err != nil {
		return nil, err
	}
	slugByLocale := slugs.Clean(req.SlugByLocale)
	status := domain.ProductActive
	if req.Status != "" {
		status, _ = domain.ParseProductStatus(req.Status)
	}

	now := s.now()
	record := &store.Product{
		ID:           identity.ProductUUID(canonicalID),
		CanonicalID:  canonicalID,
		SlugByLocale: slugByLocale,
		TypeTaxonomy: tags(req.TypeTaxonomy),
		Platforms:    tags(req.Platforms),
		Developer:    optional(req.Developer),
		Publisher:    optional(req.Publisher),
		Brand:        optional(req.Brand),
		StoreLinks:   cloneLinks(req.StoreLinks),
		Status:       status,
		CreatedBy:    req.ActorID,
		UpdatedBy:    req.ActorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var created *store.Product
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Products().GetByCanonicalID(ctx, canonicalID); err == nil {
			return apperrors.CanonicalIDConflict(canonicalID)
		} else if !store.IsNotFound(err) {
			return err
		}
		if err := s.registry.EnsureAvailable(ctx, tx, canonicalID, slugByLocale, req.ActorID); err != nil {
			return err
		}
		var err error
		created, err = tx.Products().Create(ctx, record)
		if err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    req.ActorID,
			Action:     ActionCreate,
			EntityType: string(domain.KindProduct),
			EntityID:   canonicalID,
			After:      created,
		})
		return err
	})
	if err != nil {
		logger.Error("products.create.failed", "error", err)
		return nil, err
	}
	logger.Info("products.create.success")
	return created, nil
}

func (s *service) Patch(ctx context.Context, req PatchProductRequest) (*store.Product, error) {
	canonicalID := strings.TrimSpace(req.CanonicalID)
	logger := logging.WithEntity(s.logger, string(domain.KindProduct), canonicalID, "")
	if canonicalID == "" {
		return nil, apperrors.Validation(codeCanonicalIDRequired)
	}
	if err := validatePatch(req); err != nil {
		return nil, err
	}

	var updated *store.Product
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		existing, err := tx.Products().GetByCanonicalID(ctx, canonicalID)
		if store.IsNotFound(err) {
			return apperrors.ProductNotFound(canonicalID)
		}
		if err != nil {
			return err
		}
		now := s.now()
		next := store.CloneProduct(existing)
		slugChanged := false
		if req.SlugByLocale != nil {
			merged := slugs.Merge(existing.SlugByLocale, req.SlugByLocale)
			if err := slugs.Validate(merged, nil); err != nil {
				return err
			}
			if !slugs.Equal(existing.SlugByLocale, merged) {
				if err := s.registry.EnsureAvailable(ctx, tx, canonicalID, merged, req.ActorID); err != nil {
					return err
				}
				slugChanged = true
			}
			next.SlugByLocale = merged
		}
		applyPatch(next, req)
		next.UpdatedBy = req.ActorID
		next.UpdatedAt = now

		updated, err = tx.Products().Update(ctx, next)
		if err != nil {
			return err
		}
		if slugChanged {
			redirects, err := slugs.ApplyRedirects(ctx, tx.Redirects(), existing.SlugByLocale, updated.SlugByLocale, s.routes.PathFor(locales.RouteProduct), now)
			if err != nil {
				return err
			}
			if len(redirects) > 0 {
				logger.Debug("products.patch.redirects", "count", len(redirects))
			}
		}
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    req.ActorID,
			Action:     ActionPatch,
			EntityType: string(domain.KindProduct),
			EntityID:   canonicalID,
			Before:     existing,
			After:      updated,
		})
		return err
	})
	if err != nil {
		logger.Error("products.patch.failed", "error", err)
		return nil, err
	}
	logger.Info("products.patch.success")
	return updated, nil
}

// Delete archives the product. Archiving an archived product reports
// AlreadyArchived and changes nothing.
func (s *service) Delete(ctx context.Context, canonicalID, actorID string) (*DeleteResult, error) {
	canonicalID = strings.TrimSpace(canonicalID)
	if canonicalID == "" {
		return nil, apperrors.Validation(codeCanonicalIDRequired)
	}
	logger := logging.WithEntity(s.logger, string(domain.KindProduct), canonicalID, "")

	result := &DeleteResult{Deleted: true, Mode: "soft", Status: string(domain.ProductArchived)}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		existing, err := tx.Products().GetByCanonicalID(ctx, canonicalID)
		if store.IsNotFound(err) {
			return apperrors.ProductNotFound(canonicalID)
		}
		if err != nil {
			return err
		}
		if existing.Status == domain.ProductArchived {
			result.AlreadyArchived = true
			result.ArchivedAt = existing.UpdatedAt
			return nil
		}
		next := store.CloneProduct(existing)
		next.Status = domain.ProductArchived
		next.UpdatedBy = actorID
		next.UpdatedAt = s.now()
		archived, err := tx.Products().Update(ctx, next)
		if err != nil {
			return err
		}
		result.ArchivedAt = archived.UpdatedAt
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    actorID,
			Action:     ActionArchive,
			EntityType: string(domain.KindProduct),
			EntityID:   canonicalID,
			Before:     existing,
			After:      archived,
		})
		return err
	})
	if err != nil {
		logger.Error("products.archive.failed", "error", err)
		return nil, err
	}
	logger.Info("products.archive.success", "already_archived", result.AlreadyArchived)
	return result, nil
}

func (s *service) Get(ctx context.Context, canonicalID string) (*store.Product, error) {
	canonicalID = strings.TrimSpace(canonicalID)
	product, err := s.store.Products().GetByCanonicalID(ctx, canonicalID)
	if store.IsNotFound(err) {
		return nil, apperrors.ProductNotFound(canonicalID)
	}
	return product, err
}

func (s *service) List(ctx context.Context, req ListRequest) (*Page, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	switch {
	case size <= 0:
		size = defaultPageSize
	case size > s.maxPageSize:
		size = s.maxPageSize
	}
	filter := store.ProductFilter{
		Search:   strings.TrimSpace(req.Search),
		Type:     strings.TrimSpace(req.Type),
		Page:     page,
		PageSize: size,
	}
	if req.Status != "" {
		status, ok := domain.ParseProductStatus(req.Status)
		if !ok {
			return nil, apperrors.Validation(codeStatusInvalid)
		}
		filter.Status = status
	}
	items, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: size}, nil
}

func applyPatch(next *store.Product, req PatchProductRequest) {
	if req.TypeTaxonomy != nil {
		next.TypeTaxonomy = tags(req.TypeTaxonomy)
	}
	if req.Platforms != nil {
		next.Platforms = tags(req.Platforms)
	}
	if req.Developer != nil {
		next.Developer = optional(*req.Developer)
	}
	if req.Publisher != nil {
		next.Publisher = optional(*req.Publisher)
	}
	if req.Brand != nil {
		next.Brand = optional(*req.Brand)
	}
	if req.StoreLinks != nil {
		next.StoreLinks = cloneLinks(req.StoreLinks)
	}
	if req.Status != nil {
		if status, ok := domain.ParseProductStatus(*req.Status); ok {
			next.Status = status
		}
	}
}

// tags trims, drops blanks and de-duplicates while keeping input order.
func tags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneLinks(links map[string]string) map[string]string {
	out := make(map[string]string, len(links))
	for k, v := range links {
		out[k] = v
	}
	return out
}

const (
	codeCanonicalIDRequired = "canonicalId_required"
	codeCanonicalIDInvalid  = "canonicalId_invalid"
	codeStatusInvalid       = "status_invalid"
)

// CheckCreate runs the checks Create applies before touching the store:
// identifier and status shape, and a valid slug for every supported locale.
func CheckCreate(req CreateProductRequest, supported []string) error {
	if err := validateCreate(req); err != nil {
		return err
	}
	return slugs.Validate(slugs.Clean(req.SlugByLocale), supported)
}

func validateCreate(req CreateProductRequest) error {
	errs := validation.Errors{}
	canonicalID := strings.TrimSpace(req.CanonicalID)
	switch {
	case canonicalID == "":
		errs["canonicalId"] = validation.NewError(codeCanonicalIDRequired, "canonicalId is required")
	case len(canonicalID) > maxCanonicalID || strings.ContainsAny(canonicalID, " /"):
		errs["canonicalId"] = validation.NewError(codeCanonicalIDInvalid, "canonicalId must be a short identifier without spaces or slashes")
	}
	if req.Status != "" {
		if _, ok := domain.ParseProductStatus(req.Status); !ok {
			errs["status"] = validation.NewError(codeStatusInvalid, "status must be active or archived")
		}
	}
	return toAppError(errs)
}

func validatePatch(req PatchProductRequest) error {
	errs := validation.Errors{}
	if req.Status != nil {
		if _, ok := domain.ParseProductStatus(*req.Status); !ok {
			errs["status"] = validation.NewError(codeStatusInvalid, "status must be active or archived")
		}
	}
	return toAppError(errs)
}

// toAppError picks the first failing field, by name, as the error code.
func toAppError(errs validation.Errors) error {
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	first := errs[fields[0]]
	code := first.Error()
	if coded, ok := first.(validation.Error); ok {
		code = coded.Code()
	}
	out := apperrors.Validation(code)
	out.Message = errs.Error()
	return out
}
