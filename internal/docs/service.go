// Package docs implements draft editing and the publish engine for
// localized documents.
package docs

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/validation"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	codeLocaleUnsupported = "locale_unsupported"
	codeKeyRequired       = "key_required"
	codeContentInvalid    = "content_schema_invalid"
	codeLeaderboardMode   = "leaderboard_mode_invalid"
	codeCollectionSlugs   = "collection_slug_required"
)

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

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

// WithSchemaValidator checks draft content against the schema of its kind.
// Issues are logged and the content is stored as submitted.
func WithSchemaValidator(v *validation.Validator) ServiceOption {
	return func(s *service) {
		s.validator = v
	}
}

// WithSchemaEnforcement makes schema issues reject the draft with
// content_schema_invalid. Off by default.
func WithSchemaEnforcement(enabled bool) ServiceOption {
	return func(s *service) {
		s.enforceSchemas = enabled
	}
}

// WithRevisionPreconditions toggles honouring ExpectedRevision on drafts.
func WithRevisionPreconditions(enabled bool) ServiceOption {
	return func(s *service) {
		s.preconditions = enabled
	}
}

type service struct {
	store          store.Store
	audit          *audit.Writer
	locales        locales.Set
	routes         *locales.Routes
	validator      *validation.Validator
	enforceSchemas bool
	preconditions  bool
	logger         interfaces.Logger
	now            func() time.Time
}

// NewService constructs the document service on top of st.
func NewService(st store.Store, opts ...ServiceOption) Service {
	s := &service{
		store:         st,
		locales:       locales.DefaultSet(),
		routes:        locales.DefaultRoutes(),
		preconditions: true,
		logger:        logging.NoOp(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.audit == nil {
		s.audit = audit.NewWriter(audit.WithClock(s.now), audit.WithLogger(s.logger))
	}
	return s
}

func (s *service) GetDocPair(ctx context.Context, kind domain.EntityKind, key, locale string) (*DocPair, error) {
	if !kind.Localized() {
		return nil, apperrors.InvalidEntityType(string(kind))
	}
	if kind == domain.KindHomepage {
		key = domain.HomepageKey
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.Validation(codeKeyRequired)
	}
	resolved, err := s.resolveLocale(locale)
	if err != nil {
		return nil, err
	}
	pair := &DocPair{}
	if pair.Draft, err = getDoc(ctx, s.store, docKey(kind, key, resolved, domain.StateDraft)); err != nil {
		return nil, err
	}
	if pair.Published, err = getDoc(ctx, s.store, docKey(kind, key, resolved, domain.StatePublished)); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *service) resolveLocale(locale string) (string, error) {
	resolved, ok := s.locales.Resolve(locale)
	if !ok {
		return "", apperrors.Validation(codeLocaleUnsupported)
	}
	return resolved, nil
}

func requireEditor(role domain.Role) error {
	if !domain.HasRole(role, domain.RoleEditor) {
		return apperrors.Forbidden("editor role required")
	}
	return nil
}

func docKey(kind domain.EntityKind, key, locale string, state domain.DocState) store.DocKey {
	return store.DocKey{Kind: kind, Key: key, Locale: locale, State: state}
}

// getDoc returns nil without error when the row does not exist.
func getDoc(ctx context.Context, st store.Store, key store.DocKey) (*store.Doc, error) {
	doc, err := st.Docs().Get(ctx, key)
	if store.IsNotFound(err) {
		return nil, nil
	}
	return doc, err
}

func requireProduct(ctx context.Context, st store.Store, canonicalID string) error {
	_, err := st.Products().GetByCanonicalID(ctx, canonicalID)
	if store.IsNotFound(err) {
		return apperrors.ProductNotFound(canonicalID)
	}
	return err
}

// snapshot keeps audit diffs stable when a row is absent.
func snapshot(doc *store.Doc) any {
	if doc == nil {
		return nil
	}
	return doc
}
