package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/docs"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/validation"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	ActionUpsert = "batch.upsert"

	// EntityType recorded on the batch audit row.
	EntityType = "batch"

	codeCanonicalIDRequired  = "canonicalId_required"
	codeCanonicalIDAndLocale = "canonicalId_and_locale_required"
	codeLocaleRequired       = "locale_required"
	codeBoardAndLocale       = "boardId_and_locale_required"
	codeCollectionAndLocale  = "collectionId_and_locale_required"
	codeMediaRequired        = "ownerType_ownerId_type_url_required"
	codeLocaleUnsupported    = "locale_unsupported"
	codeContentInvalid       = "content_invalid"
	codeBoardUnknown         = "leaderboard_board_unknown"
)

type operation int

const (
	opCreate operation = iota
	opUpdate
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
		if len(set.Supported()) > 0 {
			s.locales = set
		}
	}
}

// WithSchemaValidator reports content schema findings as warnings.
func WithSchemaValidator(validator *validation.Validator) ServiceOption {
	return func(s *service) {
		s.schemas = validator
	}
}

// WithTransactionalApply runs the apply loop in one transaction so a failing
// item rolls back the items before it. Enabled by default.
func WithTransactionalApply(enabled bool) ServiceOption {
	return func(s *service) {
		s.transactional = enabled
	}
}

type service struct {
	store         store.Store
	factory       ServiceFactory
	audit         *audit.Writer
	locales       locales.Set
	schemas       *validation.Validator
	transactional bool
	logger        interfaces.Logger
	now           func() time.Time
}

// NewService constructs the batch service. factory builds the delegated
// single-entity services for a given store handle.
func NewService(st store.Store, factory ServiceFactory, opts ...ServiceOption) Service {
	s := &service{
		store:         st,
		factory:       factory,
		locales:       locales.DefaultSet(),
		transactional: true,
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

func (s *service) Validate(ctx context.Context, req Request) (*ValidationResult, error) {
	result := &ValidationResult{
		Errors: []ItemIssue{},
		Stats:  Stats{Total: len(req.Items)},
	}
	kind, ok := domain.ParseEntityKind(req.EntityType)
	if !ok {
		result.Errors = append(result.Errors, ItemIssue{
			Index:   -1,
			Message: apperrors.InvalidEntityType(req.EntityType).Error(),
		})
		return result, nil
	}

	for index, item := range req.Items {
		op, err := s.classify(ctx, kind, req.Locale, item)
		if err != nil {
			if _, ok := apperrors.As(err); !ok {
				return nil, fmt.Errorf("batch validate item %d: %w", index, err)
			}
			result.Errors = append(result.Errors, ItemIssue{Index: index, Message: err.Error()})
			continue
		}
		if op == opUpdate {
			result.Stats.Update++
		} else {
			result.Stats.Create++
		}
		result.Warnings = append(result.Warnings, s.warnings(index, kind, item)...)
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

func (s *service) classify(ctx context.Context, kind domain.EntityKind, fallbackLocale string, item map[string]any) (operation, error) {
	switch kind {
	case domain.KindProduct:
		canonicalID := stringField(item, "canonicalId")
		if canonicalID == "" {
			return opCreate, apperrors.Validation(codeCanonicalIDRequired)
		}
		op, err := existence(s.store.Products().GetByCanonicalID(ctx, canonicalID))
		if err != nil || op == opUpdate {
			return op, err
		}
		var create products.CreateProductRequest
		if err := decodeItem(item, &create); err != nil {
			return opCreate, err
		}
		create.CanonicalID = canonicalID
		return opCreate, products.CheckCreate(create, s.locales.Supported())

	case domain.KindProductDoc:
		canonicalID := stringField(item, "canonicalId")
		locale := itemLocale(item, fallbackLocale)
		if canonicalID == "" || locale == "" {
			return opCreate, apperrors.Validation(codeCanonicalIDAndLocale)
		}
		if _, err := s.store.Products().GetByCanonicalID(ctx, canonicalID); err != nil {
			if store.IsNotFound(err) {
				return opCreate, apperrors.ProductNotFound(canonicalID)
			}
			return opCreate, err
		}
		return s.draftExistence(ctx, kind, canonicalID, locale, item)

	case domain.KindHomepage:
		locale := itemLocale(item, fallbackLocale)
		if locale == "" {
			return opCreate, apperrors.Validation(codeLocaleRequired)
		}
		return s.draftExistence(ctx, kind, domain.HomepageKey, locale, item)

	case domain.KindLeaderboard:
		boardID := stringField(item, "boardId")
		locale := itemLocale(item, fallbackLocale)
		if boardID == "" || locale == "" {
			return opCreate, apperrors.Validation(codeBoardAndLocale)
		}
		if err := docs.CheckLeaderboardMode(stringField(item, "mode")); err != nil {
			return opCreate, err
		}
		return s.draftExistence(ctx, kind, boardID, locale, item)

	case domain.KindCollection:
		collectionID := stringField(item, "collectionId")
		locale := itemLocale(item, fallbackLocale)
		if collectionID == "" || locale == "" {
			return opCreate, apperrors.Validation(codeCollectionAndLocale)
		}
		slugByLocale, err := s.collectionSlugs(item)
		if err != nil {
			return opCreate, err
		}
		if _, err := docs.CheckCollectionSlugs(slugByLocale); err != nil {
			return opCreate, err
		}
		return s.draftExistence(ctx, kind, collectionID, locale, item)

	case domain.KindMedia:
		if stringField(item, "ownerType") == "" || stringField(item, "ownerId") == "" ||
			stringField(item, "type") == "" || stringField(item, "url") == "" {
			return opCreate, apperrors.Validation(codeMediaRequired)
		}
		id, err := uuid.Parse(stringField(item, "id"))
		if err != nil {
			return opCreate, nil
		}
		return existence(s.store.Media().Get(ctx, id))
	}
	return opCreate, apperrors.InvalidEntityType(string(kind))
}

func (s *service) draftExistence(ctx context.Context, kind domain.EntityKind, key, locale string, item map[string]any) (operation, error) {
	resolved, ok := s.locales.Resolve(locale)
	if !ok {
		return opCreate, apperrors.Validation(codeLocaleUnsupported)
	}
	if _, err := contentField(item); err != nil {
		return opCreate, err
	}
	return existence(s.store.Docs().Get(ctx, store.DocKey{
		Kind:   kind,
		Key:    key,
		Locale: resolved,
		State:  domain.StateDraft,
	}))
}

func existence[T any](_ T, err error) (operation, error) {
	if store.IsNotFound(err) {
		return opCreate, nil
	}
	if err != nil {
		return opCreate, err
	}
	return opUpdate, nil
}

func (s *service) warnings(index int, kind domain.EntityKind, item map[string]any) []ItemIssue {
	var out []ItemIssue
	if kind == domain.KindLeaderboard {
		if boardID := stringField(item, "boardId"); !domain.IsKnownBoard(boardID) {
			out = append(out, ItemIssue{Index: index, Message: codeBoardUnknown + ":" + boardID})
		}
	}
	if s.schemas == nil || !kind.Localized() {
		return out
	}
	content, _ := contentField(item)
	for _, issue := range validation.Issues(s.schemas.Validate(kind, content)) {
		out = append(out, ItemIssue{Index: index, Message: issue.String()})
	}
	return out
}

func (s *service) Upsert(ctx context.Context, req Request) (*UpsertResult, error) {
	logger := logging.WithFields(s.logger, map[string]any{
		"entity_type": req.EntityType,
		"items":       len(req.Items),
	})
	if !domain.HasRole(req.Role, domain.RoleEditor) {
		return nil, apperrors.Forbidden("editor role required")
	}

	checked, err := s.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &UpsertResult{ValidationResult: *checked}
	if !checked.Valid {
		logger.Info("batch.apply.skipped", "errors", len(checked.Errors))
		return result, nil
	}

	kind, _ := domain.ParseEntityKind(req.EntityType)
	apply := func(ctx context.Context, st store.Store) error {
		result.Applied = 0
		services := s.factory(st)
		for index, item := range req.Items {
			if err := s.applyItem(ctx, services, kind, req, item); err != nil {
				return &ItemError{Index: index, Err: err}
			}
			result.Applied++
		}
		_, err := s.audit.Write(ctx, st.Audit(), audit.Input{
			ActorID:    req.ActorID,
			Action:     ActionUpsert,
			EntityType: EntityType,
			EntityID:   string(kind),
			Locale:     req.Locale,
			Before:     checked.Stats,
			After: map[string]any{
				"total":   checked.Stats.Total,
				"create":  checked.Stats.Create,
				"update":  checked.Stats.Update,
				"applied": result.Applied,
			},
		})
		return err
	}

	if s.transactional {
		err = s.store.RunInTx(ctx, apply)
		if err != nil {
			result.Applied = 0
		}
	} else {
		err = apply(ctx, s.store)
	}
	if err != nil {
		logger.Error("batch.apply.failed", "error", err, "applied", result.Applied)
		return nil, err
	}
	logger.Info("batch.apply.completed", "applied", result.Applied)
	return result, nil
}

func (s *service) applyItem(ctx context.Context, services Services, kind domain.EntityKind, req Request, item map[string]any) error {
	switch kind {
	case domain.KindProduct:
		return s.applyProduct(ctx, services.Products, req.ActorID, item)

	case domain.KindProductDoc:
		input, err := draftInput(item, req)
		if err != nil {
			return err
		}
		draft := docs.ProductDraftRequest{
			DraftInput:  input,
			CanonicalID: stringField(item, "canonicalId"),
		}
		if raw, ok := item["lockedFields"]; ok && raw != nil {
			if draft.LockedFields, err = lockedFields(raw); err != nil {
				return err
			}
		}
		_, err = services.Docs.UpsertProductDraft(ctx, draft)
		return err

	case domain.KindHomepage:
		input, err := draftInput(item, req)
		if err != nil {
			return err
		}
		_, err = services.Docs.UpsertHomepageDraft(ctx, docs.HomepageDraftRequest{DraftInput: input})
		return err

	case domain.KindLeaderboard:
		input, err := draftInput(item, req)
		if err != nil {
			return err
		}
		_, err = services.Docs.UpsertLeaderboardDraft(ctx, docs.LeaderboardDraftRequest{
			DraftInput: input,
			BoardID:    stringField(item, "boardId"),
			Mode:       stringField(item, "mode"),
		})
		return err

	case domain.KindCollection:
		input, err := draftInput(item, req)
		if err != nil {
			return err
		}
		slugs, err := s.collectionSlugs(item)
		if err != nil {
			return err
		}
		_, err = services.Docs.UpsertCollectionDraft(ctx, docs.CollectionDraftRequest{
			DraftInput:   input,
			CollectionID: stringField(item, "collectionId"),
			SlugByLocale: slugs,
		})
		return err

	case domain.KindMedia:
		fields := item
		if stringField(item, "id") == "" {
			fields = maps.Clone(item)
			delete(fields, "id")
		}
		var upsert media.UpsertMediaRequest
		if err := decodeItem(fields, &upsert); err != nil {
			return err
		}
		upsert.ActorID = req.ActorID
		_, err := services.Media.Upsert(ctx, upsert)
		return err
	}
	return apperrors.InvalidEntityType(string(kind))
}

// applyProduct patches an existing product and creates a missing one.
func (s *service) applyProduct(ctx context.Context, svc products.Service, actorID string, item map[string]any) error {
	canonicalID := stringField(item, "canonicalId")
	_, err := svc.Get(ctx, canonicalID)
	switch {
	case err == nil:
		var patch products.PatchProductRequest
		if err := decodeItem(item, &patch); err != nil {
			return err
		}
		patch.CanonicalID = canonicalID
		patch.ActorID = actorID
		_, err = svc.Patch(ctx, patch)
		return err
	case apperrors.CodeOf(err) == apperrors.CodeProductNotFound:
		var create products.CreateProductRequest
		if err := decodeItem(item, &create); err != nil {
			return err
		}
		create.CanonicalID = canonicalID
		create.ActorID = actorID
		_, err = svc.Create(ctx, create)
		return err
	default:
		return err
	}
}

// collectionSlugs reads slugByLocale, defaulting every supported locale to
// the item's single slug.
func (s *service) collectionSlugs(item map[string]any) (map[string]string, error) {
	if raw, ok := item["slugByLocale"]; ok && raw != nil {
		var slugs map[string]string
		if err := decodeValue(raw, &slugs); err != nil {
			return nil, apperrors.Validation("slugByLocale_invalid")
		}
		return slugs, nil
	}
	slug := stringField(item, "slug")
	slugs := make(map[string]string, len(s.locales.Supported()))
	for _, locale := range s.locales.Supported() {
		slugs[locale] = slug
	}
	return slugs, nil
}

func draftInput(item map[string]any, req Request) (docs.DraftInput, error) {
	content, err := contentField(item)
	if err != nil {
		return docs.DraftInput{}, err
	}
	return docs.DraftInput{
		Locale:  itemLocale(item, req.Locale),
		Content: content,
		Role:    req.Role,
		ActorID: req.ActorID,
	}, nil
}

func lockedFields(raw any) (map[string]bool, error) {
	var out map[string]bool
	if err := decodeValue(raw, &out); err != nil {
		return nil, apperrors.Validation("lockedFields_invalid")
	}
	return out, nil
}

// contentField returns the item content, or an empty object when absent.
func contentField(item map[string]any) (map[string]any, error) {
	raw, ok := item["content"]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	content, ok := raw.(map[string]any)
	if !ok {
		return nil, apperrors.Validation(codeContentInvalid)
	}
	return content, nil
}

func itemLocale(item map[string]any, fallback string) string {
	if locale := stringField(item, "locale"); locale != "" {
		return locale
	}
	return strings.TrimSpace(fallback)
}

func stringField(item map[string]any, key string) string {
	switch value := item[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func decodeItem(item map[string]any, target any) error {
	if err := decodeValue(item, target); err != nil {
		return apperrors.Validation("item_invalid")
	}
	return nil
}

func decodeValue(value any, target any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
