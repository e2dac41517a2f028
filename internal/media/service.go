// Package media manages assets attached to catalog owners.
package media

import (
	"context"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	ActionCreate = "media.create"
	ActionUpdate = "media.update"
	ActionDelete = "media.delete"

	codeRequired     = "ownerType_ownerId_type_url_required"
	codeOwnerInvalid = "media_owner_type_invalid"
	codeTypeInvalid  = "media_type_invalid"
)

// Service manages media assets.
type Service interface {
	Upsert(ctx context.Context, req UpsertMediaRequest) (*store.MediaAsset, error)
	Update(ctx context.Context, req UpdateMediaRequest) (*store.MediaAsset, error)
	Delete(ctx context.Context, id uuid.UUID, actorID string) (*DeleteResult, error)
	ListByOwner(ctx context.Context, ownerType domain.MediaOwnerType, ownerID string) ([]*store.MediaAsset, error)
}

// UpsertMediaRequest creates an asset, or updates it when ID names an
// existing one. An empty Locale applies the asset to every locale.
type UpsertMediaRequest struct {
	ID        uuid.UUID      `json:"id"`
	OwnerType string         `json:"ownerType"`
	OwnerID   string         `json:"ownerId"`
	Locale    string         `json:"locale"`
	Type      string         `json:"type"`
	URL       string         `json:"url"`
	Meta      map[string]any `json:"meta"`
	ActorID   string         `json:"-"`
}

// UpdateMediaRequest patches an asset. ClearLocale resets the asset to all
// locales; otherwise a nil field is left unchanged.
type UpdateMediaRequest struct {
	ID          uuid.UUID      `json:"id"`
	Locale      *string        `json:"locale"`
	ClearLocale bool           `json:"clearLocale"`
	Type        *string        `json:"type"`
	URL         *string        `json:"url"`
	Meta        map[string]any `json:"meta"`
	ActorID     string         `json:"-"`
}

type DeleteResult struct {
	ID      uuid.UUID `json:"id"`
	Deleted bool      `json:"deleted"`
}

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

type service struct {
	store  store.Store
	audit  *audit.Writer
	logger interfaces.Logger
	now    func() time.Time
}

// NewService constructs the media service on top of st.
func NewService(st store.Store, opts ...ServiceOption) Service {
	s := &service{
		store:  st,
		logger: logging.NoOp(),
		now:    func() time.Time { return time.Now().UTC() },
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

func (s *service) Upsert(ctx context.Context, req UpsertMediaRequest) (*store.MediaAsset, error) {
	ownerType := domain.MediaOwnerType(strings.TrimSpace(req.OwnerType))
	ownerID := strings.TrimSpace(req.OwnerID)
	mediaType := domain.MediaType(strings.TrimSpace(req.Type))
	url := strings.TrimSpace(req.URL)
	if ownerType == "" || ownerID == "" || mediaType == "" || url == "" {
		return nil, apperrors.Validation(codeRequired)
	}
	if !ownerType.Valid() {
		return nil, apperrors.Validation(codeOwnerInvalid)
	}
	if !mediaType.Valid() {
		return nil, apperrors.Validation(codeTypeInvalid)
	}

	if req.ID != uuid.Nil {
		if _, err := s.store.Media().Get(ctx, req.ID); err == nil {
			locale := optional(req.Locale)
			return s.Update(ctx, UpdateMediaRequest{
				ID:          req.ID,
				Locale:      locale,
				ClearLocale: locale == nil,
				Type:        &req.Type,
				URL:         &url,
				Meta:        req.Meta,
				ActorID:     req.ActorID,
			})
		} else if !store.IsNotFound(err) {
			return nil, err
		}
	}

	now := s.now()
	record := &store.MediaAsset{
		ID:        req.ID,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Locale:    optional(req.Locale),
		Type:      mediaType,
		URL:       url,
		Meta:      metaOrEmpty(req.Meta),
		CreatedBy: req.ActorID,
		UpdatedBy: req.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	var created *store.MediaAsset
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		var err error
		created, err = tx.Media().Create(ctx, record)
		if err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    req.ActorID,
			Action:     ActionCreate,
			EntityType: string(domain.KindMedia),
			EntityID:   created.ID.String(),
			Locale:     req.Locale,
			After:      created,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.WithEntity(s.logger, string(domain.KindMedia), created.ID.String(), req.Locale).
		Info("media.create.success", "owner_type", ownerType, "owner_id", ownerID)
	return created, nil
}

func (s *service) Update(ctx context.Context, req UpdateMediaRequest) (*store.MediaAsset, error) {
	if req.Type != nil && !domain.MediaType(strings.TrimSpace(*req.Type)).Valid() {
		return nil, apperrors.Validation(codeTypeInvalid)
	}
	var updated *store.MediaAsset
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		before, err := tx.Media().Get(ctx, req.ID)
		if store.IsNotFound(err) {
			return apperrors.MediaNotFound(req.ID.String())
		}
		if err != nil {
			return err
		}
		next := *before
		switch {
		case req.ClearLocale:
			next.Locale = nil
		case req.Locale != nil:
			next.Locale = optional(*req.Locale)
		}
		if req.Type != nil {
			next.Type = domain.MediaType(strings.TrimSpace(*req.Type))
		}
		if req.URL != nil && strings.TrimSpace(*req.URL) != "" {
			next.URL = strings.TrimSpace(*req.URL)
		}
		if req.Meta != nil {
			next.Meta = maps.Clone(req.Meta)
		}
		next.UpdatedBy = req.ActorID
		next.UpdatedAt = s.now()

		updated, err = tx.Media().Update(ctx, &next)
		if err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    req.ActorID,
			Action:     ActionUpdate,
			EntityType: string(domain.KindMedia),
			EntityID:   updated.ID.String(),
			Locale:     deref(updated.Locale),
			Before:     before,
			After:      updated,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actorID string) (*DeleteResult, error) {
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		before, err := tx.Media().Get(ctx, id)
		if store.IsNotFound(err) {
			return apperrors.MediaNotFound(id.String())
		}
		if err != nil {
			return err
		}
		if err := tx.Media().Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    actorID,
			Action:     ActionDelete,
			EntityType: string(domain.KindMedia),
			EntityID:   id.String(),
			Locale:     deref(before.Locale),
			Before:     before,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{ID: id, Deleted: true}, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerType domain.MediaOwnerType, ownerID string) ([]*store.MediaAsset, error) {
	if !ownerType.Valid() {
		return nil, apperrors.Validation(codeOwnerInvalid)
	}
	return s.store.Media().ListByOwner(ctx, ownerType, strings.TrimSpace(ownerID))
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func metaOrEmpty(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return maps.Clone(meta)
}
