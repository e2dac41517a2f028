package docs

import (
	"context"
	"strings"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/slugs"
	"github.com/goliatone/go-catalog/internal/store"
)

func (s *service) PublishProductDraft(ctx context.Context, req PublishRequest) (*store.Doc, error) {
	canonicalID := strings.TrimSpace(req.Key)
	return s.publish(ctx, domain.KindProductDoc, canonicalID, req, func(ctx context.Context, tx store.Store) error {
		return requireProduct(ctx, tx, canonicalID)
	})
}

func (s *service) PublishHomepageDraft(ctx context.Context, req PublishRequest) (*store.Doc, error) {
	return s.publish(ctx, domain.KindHomepage, domain.HomepageKey, req, nil)
}

func (s *service) PublishLeaderboardDraft(ctx context.Context, req PublishRequest) (*store.Doc, error) {
	return s.publish(ctx, domain.KindLeaderboard, strings.TrimSpace(req.Key), req, nil)
}

func (s *service) PublishCollectionDraft(ctx context.Context, req PublishRequest) (*store.Doc, error) {
	return s.publish(ctx, domain.KindCollection, strings.TrimSpace(req.Key), req, nil)
}

// publish copies the draft row onto the published row. The draft is left
// untouched. The published write, any redirect and the audit row share one
// transaction.
func (s *service) publish(ctx context.Context, kind domain.EntityKind, key string, req PublishRequest, precheck func(context.Context, store.Store) error) (*store.Doc, error) {
	if err := requireEditor(req.Role); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, apperrors.Validation(codeKeyRequired)
	}
	locale, err := s.resolveLocale(req.Locale)
	if err != nil {
		return nil, err
	}
	logger := logging.WithEntity(s.logger, string(kind), key, locale)

	var published *store.Doc
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if precheck != nil {
			if err := precheck(ctx, tx); err != nil {
				return err
			}
		}
		draft, err := getDoc(ctx, tx, docKey(kind, key, locale, domain.StateDraft))
		if err != nil {
			return err
		}
		if draft == nil {
			return apperrors.DraftNotFound(key)
		}
		previous, err := getDoc(ctx, tx, docKey(kind, key, locale, domain.StatePublished))
		if err != nil {
			return err
		}

		now := s.now()
		params := store.UpsertDocParams{
			Key:          docKey(kind, key, locale, domain.StatePublished),
			Content:      draft.Content,
			Mode:         draft.Mode,
			SlugByLocale: draft.SlugByLocale,
			PublishedAt:  &now,
			ActorID:      req.ActorID,
			Now:          now,
		}
		if kind == domain.KindProductDoc {
			params.LockedFields = draft.LockedFields
		}
		published, err = tx.Docs().Upsert(ctx, params)
		if err != nil {
			return err
		}

		if kind == domain.KindCollection && previous != nil {
			oldSlug := locales.LocaleValue(previous.SlugByLocale, locale)
			newSlug := locales.LocaleValue(published.SlugByLocale, locale)
			if _, err := slugs.ApplyRedirects(ctx, tx.Redirects(),
				map[string]string{locale: oldSlug},
				map[string]string{locale: newSlug},
				s.routes.PathFor(locales.RouteCollection), now); err != nil {
				return err
			}
		}

		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    req.ActorID,
			Action:     string(kind) + ".publish",
			EntityType: string(kind),
			EntityID:   entityID(kind, key, locale),
			Locale:     locale,
			Before:     snapshot(previous),
			After:      published,
		})
		return err
	})
	if err != nil {
		logger.Warn("docs.publish.failed", "error", err)
		return nil, err
	}
	logger.Info("docs.publish.success", "revision", published.Revision)
	return published, nil
}
