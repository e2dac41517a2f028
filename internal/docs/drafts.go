package docs

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/locks"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/slugs"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/validation"
)

// draftWrite is the kind independent part of a draft save.
type draftWrite struct {
	kind     domain.EntityKind
	key      string
	input    DraftInput
	locked   map[string]bool
	guarded  bool
	mode     string
	slugs    map[string]string
	precheck func(ctx context.Context, tx store.Store, locale string) error
}

func (s *service) UpsertProductDraft(ctx context.Context, req ProductDraftRequest) (*store.Doc, error) {
	canonicalID := strings.TrimSpace(req.CanonicalID)
	if canonicalID == "" {
		return nil, apperrors.Validation(codeKeyRequired)
	}
	return s.upsertDraft(ctx, draftWrite{
		kind:    domain.KindProductDoc,
		key:     canonicalID,
		input:   req.DraftInput,
		locked:  req.LockedFields,
		guarded: true,
		precheck: func(ctx context.Context, tx store.Store, _ string) error {
			return requireProduct(ctx, tx, canonicalID)
		},
	})
}

func (s *service) UpsertHomepageDraft(ctx context.Context, req HomepageDraftRequest) (*store.Doc, error) {
	return s.upsertDraft(ctx, draftWrite{
		kind:  domain.KindHomepage,
		key:   domain.HomepageKey,
		input: req.DraftInput,
	})
}

func (s *service) UpsertLeaderboardDraft(ctx context.Context, req LeaderboardDraftRequest) (*store.Doc, error) {
	boardID := strings.TrimSpace(req.BoardID)
	if boardID == "" {
		return nil, apperrors.Validation(codeKeyRequired)
	}
	if err := CheckLeaderboardMode(req.Mode); err != nil {
		return nil, err
	}
	return s.upsertDraft(ctx, draftWrite{
		kind:  domain.KindLeaderboard,
		key:   boardID,
		input: req.DraftInput,
		mode:  string(domain.NormalizeLeaderboardMode(req.Mode)),
	})
}

// CheckLeaderboardMode accepts manual, auto and empty (manual).
func CheckLeaderboardMode(mode string) error {
	switch domain.NormalizeLeaderboardMode(mode) {
	case domain.LeaderboardManual, domain.LeaderboardAuto:
		return nil
	}
	return apperrors.Validation(codeLeaderboardMode)
}

func (s *service) UpsertCollectionDraft(ctx context.Context, req CollectionDraftRequest) (*store.Doc, error) {
	collectionID := strings.TrimSpace(req.CollectionID)
	if collectionID == "" {
		return nil, apperrors.Validation(codeKeyRequired)
	}
	slugByLocale, err := CheckCollectionSlugs(req.SlugByLocale)
	if err != nil {
		return nil, err
	}
	return s.upsertDraft(ctx, draftWrite{
		kind:  domain.KindCollection,
		key:   collectionID,
		input: req.DraftInput,
		slugs: slugByLocale,
		precheck: func(ctx context.Context, tx store.Store, _ string) error {
			return ensureCollectionSlugs(ctx, tx, collectionID, slugByLocale)
		},
	})
}

// CheckCollectionSlugs cleans slugByLocale and requires at least one well
// formed slug.
func CheckCollectionSlugs(slugByLocale map[string]string) (map[string]string, error) {
	cleaned := slugs.Clean(slugByLocale)
	if len(cleaned) == 0 {
		return nil, apperrors.Validation(codeCollectionSlugs)
	}
	if err := slugs.Validate(cleaned, nil); err != nil {
		return nil, err
	}
	return cleaned, nil
}

// ensureCollectionSlugs rejects slugs already used by another collection in
// either state.
func ensureCollectionSlugs(ctx context.Context, tx store.Store, collectionID string, slugByLocale map[string]string) error {
	existing, err := tx.Docs().ListByKind(ctx, domain.KindCollection, "")
	if err != nil {
		return err
	}
	for _, doc := range existing {
		if doc.Key == collectionID {
			continue
		}
		for _, locale := range slices.Sorted(maps.Keys(slugByLocale)) {
			if value := slugByLocale[locale]; doc.SlugByLocale[locale] == value {
				return apperrors.SlugConflict(locales.Key(locale), value, doc.Key, string(doc.State))
			}
		}
	}
	return nil
}

func (s *service) upsertDraft(ctx context.Context, w draftWrite) (*store.Doc, error) {
	if err := requireEditor(w.input.Role); err != nil {
		return nil, err
	}
	locale, err := s.resolveLocale(w.input.Locale)
	if err != nil {
		return nil, err
	}
	logger := logging.WithEntity(s.logger, string(w.kind), w.key, locale)
	content := w.input.Content
	if content == nil {
		content = map[string]any{}
	}
	if err := s.validator.Validate(w.kind, content); err != nil {
		if s.enforceSchemas {
			out := apperrors.Validation(codeContentInvalid)
			out.Message = err.Error()
			return nil, out
		}
		logger.Warn("docs.draft.schema_issues", "issues", issueStrings(err))
	}

	var saved *store.Doc
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if w.precheck != nil {
			if err := w.precheck(ctx, tx, locale); err != nil {
				return err
			}
		}
		draft, err := getDoc(ctx, tx, docKey(w.kind, w.key, locale, domain.StateDraft))
		if err != nil {
			return err
		}

		var lockedFields map[string]bool
		if w.guarded {
			published, err := getDoc(ctx, tx, docKey(w.kind, w.key, locale, domain.StatePublished))
			if err != nil {
				return err
			}
			lockedFields, err = guardLocks(w.input.Role, draft, published, content, w.locked)
			if err != nil {
				return err
			}
		}

		params := store.UpsertDocParams{
			Key:          docKey(w.kind, w.key, locale, domain.StateDraft),
			Content:      content,
			LockedFields: lockedFields,
			Mode:         w.mode,
			SlugByLocale: w.slugs,
			ActorID:      w.input.ActorID,
			Now:          s.now(),
		}
		if s.preconditions {
			params.ExpectedRevision = w.input.ExpectedRevision
		}
		saved, err = tx.Docs().Upsert(ctx, params)
		if err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, tx.Audit(), audit.Input{
			ActorID:    w.input.ActorID,
			Action:     string(w.kind) + ".draft.upsert",
			EntityType: string(w.kind),
			EntityID:   entityID(w.kind, w.key, locale),
			Locale:     locale,
			Before:     snapshot(draft),
			After:      saved,
		})
		return err
	})
	if err != nil {
		logger.Warn("docs.draft.failed", "error", err)
		return nil, err
	}
	logger.Info("docs.draft.saved", "revision", saved.Revision)
	return saved, nil
}

// guardLocks runs the locked field guard against the current content and
// returns the lock map to store with the draft.
func guardLocks(role domain.Role, draft, published *store.Doc, next map[string]any, submitted map[string]bool) (map[string]bool, error) {
	base := map[string]any{}
	var current map[string]bool
	switch {
	case draft != nil:
		base, current = draft.Content, draft.LockedFields
	case published != nil:
		base, current = published.Content, published.LockedFields
	}
	if err := locks.Check(role, current, base, next); err != nil {
		return nil, err
	}
	if err := locks.CheckLockMutation(role, submitted); err != nil {
		return nil, err
	}
	if submitted != nil {
		return locks.Clone(submitted), nil
	}
	return locks.Clone(current), nil
}

// entityID is the audit entity id; the homepage is identified by locale.
func entityID(kind domain.EntityKind, key, locale string) string {
	if kind == domain.KindHomepage {
		return locale
	}
	return key
}

func issueStrings(err error) []string {
	issues := validation.Issues(err)
	if len(issues) == 0 {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.String())
	}
	return out
}
