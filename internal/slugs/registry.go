package slugs

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// ActionPurge is the audit action written when an archived product is
// purged to free its slugs.
const ActionPurge = "product.archived.purge"

// Registry enforces per-locale slug ownership for products.
type Registry struct {
	audit  *audit.Writer
	logger interfaces.Logger
	now    func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithAuditWriter(writer *audit.Writer) RegistryOption {
	return func(r *Registry) {
		if writer != nil {
			r.audit = writer
		}
	}
}

func WithLogger(logger interfaces.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewRegistry constructs a Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger: logging.NoOp(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.audit == nil {
		r.audit = audit.NewWriter(audit.WithClock(r.now))
	}
	return r
}

// EnsureAvailable verifies every slug in slugByLocale for the product
// canonicalID (empty for a new product). A slug held by another active
// product fails with a conflict. Slugs held by archived products are
// reclaimed by purging those products. All owners are checked before
// anything is purged, and the purges run in one transaction on st.
func (r *Registry) EnsureAvailable(ctx context.Context, st store.Store, canonicalID string, slugByLocale map[string]string, actorID string) error {
	var squatters []*store.Product
	seen := map[string]struct{}{}
	for _, locale := range sortedLocales(slugByLocale) {
		value := slugByLocale[locale]
		if value == "" {
			continue
		}
		owner, err := st.Products().FindBySlug(ctx, locale, value)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("slugs: lookup %s %q: %w", locale, value, err)
		}
		if owner.CanonicalID == canonicalID {
			continue
		}
		if owner.Status != domain.ProductArchived {
			return apperrors.SlugConflict(locales.Key(locale), value, owner.CanonicalID, string(owner.Status))
		}
		if _, dup := seen[owner.CanonicalID]; !dup {
			seen[owner.CanonicalID] = struct{}{}
			squatters = append(squatters, owner)
		}
	}
	if len(squatters) == 0 {
		return nil
	}
	return st.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		for _, owner := range squatters {
			if err := r.purge(ctx, tx, owner, actorID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Registry) purge(ctx context.Context, tx store.Store, owner *store.Product, actorID string) error {
	removed, err := tx.Media().DeleteByOwner(ctx, domain.MediaOwnerProduct, owner.CanonicalID)
	if err != nil {
		return fmt.Errorf("slugs: purge media of %s: %w", owner.CanonicalID, err)
	}
	if err := tx.Products().Delete(ctx, owner.ID); err != nil {
		return fmt.Errorf("slugs: purge product %s: %w", owner.CanonicalID, err)
	}
	if _, err := r.audit.Write(ctx, tx.Audit(), audit.Input{
		ActorID:    actorID,
		Action:     ActionPurge,
		EntityType: string(domain.KindProduct),
		EntityID:   owner.CanonicalID,
		Before:     map[string]any{"product": owner, "mediaDeleted": removed},
	}); err != nil {
		return err
	}
	logging.WithEntity(r.logger, string(domain.KindProduct), owner.CanonicalID, "").
		Info("slugs.reclaim.purged", "media_deleted", removed)
	return nil
}
