package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type indexSpec struct {
	model   any
	name    string
	columns []string
	unique  bool
}

var schemaModels = []any{
	(*Product)(nil),
	(*ProductSlug)(nil),
	(*Doc)(nil),
	(*MediaAsset)(nil),
	(*Redirect)(nil),
	(*AuditEntry)(nil),
}

var schemaIndexes = []indexSpec{
	{model: (*ProductSlug)(nil), name: "product_slugs_locale_slug_uniq", columns: []string{"locale", "slug"}, unique: true},
	{model: (*ProductSlug)(nil), name: "product_slugs_product_idx", columns: []string{"product_id"}},
	{model: (*Doc)(nil), name: "localized_docs_row_uniq", columns: []string{"kind", "owner_key", "locale", "state"}, unique: true},
	{model: (*MediaAsset)(nil), name: "media_assets_owner_idx", columns: []string{"owner_type", "owner_id"}},
	{model: (*Redirect)(nil), name: "redirects_locale_from_uniq", columns: []string{"locale", "from_path"}, unique: true},
	{model: (*Redirect)(nil), name: "redirects_locale_to_idx", columns: []string{"locale", "to_path"}},
	{model: (*AuditEntry)(nil), name: "audit_logs_entity_idx", columns: []string{"entity_type", "entity_id"}},
}

// CreateSchema creates every catalog table and index when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range schemaModels {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}
	for _, idx := range schemaIndexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
