package di_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-catalog/internal/batch"
	"github.com/goliatone/go-catalog/internal/di"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/internal/runtimeconfig"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/store/storetest"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

type recordingSink struct {
	records []interfaces.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record interfaces.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "mongo"

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestContainerWiresServicesOnMemoryStore(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.ActivityFeed = true
	sink := &recordingSink{}

	container, err := di.NewContainer(cfg,
		di.WithLoggerProvider(newRecordingProvider()),
		di.WithActivitySink(sink),
		di.WithClock(fixedClock),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.Store().(*store.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", container.Store())
	}
	if container.SchemaValidator() == nil {
		t.Fatal("expected schema validator when content schemas are enabled")
	}

	ctx := context.Background()
	product, err := container.ProductService().Create(ctx, products.CreateProductRequest{
		CanonicalID:  "hades",
		SlugByLocale: map[string]string{"zh-CN": "hades-zh", "en": "hades"},
		ActorID:      "editor-1",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !product.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("expected injected clock on product, got %v", product.CreatedAt)
	}

	entries, err := container.AuditLog().List(ctx, store.AuditFilter{EntityID: "hades"})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "product.create" {
		t.Fatalf("expected one product.create entry, got %+v", entries)
	}
	if len(sink.records) != 1 || sink.records[0].ObjectID != "hades" {
		t.Fatalf("expected activity record for hades, got %+v", sink.records)
	}
}

func TestContainerBatchAppliesThroughFactory(t *testing.T) {
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithBunDB(storetest.NewSQLiteDB(t)))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	ctx := context.Background()
	result, err := container.BatchService().Upsert(ctx, batch.Request{
		EntityType: "product",
		Items: []map[string]any{
			{"canonicalId": "celeste", "slugByLocale": map[string]any{"zh-CN": "celeste-zh", "en": "celeste"}},
		},
		Role:    domain.RoleEditor,
		ActorID: "cli-batch",
	})
	if err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	if result.Applied != 1 {
		t.Fatalf("expected one applied item, got %d", result.Applied)
	}
	if _, err := container.ProductService().Get(ctx, "celeste"); err != nil {
		t.Fatalf("expected celeste to be persisted: %v", err)
	}
}

func TestContainerLogsConfiguration(t *testing.T) {
	rec := newRecordingProvider()
	if _, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithLoggerProvider(rec)); err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	entry := rec.find("container.configured")
	if entry == nil {
		t.Fatalf("expected container.configured log entry, got %#v", rec.entries)
	}
	if got := entry.fields["storage"]; got != "memory" {
		t.Fatalf("expected storage field to be memory, got %v", got)
	}
	if got := entry.fields["module"]; got != "catalog.di" {
		t.Fatalf("expected module field to be catalog.di, got %v", got)
	}
}

func TestModuleLoggerHelpersUseContainerProvider(t *testing.T) {
	rec := newRecordingProvider()
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithLoggerProvider(rec))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	logging.BatchLogger(container.LoggerProvider()).Info("batch.test")
	entry := rec.find("batch.test")
	if entry == nil || entry.fields["module"] != "catalog.batch" {
		t.Fatalf("expected batch logger entry with module field, got %#v", entry)
	}
}
