package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-catalog/pkg/interfaces"
)

type recordingLogger struct {
	fields []map[string]any
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, fields)
	return r
}

func (r *recordingLogger) WithContext(context.Context) interfaces.Logger { return r }

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, productsModule)
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger.WithContext(context.Background()).Info("noop")
}

func TestModuleLoggerAnnotatesModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = DocsLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != docsModule {
		t.Fatalf("expected %s request, got %v", docsModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != docsModule {
		t.Fatalf("expected module field, got %v", rec.fields)
	}
}

func TestModuleLoggerDefaultsToRoot(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected %s, got %v", rootModule, provider.requested)
	}
}

func TestWithEntitySkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithEntity(rec, "productDoc", "hades", " ")
	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[fieldEntityType] != "productDoc" || got[fieldEntityID] != "hades" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[fieldLocale]; ok {
		t.Fatalf("expected blank locale to be skipped, got %v", got)
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"batch_id": "b1"})
	ctx = ContextWithFields(ctx, map[string]any{"index": 3})
	fields := ContextFields(ctx)
	if fields["batch_id"] != "b1" || fields["index"] != 3 {
		t.Fatalf("unexpected merged fields %v", fields)
	}
	fields["batch_id"] = "mutated"
	if ContextFields(ctx)["batch_id"] != "b1" {
		t.Fatalf("expected ContextFields to return a copy")
	}
}
