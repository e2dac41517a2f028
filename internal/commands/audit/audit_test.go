package auditcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/store"
)

type stubAuditLog struct {
	entries []*store.AuditEntry
	listErr error
	filters []store.AuditFilter
}

func (s *stubAuditLog) List(_ context.Context, filter store.AuditFilter) ([]*store.AuditEntry, error) {
	s.filters = append(s.filters, filter)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

func TestExportAuditHandlerWritesJSONLines(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"hades", "celeste", "hades"} {
		entry := &store.AuditEntry{
			Action:     "product.update",
			EntityType: "product",
			EntityID:   id,
			Diff:       map[string]any{"changes": map[string]any{}},
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.Audit().Append(ctx, entry); err != nil {
			t.Fatalf("append audit: %v", err)
		}
	}

	var buf bytes.Buffer
	handler := NewExportAuditHandler(st.Audit(), logging.NoOp(), ExportWithWriter(&buf))
	if err := handler.Execute(ctx, ExportAuditCommand{EntityID: "hades"}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 exported lines, got %d: %q", len(lines), buf.String())
	}
	var first store.AuditEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if first.EntityID != "hades" || !first.CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("expected newest hades entry first, got %+v", first)
	}
}

func TestExportAuditHandlerAppliesLimits(t *testing.T) {
	log := &stubAuditLog{}
	handler := NewExportAuditHandler(log, logging.NoOp())

	if err := handler.Execute(context.Background(), ExportAuditCommand{}); err != nil {
		t.Fatalf("execute default: %v", err)
	}
	large := 1000
	if err := handler.Execute(context.Background(), ExportAuditCommand{Limit: &large}); err != nil {
		t.Fatalf("execute large: %v", err)
	}

	if len(log.filters) != 2 {
		t.Fatalf("expected two list calls, got %d", len(log.filters))
	}
	if log.filters[0].Limit != DefaultListLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultListLimit, log.filters[0].Limit)
	}
	if log.filters[1].Limit != MaxListLimit {
		t.Fatalf("expected capped limit %d, got %d", MaxListLimit, log.filters[1].Limit)
	}
}

func TestExportAuditHandlerRejectsInvalidLimit(t *testing.T) {
	log := &stubAuditLog{}
	handler := NewExportAuditHandler(log, logging.NoOp())

	zero := 0
	err := handler.Execute(context.Background(), ExportAuditCommand{Limit: &zero})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(log.filters) != 0 {
		t.Fatalf("expected no list calls, got %d", len(log.filters))
	}
}

func TestExportAuditHandlerWrapsListError(t *testing.T) {
	boom := errors.New("list failed")
	handler := NewExportAuditHandler(&stubAuditLog{listErr: boom}, logging.NoOp())

	err := handler.Execute(context.Background(), ExportAuditCommand{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestExportAuditHandlerRespectsCancelledContext(t *testing.T) {
	log := &stubAuditLog{}
	handler := NewExportAuditHandler(log, logging.NoOp())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := handler.Execute(ctx, ExportAuditCommand{}); err == nil {
		t.Fatal("expected context error")
	}
	if len(log.filters) != 0 {
		t.Fatalf("expected no list calls after cancellation, got %d", len(log.filters))
	}
}

func TestExportAuditHandlerCLIOptions(t *testing.T) {
	handler := NewExportAuditHandler(&stubAuditLog{}, logging.NoOp())
	opts := handler.CLIOptions()
	if strings.Join(opts.Path, " ") != "audit export" {
		t.Fatalf("unexpected CLI path %v", opts.Path)
	}
	if handler.CLIHandler() != handler {
		t.Fatal("expected CLIHandler to return the handler")
	}
}

func TestExportAuditHandlerCronBinding(t *testing.T) {
	log := &stubAuditLog{}
	handler := NewExportAuditHandler(log, logging.NoOp(), ExportWithCronExpression(" @daily "))

	if got := handler.CronOptions().Expression; got != "@daily" {
		t.Fatalf("expected @daily cron expression, got %q", got)
	}
	if err := handler.CronHandler()(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}
	if len(log.filters) != 1 || log.filters[0].Limit != DefaultListLimit {
		t.Fatalf("expected one default-limit export, got %+v", log.filters)
	}

	if NewExportAuditHandler(log, logging.NoOp()).CronOptions().Expression != "" {
		t.Fatal("expected no cron expression by default")
	}
}
