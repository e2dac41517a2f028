package auditcmd

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-catalog/internal/commands"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	exportAuditMessageType = "catalog.audit.export"

	DefaultListLimit = 50
	MaxListLimit     = 200
)

// AuditLog exposes read access to recorded audit entries.
type AuditLog interface {
	List(ctx context.Context, filter store.AuditFilter) ([]*store.AuditEntry, error)
}

// ExportAuditCommand lists recorded audit entries, newest first.
type ExportAuditCommand struct {
	Limit      *int   `json:"limit,omitempty"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	Action     string `json:"action,omitempty"`
}

// Type implements command.Message.
func (ExportAuditCommand) Type() string { return exportAuditMessageType }

// Validate ensures the command payload is well-formed.
func (m ExportAuditCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Limit, validation.By(func(value any) error {
			if m.Limit == nil {
				return nil
			}
			if *m.Limit < 1 {
				return validation.NewError("catalog.audit.export.limit_invalid", "limit must be at least 1")
			}
			return nil
		})),
	)
}

// ExportAuditHandler emits audit entries through the logger and, when
// configured, as JSON lines to a writer.
type ExportAuditHandler struct {
	log          AuditLog
	logger       interfaces.Logger
	timeout      time.Duration
	out          io.Writer
	defaultLimit int
	maxLimit     int
	cronConfig   command.HandlerConfig
}

// ExportHandlerOption customises the export handler.
type ExportHandlerOption func(*ExportAuditHandler)

// ExportWithTimeout overrides the default execution timeout.
func ExportWithTimeout(timeout time.Duration) ExportHandlerOption {
	return func(h *ExportAuditHandler) {
		h.timeout = timeout
	}
}

// ExportWithWriter writes every exported entry as one JSON line to w.
func ExportWithWriter(w io.Writer) ExportHandlerOption {
	return func(h *ExportAuditHandler) {
		h.out = w
	}
}

// ExportWithLimits overrides the default and maximum number of entries.
func ExportWithLimits(defaultLimit, maxLimit int) ExportHandlerOption {
	return func(h *ExportAuditHandler) {
		if maxLimit > 0 {
			h.maxLimit = maxLimit
		}
		if defaultLimit > 0 {
			h.defaultLimit = defaultLimit
		}
	}
}

// ExportWithCronExpression schedules a periodic export of the newest
// entries when the handler is registered with a cron runner.
func ExportWithCronExpression(expression string) ExportHandlerOption {
	return func(h *ExportAuditHandler) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			h.cronConfig.Expression = trimmed
		}
	}
}

// NewExportAuditHandler constructs a handler wired to log.
func NewExportAuditHandler(log AuditLog, logger interfaces.Logger, opts ...ExportHandlerOption) *ExportAuditHandler {
	handler := &ExportAuditHandler{
		log:          log,
		logger:       commands.EnsureLogger(logger),
		timeout:      commands.DefaultCommandTimeout,
		defaultLimit: DefaultListLimit,
		maxLimit:     MaxListLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler
}

// Execute satisfies command.Commander[ExportAuditCommand].
func (h *ExportAuditHandler) Execute(ctx context.Context, msg ExportAuditCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	entries, err := h.log.List(ctx, store.AuditFilter{
		Limit:      h.limit(msg.Limit),
		EntityType: msg.EntityType,
		EntityID:   msg.EntityID,
		Action:     msg.Action,
	})
	if err != nil {
		return commands.WrapExecuteError(err)
	}

	baseLogger := logging.WithFields(h.logger, map[string]any{
		"operation": "audit.export",
	})

	var encoder *json.Encoder
	if h.out != nil {
		encoder = json.NewEncoder(h.out)
	}
	for idx, entry := range entries {
		logging.WithFields(baseLogger, map[string]any{
			"index":       idx,
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
			"action":      entry.Action,
			"created_at":  entry.CreatedAt.Format(time.RFC3339),
		}).Debug("audit.command.export.entry")
		if encoder != nil {
			if err := encoder.Encode(entry); err != nil {
				return commands.WrapExecuteError(err)
			}
		}
	}

	logging.WithFields(baseLogger, map[string]any{
		"exported": len(entries),
	}).Info("audit.command.export.completed")
	return nil
}

func (h *ExportAuditHandler) limit(requested *int) int {
	if requested == nil {
		return h.defaultLimit
	}
	if *requested > h.maxLimit {
		return h.maxLimit
	}
	return *requested
}

// CronHandler satisfies command.CronCommand by binding a default export to a cron runner.
func (h *ExportAuditHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), ExportAuditCommand{})
	}
}

// CronOptions returns the cron metadata. An empty expression means the
// export is not scheduled.
func (h *ExportAuditHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler satisfies command.CLICommand by returning the handler.
func (h *ExportAuditHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for audit export.
func (h *ExportAuditHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"audit", "export"},
		Group:       "audit",
		Description: "Export audit entries, newest first",
	}
}
