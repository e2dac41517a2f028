// Package commands builds the catalog command handlers from a container and
// registers them with go-command registries, dispatchers and cron runners.
package commands

import (
	"errors"
	"io"
	"strings"

	command "github.com/goliatone/go-command"

	internalcommands "github.com/goliatone/go-catalog/internal/commands"
	auditcmd "github.com/goliatone/go-catalog/internal/commands/audit"
	batchcmd "github.com/goliatone/go-catalog/internal/commands/batch"
	docscmd "github.com/goliatone/go-catalog/internal/commands/docs"
	productscmd "github.com/goliatone/go-catalog/internal/commands/products"
	"github.com/goliatone/go-catalog/internal/di"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider

	// BatchValidation and BatchApply receive batch results as handlers run.
	BatchValidation batchcmd.ValidationObserver
	BatchApply      batchcmd.ApplyObserver

	// AuditExportWriter receives exported audit entries as JSON lines.
	AuditExportWriter io.Writer
	// AuditExportCron schedules the audit export handler. Empty disables it.
	AuditExportCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the command handlers exposed by the provided container and
// optionally registers them with registry/dispatcher/cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				cfg := cronCmd.CronOptions()
				if strings.TrimSpace(cfg.Expression) == "" {
					return
				}
				if err := opts.CronRegistrar(cfg, cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return internalcommands.CommandLogger(provider, module)
	}

	// Batch commands.
	if service := container.BatchService(); service != nil {
		batchLogger := loggerFor("batch")
		register(batchcmd.NewValidateBatchHandler(service, batchLogger, opts.BatchValidation))
		register(batchcmd.NewApplyBatchHandler(service, batchLogger, opts.BatchApply))
	}

	// Doc commands.
	if service := container.DocsService(); service != nil {
		register(docscmd.NewPublishDraftHandler(service, loggerFor("docs")))
	}

	// Product commands.
	if service := container.ProductService(); service != nil {
		register(productscmd.NewArchiveProductHandler(service, loggerFor("products")))
	}

	// Audit commands.
	if container.Store() != nil {
		auditCfg := container.Config.Audit
		exportOpts := []auditcmd.ExportHandlerOption{
			auditcmd.ExportWithLimits(auditCfg.ListLimitDefault, auditCfg.ListLimitMax),
		}
		if opts.AuditExportWriter != nil {
			exportOpts = append(exportOpts, auditcmd.ExportWithWriter(opts.AuditExportWriter))
		}
		if expr := strings.TrimSpace(opts.AuditExportCron); expr != "" {
			exportOpts = append(exportOpts, auditcmd.ExportWithCronExpression(expr))
		}
		register(auditcmd.NewExportAuditHandler(container.AuditLog(), loggerFor("audit"), exportOpts...))
	}

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured")
	}

	return result, errs
}
