package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	rootModule     = "catalog"
	productsModule = "catalog.products"
	docsModule     = "catalog.docs"
	mediaModule    = "catalog.media"
	slugsModule    = "catalog.slugs"
	batchModule    = "catalog.batch"
	auditModule    = "catalog.audit"
)

const (
	fieldEntityType = "entity_type"
	fieldEntityID   = "entity_id"
	fieldLocale     = "locale"
)

// ModuleLogger returns a logger named after module with a module field
// attached. A nil provider yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}
	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

func ProductsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, productsModule)
}

func DocsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, docsModule)
}

func MediaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mediaModule)
}

func SlugsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, slugsModule)
}

func BatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, batchModule)
}

func AuditLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, auditModule)
}

// WithEntity annotates logger with the entity being mutated. Empty values
// are skipped.
func WithEntity(logger interfaces.Logger, entityType, entityID, locale string) interfaces.Logger {
	fields := map[string]any{}
	if v := strings.TrimSpace(entityType); v != "" {
		fields[fieldEntityType] = v
	}
	if v := strings.TrimSpace(entityID); v != "" {
		fields[fieldEntityID] = v
	}
	if v := strings.TrimSpace(locale); v != "" {
		fields[fieldLocale] = v
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
