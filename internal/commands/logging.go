package commands

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// DefaultCommandTimeout bounds every catalog command unless a handler overrides it.
const DefaultCommandTimeout = 30 * time.Second

const commandModuleRoot = "catalog.commands"

// CommandLogger returns the logger for the command group named module
// (batch, docs, products, audit).
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	group := strings.TrimSpace(module)
	if group == "" {
		group = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, commandModuleRoot+"."+group), map[string]any{
		"component":     "command",
		"command_group": group,
	})
}

func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}

func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout derives a deadline; a non-positive timeout leaves ctx as is.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
