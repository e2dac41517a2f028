package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusRejected     TelemetryStatus = "rejected"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes one command execution. ErrorCode carries the
// catalog error code (slug_zh_conflict, stale_write, ...) when the failure
// came from a catalog service.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	ErrorCode string
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is invoked once after every execution that passed validation.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs command outcomes. Rejections caused by the caller
// (authorization, validation, conflicts, stale writes) log at warn.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = EnsureLogger(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		if info.ErrorCode != "" {
			args = append(args, "error_code", info.ErrorCode)
		}
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Info("command.execute.success", args...)
		case TelemetryStatusRejected:
			entry.Warn("command.execute.rejected", append(args, "error", info.Error)...)
		case TelemetryStatusContextError:
			entry.Error("command.execute.context_error", append(args, "error", info.Error)...)
		default:
			entry.Error("command.execute.failed", append(args, "error", info.Error)...)
		}
	}
}

func failureStatus(err error) (TelemetryStatus, string) {
	domainErr, ok := apperrors.As(err)
	if !ok {
		return TelemetryStatusFailed, ""
	}
	if domainErr.Kind == apperrors.KindInvariant {
		return TelemetryStatusFailed, domainErr.Code
	}
	return TelemetryStatusRejected, domainErr.Code
}
