package batchcmd

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-catalog/internal/batch"
	"github.com/goliatone/go-catalog/internal/commands"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const (
	validateBatchMessageType = "catalog.batch.validate"
	applyBatchMessageType    = "catalog.batch.apply"
)

// ErrBatchInvalid is returned by the apply handler when validation rejected
// the batch and nothing was written.
var ErrBatchInvalid = errors.New("batch validation failed; apply skipped")

// ValidateBatchCommand classifies a batch without writing anything.
type ValidateBatchCommand struct {
	EntityType string           `json:"entity_type"`
	Locale     string           `json:"locale,omitempty"`
	Items      []map[string]any `json:"items"`
}

// Type implements command.Message.
func (ValidateBatchCommand) Type() string { return validateBatchMessageType }

func (m ValidateBatchCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.EntityType, validation.Required.ErrorObject(
			validation.NewError("catalog.batch.entity_type_required", "entity_type is required"))),
	)
}

// ApplyBatchCommand validates and, when every item is valid, applies a batch.
type ApplyBatchCommand struct {
	EntityType string           `json:"entity_type"`
	Locale     string           `json:"locale,omitempty"`
	Items      []map[string]any `json:"items"`
	Role       string           `json:"role"`
	ActorID    string           `json:"actor_id"`
}

// Type implements command.Message.
func (ApplyBatchCommand) Type() string { return applyBatchMessageType }

func (m ApplyBatchCommand) Validate() error {
	errs := validation.Errors{}
	if m.EntityType == "" {
		errs["entity_type"] = validation.NewError("catalog.batch.entity_type_required", "entity_type is required")
	}
	if domain.ParseRole(m.Role) == "" {
		errs["role"] = validation.NewError("catalog.batch.role_invalid", "role must be viewer, editor or admin")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationObserver receives the validation result of every execution.
type ValidationObserver func(ctx context.Context, result *batch.ValidationResult)

// ApplyObserver receives the apply result of every execution, including
// batches rejected at validation.
type ApplyObserver func(ctx context.Context, result *batch.UpsertResult)

// ValidateBatchHandler runs batch validation.
type ValidateBatchHandler struct {
	inner *commands.Handler[ValidateBatchCommand]
}

// NewValidateBatchHandler constructs a handler wired to service. observer may be nil.
func NewValidateBatchHandler(service batch.Service, logger interfaces.Logger, observer ValidationObserver, opts ...commands.HandlerOption[ValidateBatchCommand]) *ValidateBatchHandler {
	exec := func(ctx context.Context, msg ValidateBatchCommand) error {
		result, err := service.Validate(ctx, batch.Request{
			EntityType: msg.EntityType,
			Locale:     msg.Locale,
			Items:      msg.Items,
		})
		if err != nil {
			return err
		}
		if observer != nil {
			observer(ctx, result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ValidateBatchCommand]{
		commands.WithLogger[ValidateBatchCommand](logger),
		commands.WithOperation[ValidateBatchCommand]("batch.validate"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ValidateBatchHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ValidateBatchCommand].
func (h *ValidateBatchHandler) Execute(ctx context.Context, msg ValidateBatchCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand.
func (h *ValidateBatchHandler) CLIHandler() any {
	return h
}

func (h *ValidateBatchHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"batch", "validate"},
		Group:       "batch",
		Description: "Classify batch items as create, update or error without writing",
	}
}

// ApplyBatchHandler runs validation followed by apply.
type ApplyBatchHandler struct {
	inner *commands.Handler[ApplyBatchCommand]
}

// NewApplyBatchHandler constructs a handler wired to service. observer may be nil.
func NewApplyBatchHandler(service batch.Service, logger interfaces.Logger, observer ApplyObserver, opts ...commands.HandlerOption[ApplyBatchCommand]) *ApplyBatchHandler {
	exec := func(ctx context.Context, msg ApplyBatchCommand) error {
		result, err := service.Upsert(ctx, batch.Request{
			EntityType: msg.EntityType,
			Locale:     msg.Locale,
			Items:      msg.Items,
			Role:       domain.ParseRole(msg.Role),
			ActorID:    msg.ActorID,
		})
		if err != nil {
			return err
		}
		if observer != nil {
			observer(ctx, result)
		}
		if !result.Valid {
			return ErrBatchInvalid
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ApplyBatchCommand]{
		commands.WithLogger[ApplyBatchCommand](logger),
		commands.WithOperation[ApplyBatchCommand]("batch.apply"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ApplyBatchHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ApplyBatchCommand].
func (h *ApplyBatchHandler) Execute(ctx context.Context, msg ApplyBatchCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand.
func (h *ApplyBatchHandler) CLIHandler() any {
	return h
}

func (h *ApplyBatchHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"batch", "apply"},
		Group:       "batch",
		Description: "Validate and apply a batch of catalog items",
	}
}
