package productscmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-catalog/internal/commands"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const archiveProductMessageType = "catalog.products.archive"

// ArchiveProductCommand soft deletes a product.
type ArchiveProductCommand struct {
	CanonicalID string `json:"canonical_id"`
	ActorID     string `json:"actor_id"`
}

// Type implements command.Message.
func (ArchiveProductCommand) Type() string { return archiveProductMessageType }

func (m ArchiveProductCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.CanonicalID, validation.Required.ErrorObject(
			validation.NewError("catalog.products.archive.canonical_id_required", "canonical_id is required"))),
	)
}

// ArchiveProductHandler archives products through the product service.
type ArchiveProductHandler struct {
	inner *commands.Handler[ArchiveProductCommand]
}

// NewArchiveProductHandler constructs a handler wired to service.
func NewArchiveProductHandler(service products.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ArchiveProductCommand]) *ArchiveProductHandler {
	logger = commands.EnsureLogger(logger)
	exec := func(ctx context.Context, msg ArchiveProductCommand) error {
		result, err := service.Delete(ctx, msg.CanonicalID, msg.ActorID)
		if err != nil {
			return err
		}
		logging.WithFields(logger, map[string]any{
			"canonical_id":     msg.CanonicalID,
			"already_archived": result.AlreadyArchived,
		}).Info("products.command.archive.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ArchiveProductCommand]{
		commands.WithLogger[ArchiveProductCommand](logger),
		commands.WithOperation[ArchiveProductCommand]("products.archive"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ArchiveProductHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ArchiveProductCommand].
func (h *ArchiveProductHandler) Execute(ctx context.Context, msg ArchiveProductCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand.
func (h *ArchiveProductHandler) CLIHandler() any {
	return h
}

func (h *ArchiveProductHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"products", "archive"},
		Group:       "products",
		Description: "Archive a product; archived slugs can be reclaimed",
	}
}
