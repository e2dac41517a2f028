package docscmd

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-catalog/internal/commands"
	"github.com/goliatone/go-catalog/internal/docs"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const publishDraftMessageType = "catalog.docs.publish"

// PublishDraftCommand promotes the draft of one localized document.
type PublishDraftCommand struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Locale  string `json:"locale"`
	Role    string `json:"role"`
	ActorID string `json:"actor_id"`
}

// Type implements command.Message.
func (PublishDraftCommand) Type() string { return publishDraftMessageType }

// Validate checks that the kind is a localized document and that the key is
// present for every kind except the homepage.
func (m PublishDraftCommand) Validate() error {
	errs := validation.Errors{}
	kind, ok := domain.ParseEntityKind(m.Kind)
	switch {
	case !ok || !kind.Localized():
		errs["kind"] = validation.NewError("catalog.docs.publish.kind_invalid", "kind must be productDoc, homepage, leaderboard or collection")
	case kind != domain.KindHomepage && m.Key == "":
		errs["key"] = validation.NewError("catalog.docs.publish.key_required", "key is required")
	}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("catalog.docs.publish.locale_required", "locale is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishDraftHandler dispatches to the matching publish operation.
type PublishDraftHandler struct {
	inner *commands.Handler[PublishDraftCommand]
}

// NewPublishDraftHandler constructs a handler wired to service.
func NewPublishDraftHandler(service docs.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishDraftCommand]) *PublishDraftHandler {
	exec := func(ctx context.Context, msg PublishDraftCommand) error {
		kind, _ := domain.ParseEntityKind(msg.Kind)
		req := docs.PublishRequest{
			Key:     msg.Key,
			Locale:  msg.Locale,
			Role:    domain.ParseRole(msg.Role),
			ActorID: msg.ActorID,
		}
		var err error
		switch kind {
		case domain.KindProductDoc:
			_, err = service.PublishProductDraft(ctx, req)
		case domain.KindHomepage:
			_, err = service.PublishHomepageDraft(ctx, req)
		case domain.KindLeaderboard:
			_, err = service.PublishLeaderboardDraft(ctx, req)
		case domain.KindCollection:
			_, err = service.PublishCollectionDraft(ctx, req)
		default:
			err = fmt.Errorf("docscmd: unsupported kind %q", msg.Kind)
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishDraftCommand]{
		commands.WithLogger[PublishDraftCommand](logger),
		commands.WithOperation[PublishDraftCommand]("docs.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishDraftHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PublishDraftCommand].
func (h *PublishDraftHandler) Execute(ctx context.Context, msg PublishDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand.
func (h *PublishDraftHandler) CLIHandler() any {
	return h
}

func (h *PublishDraftHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"docs", "publish"},
		Group:       "docs",
		Description: "Publish the current draft of a localized document",
	}
}
