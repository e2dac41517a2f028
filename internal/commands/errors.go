package commands

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-catalog/internal/apperrors"
)

const (
	codeInvalidMessage = "CATALOG_COMMAND_INVALID"
	codeCancelled      = "CATALOG_COMMAND_CANCELLED"
	codeDeadline       = "CATALOG_COMMAND_DEADLINE"
	codeContext        = "CATALOG_COMMAND_CONTEXT"
	codeFailed         = "CATALOG_COMMAND_FAILED"
)

// WrapValidationError tags err as an invalid command message.
func WrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "catalog command rejected").
		WithTextCode(codeInvalidMessage)
}

// WrapContextError tags cancellation and deadline failures.
func WrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	code, message := codeContext, "catalog command context failed"
	switch {
	case errors.Is(err, context.Canceled):
		code, message = codeCancelled, "catalog command cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		code, message = codeDeadline, "catalog command timed out"
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

// WrapExecuteError tags a failure returned by a catalog service. Domain
// errors keep their code in the text code (product_not_found becomes
// CATALOG_PRODUCT_NOT_FOUND) and stay reachable through errors.As.
func WrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	domainErr, ok := apperrors.As(err)
	if !ok {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "catalog command failed").
			WithTextCode(codeFailed)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "catalog "+string(domainErr.Kind)).
		WithTextCode(TextCode(err))
}

// TextCode returns the machine code reported for err.
func TextCode(err error) string {
	code := apperrors.CodeOf(err)
	if code == "" {
		return codeFailed
	}
	return "CATALOG_" + strings.ToUpper(code)
}
