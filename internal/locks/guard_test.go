package locks

import (
	"errors"
	"testing"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/domain"
)

func TestCheckRejectsEditorChangingLockedField(t *testing.T) {
	locked := map[string]bool{"canonicalSummary": true}
	prev := map[string]any{"canonicalSummary": "old"}
	next := map[string]any{"canonicalSummary": "new"}

	err := Check(domain.RoleEditor, locked, prev, next)
	if err == nil {
		t.Fatal("expected locked field error")
	}
	if err.Error() != "locked_field_modified:canonicalSummary" {
		t.Fatalf("unexpected error %q", err.Error())
	}
	if !errors.Is(err, apperrors.ErrAuthorization) {
		t.Fatalf("expected authorization kind, got %v", err)
	}

	if err := Check(domain.RoleAdmin, locked, prev, next); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
}

func TestCheckAllowsUnlockedAndFalseFlags(t *testing.T) {
	locked := map[string]bool{"canonicalSummary": false}
	prev := map[string]any{"canonicalSummary": "old", "definition": "a"}
	next := map[string]any{"canonicalSummary": "new", "definition": "b"}
	if err := Check(domain.RoleEditor, locked, prev, next); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCheckComparesStructurally(t *testing.T) {
	locked := map[string]bool{"geo": true}
	prev := map[string]any{"geo": map[string]any{"keywords": []any{"a", "b"}, "rank": float64(1)}}
	next := map[string]any{"geo": map[string]any{"rank": 1, "keywords": []string{"a", "b"}}, "other": true}
	if err := Check(domain.RoleEditor, locked, prev, next); err != nil {
		t.Fatalf("expected structurally equal values to pass, got %v", err)
	}
}

func TestCheckTreatsMissingAsUndefined(t *testing.T) {
	locked := map[string]bool{"identity.name": true}
	if err := Check(domain.RoleEditor, locked, map[string]any{}, map[string]any{"identity": map[string]any{}}); err != nil {
		t.Fatalf("expected missing on both sides to pass, got %v", err)
	}
	err := Check(domain.RoleEditor, locked, map[string]any{}, map[string]any{"identity": map[string]any{"name": "x"}})
	if apperrors.CodeOf(err) != apperrors.CodeLockedFieldModified {
		t.Fatalf("expected adding a locked value to fail, got %v", err)
	}
	err = Check(domain.RoleEditor, locked, map[string]any{"identity": map[string]any{"name": nil}}, map[string]any{})
	if apperrors.CodeOf(err) != apperrors.CodeLockedFieldModified {
		t.Fatalf("expected removing an explicit null to fail, got %v", err)
	}
}

func TestCheckRejectsArrayPaths(t *testing.T) {
	locked := map[string]bool{"items.0": true}
	prev := map[string]any{"items": []any{"a"}}
	err := Check(domain.RoleEditor, locked, prev, prev)
	if apperrors.CodeOf(err) != apperrors.CodeUnsupportedPath {
		t.Fatalf("expected unsupported path, got %v", err)
	}
}

func TestCheckLockMutation(t *testing.T) {
	if err := CheckLockMutation(domain.RoleEditor, nil); err != nil {
		t.Fatalf("expected nil payload to pass, got %v", err)
	}
	err := CheckLockMutation(domain.RoleEditor, map[string]bool{})
	if apperrors.CodeOf(err) != apperrors.CodeLockedFieldsAdmin {
		t.Fatalf("expected admin only error, got %v", err)
	}
	if err := CheckLockMutation(domain.RoleAdmin, map[string]bool{"a": true}); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
}
