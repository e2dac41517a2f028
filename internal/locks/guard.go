// Package locks enforces locked-field governance on document content.
package locks

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-catalog/internal/apperrors"
	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/jsonpath"
)

// Check vetoes a content change that alters a locked path. Admin callers
// always pass. Only paths whose flag is true are enforced, in sorted order so
// the reported path is deterministic.
func Check(role domain.Role, lockedFields map[string]bool, previous, next map[string]any) error {
	if role.IsAdmin() || len(lockedFields) == 0 {
		return nil
	}

	prev, err := jsonpath.NormalizeObject(previous)
	if err != nil {
		return err
	}
	proposed, err := jsonpath.NormalizeObject(next)
	if err != nil {
		return err
	}

	for _, path := range LockedPaths(lockedFields) {
		before, err := jsonpath.Lookup(prev, path)
		if err != nil {
			return apperrors.UnsupportedPath(path)
		}
		after, err := jsonpath.Lookup(proposed, path)
		if err != nil {
			return apperrors.UnsupportedPath(path)
		}
		if before.Defined != after.Defined || !cmp.Equal(before.Raw, after.Raw) {
			return apperrors.LockedFieldModified(path)
		}
	}
	return nil
}

// CheckLockMutation rejects any lockedFields payload submitted by a
// non-admin. A nil map means no payload was submitted.
func CheckLockMutation(role domain.Role, submitted map[string]bool) error {
	if submitted == nil || role.IsAdmin() {
		return nil
	}
	return apperrors.LockedFieldsAdminOnly()
}

// LockedPaths returns the enabled paths sorted lexically.
func LockedPaths(lockedFields map[string]bool) []string {
	paths := make([]string, 0, len(lockedFields))
	for path, locked := range lockedFields {
		if locked {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Clone copies a locked field map; nil stays nil.
func Clone(lockedFields map[string]bool) map[string]bool {
	if lockedFields == nil {
		return nil
	}
	out := make(map[string]bool, len(lockedFields))
	for k, v := range lockedFields {
		out[k] = v
	}
	return out
}
