package audit

import (
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-catalog/internal/jsonpath"
)

// Change operations reported by Diff.
const (
	OpAdded   = "added"
	OpRemoved = "removed"
	OpChanged = "changed"
)

// Change describes one differing leaf between two snapshots.
type Change struct {
	Path   string `json:"path"`
	Op     string `json:"op"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
}

// Diff compares two snapshots after normalising them to JSON values.
// Objects are walked key by key; any other value (arrays included) is
// compared as a whole. The root path is the empty string.
func Diff(before, after any) ([]Change, error) {
	b, err := jsonpath.Normalize(before)
	if err != nil {
		return nil, err
	}
	a, err := jsonpath.Normalize(after)
	if err != nil {
		return nil, err
	}
	var changes []Change
	collect("", b, b != nil, a, a != nil, &changes)
	return changes, nil
}

func collect(path string, before any, hasBefore bool, after any, hasAfter bool, out *[]Change) {
	switch {
	case !hasBefore && !hasAfter:
		return
	case !hasBefore:
		*out = append(*out, Change{Path: path, Op: OpAdded, After: after})
		return
	case !hasAfter:
		*out = append(*out, Change{Path: path, Op: OpRemoved, Before: before})
		return
	}

	bm, bIsMap := before.(map[string]any)
	am, aIsMap := after.(map[string]any)
	if !bIsMap || !aIsMap {
		if !cmp.Equal(before, after) {
			*out = append(*out, Change{Path: path, Op: OpChanged, Before: before, After: after})
		}
		return
	}

	keys := make([]string, 0, len(bm)+len(am))
	seen := map[string]struct{}{}
	for k := range bm {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range am {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		bv, bok := bm[k]
		av, aok := am[k]
		collect(join(path, k), bv, bok, av, aok, out)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// BuildDiff returns the stored diff document: both snapshots plus the change list.
func BuildDiff(before, after any) (map[string]any, error) {
	changes, err := Diff(before, after)
	if err != nil {
		return nil, err
	}
	b, err := jsonpath.Normalize(before)
	if err != nil {
		return nil, err
	}
	a, err := jsonpath.Normalize(after)
	if err != nil {
		return nil, err
	}
	list := make([]any, 0, len(changes))
	for _, change := range changes {
		entry := map[string]any{"path": change.Path, "op": change.Op}
		if change.Op != OpAdded {
			entry["before"] = change.Before
		}
		if change.Op != OpRemoved {
			entry["after"] = change.After
		}
		list = append(list, entry)
	}
	return map[string]any{
		"before":  b,
		"after":   a,
		"changes": list,
	}, nil
}
