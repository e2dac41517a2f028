// Package jsonpath resolves dotted paths against decoded JSON values.
package jsonpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrArrayTraversal is returned when a path segment would index into an array.
var ErrArrayTraversal = errors.New("jsonpath: array traversal is not supported")

// ErrEmptyPath is returned for blank paths or paths with empty segments.
var ErrEmptyPath = errors.New("jsonpath: empty path segment")

// Value is the result of a lookup. Defined is false when any segment is
// missing, which mirrors an undefined value in JSON.
type Value struct {
	Defined bool
	Raw     any
}

// Lookup walks root following the dot separated path.
//
// Missing keys and nil intermediates resolve to an undefined Value without
// error. Descending into an array returns ErrArrayTraversal; descending into
// a scalar yields undefined.
func Lookup(root any, path string) (Value, error) {
	segments, err := Split(path)
	if err != nil {
		return Value{}, err
	}
	return lookup(root, segments, path)
}

func lookup(current any, segments []string, path string) (Value, error) {
	if len(segments) == 0 {
		return Value{Defined: true, Raw: current}, nil
	}
	switch node := current.(type) {
	case map[string]any:
		next, ok := node[segments[0]]
		if !ok {
			return Value{}, nil
		}
		return lookup(next, segments[1:], path)
	case []any:
		return Value{}, fmt.Errorf("%w: %s", ErrArrayTraversal, path)
	case []map[string]any:
		return Value{}, fmt.Errorf("%w: %s", ErrArrayTraversal, path)
	default:
		return Value{}, nil
	}
}

// Split breaks a dotted path into segments.
func Split(path string) ([]string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrEmptyPath
	}
	segments := strings.Split(trimmed, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyPath, path)
		}
	}
	return segments, nil
}

// Normalize round-trips v through encoding/json so values built in Go
// (ints, typed slices, structs) compare equal to their decoded form.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: normalize: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("jsonpath: normalize: %w", err)
	}
	return out, nil
}

// NormalizeObject is Normalize for object documents. Nil input yields an empty map.
func NormalizeObject(v map[string]any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	out, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return obj, nil
}
