package jsonpath

import (
	"errors"
	"testing"
)

func TestLookupResolvesNestedKeys(t *testing.T) {
	doc := map[string]any{
		"identity": map[string]any{"name": "Guru", "aliases": nil},
		"geo":      map[string]any{"keywords": []any{"a", "b"}},
	}

	value, err := Lookup(doc, "identity.name")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !value.Defined || value.Raw != "Guru" {
		t.Fatalf("unexpected value %+v", value)
	}

	value, err = Lookup(doc, "geo.keywords")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !value.Defined {
		t.Fatalf("expected array leaf to resolve")
	}

	value, err = Lookup(doc, "identity.aliases")
	if err != nil || !value.Defined || value.Raw != nil {
		t.Fatalf("expected explicit null to be defined, got %+v %v", value, err)
	}
}

func TestLookupMissingIntermediateIsUndefined(t *testing.T) {
	doc := map[string]any{"identity": map[string]any{}}
	for _, path := range []string{"missing", "identity.name", "identity.name.first", "missing.deep.path"} {
		value, err := Lookup(doc, path)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", path, err)
		}
		if value.Defined {
			t.Fatalf("%s: expected undefined", path)
		}
	}
}

func TestLookupScalarIntermediateIsUndefined(t *testing.T) {
	value, err := Lookup(map[string]any{"a": "text"}, "a.b")
	if err != nil || value.Defined {
		t.Fatalf("expected undefined, got %+v %v", value, err)
	}
}

func TestLookupRejectsArrayTraversal(t *testing.T) {
	doc := map[string]any{"items": []any{map[string]any{"rank": 1}}}
	_, err := Lookup(doc, "items.0.rank")
	if !errors.Is(err, ErrArrayTraversal) {
		t.Fatalf("expected array traversal error, got %v", err)
	}
}

func TestLookupRejectsEmptySegments(t *testing.T) {
	for _, path := range []string{"", " ", "a..b", ".a"} {
		if _, err := Lookup(map[string]any{}, path); !errors.Is(err, ErrEmptyPath) {
			t.Fatalf("%q: expected empty path error, got %v", path, err)
		}
	}
}
