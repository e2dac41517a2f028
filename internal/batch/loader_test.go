package batch

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-catalog/pkg/testsupport"
)

func TestDecodeJSON(t *testing.T) {
	array, err := Decode(".json", []byte(`[{"canonicalId":"hades"}]`))
	if err != nil {
		t.Fatalf("Decode array: %v", err)
	}
	wrapped, err := Decode(".JSON", []byte(`{"items":[{"canonicalId":"hades"}]}`))
	if err != nil {
		t.Fatalf("Decode wrapped: %v", err)
	}
	want := []map[string]any{{"canonicalId": "hades"}}
	if diff := cmp.Diff(want, array); diff != "" {
		t.Fatalf("array mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, wrapped); diff != "" {
		t.Fatalf("wrapped mismatch (-want +got):\n%s", diff)
	}

	empty, err := Decode(".json", []byte(`{"other":true}`))
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no items, got %v (%v)", empty, err)
	}
}

func TestDecodeYAML(t *testing.T) {
	source := []byte("items:\n  - boardId: games_top\n    content:\n      title: Top games\n")
	items, err := Decode(".yml", source)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []map[string]any{{
		"boardId": "games_top",
		"content": map[string]any{"title": "Top games"},
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeCSV(t *testing.T) {
	source := []byte("canonicalId,slugByLocale,typeTaxonomy,developer\n" +
		"hades,\"{\"\"zh-CN\"\":\"\"hades-zh\"\",\"\"en\"\":\"\"hades\"\"}\",\"[\"\"roguelike\"\"]\",Supergiant\n" +
		"celeste,{broken,[],\n")
	items, err := Decode(".csv", source)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []map[string]any{
		{
			"canonicalId":  "hades",
			"slugByLocale": map[string]any{"zh-CN": "hades-zh", "en": "hades"},
			"typeTaxonomy": []any{"roguelike"},
			"developer":    "Supergiant",
		},
		{
			"canonicalId":  "celeste",
			"slugByLocale": "{broken",
			"typeTaxonomy": []any{},
			"developer":    "",
		},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMarkdown(t *testing.T) {
	source := []byte("---\ncanonicalId: hades\nlocale: en\ncontent:\n  canonicalSummary: Rogue-like\n---\nLong form definition.\n")
	items, err := Decode(".md", source)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []map[string]any{{
		"canonicalId": "hades",
		"locale":      "en",
		"content": map[string]any{
			"canonicalSummary": "Rogue-like",
			"definition":       "Long form definition.",
		},
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode(".txt", []byte("x"))
	if !errors.Is(err, ErrUnsupportedFile) || err.Error() != "unsupported_file_type:.txt" {
		t.Fatalf("expected unsupported file error, got %v", err)
	}
}

func TestLoadDirectory(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/b.md":      {Data: []byte("---\ncanonicalId: b\n---\n")},
		"docs/a.json":    {Data: []byte(`[{"canonicalId":"a"}]`)},
		"docs/notes.txt": {Data: []byte("ignored")},
	}
	items, err := LoadDirectory(fsys, "docs")
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(items) != 2 || items[0]["canonicalId"] != "a" || items[1]["canonicalId"] != "b" {
		t.Fatalf("unexpected items %#v", items)
	}

	file, err := LoadFile(fsys, "docs/a.json")
	if err != nil || len(file) != 1 {
		t.Fatalf("LoadFile: %v %#v", err, file)
	}
}

func TestDecodeYAMLMatchesGolden(t *testing.T) {
	items, err := Decode(".yaml", testsupport.ReadFixture(t, "testdata/collections.yaml"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var want []map[string]any
	testsupport.ReadGolden(t, "testdata/collections.golden.json", &want)
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}
