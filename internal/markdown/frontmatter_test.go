package markdown

import "testing"

func TestParseFrontMatter(t *testing.T) {
	source := []byte("---\ncanonicalId: hades\nlocale: en\ntags:\n  - roguelike\n---\n\n# Hades\n\nEscape the underworld.\n")

	doc, err := ParseFrontMatter(source)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if doc.Fields["canonicalId"] != "hades" || doc.Fields["locale"] != "en" {
		t.Fatalf("unexpected fields %#v", doc.Fields)
	}
	tags, ok := doc.Fields["tags"].([]any)
	if !ok || len(tags) != 1 || tags[0] != "roguelike" {
		t.Fatalf("unexpected tags %#v", doc.Fields["tags"])
	}
	if doc.Body != "# Hades\n\nEscape the underworld." {
		t.Fatalf("unexpected body %q", doc.Body)
	}
}

func TestParseFrontMatterWithoutHeader(t *testing.T) {
	doc, err := ParseFrontMatter([]byte("plain body"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if len(doc.Fields) != 0 || doc.Body != "plain body" {
		t.Fatalf("unexpected document %#v", doc)
	}
}
