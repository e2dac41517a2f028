// Package markdown reads Markdown sources with YAML frontmatter.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// yamlFormat decodes YAML frontmatter with yaml.v3 so nested mappings come
// back as map[string]any.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Document is a parsed Markdown source.
type Document struct {
	// Fields holds the frontmatter keys as decoded from YAML.
	Fields map[string]any
	Body   string
}

// ParseFrontMatter extracts the frontmatter fields and the body without
// delimiters. A source without frontmatter yields empty fields.
func ParseFrontMatter(source []byte) (*Document, error) {
	fields := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &fields, yamlFormat)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return &Document{
		Fields: fields,
		Body:   strings.TrimSpace(string(body)),
	}, nil
}
