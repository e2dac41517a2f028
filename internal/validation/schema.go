// Package validation checks document content against the embedded content
// schemas. Findings are advisory; callers decide whether they block a write.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-catalog/internal/domain"
	"github.com/goliatone/go-catalog/internal/jsonpath"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var ErrSchemaValidation = errors.New("schema validation failed")

// Issue is a single schema violation.
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// String renders the issue as "#/location: message".
func (i Issue) String() string {
	location := strings.TrimSpace(i.Location)
	if !strings.HasPrefix(location, "#") {
		location = "#" + location
	}
	if i.Message == "" {
		return location
	}
	return location + ": " + i.Message
}

// PayloadError lists the issues found in one payload.
type PayloadError struct {
	Kind   domain.EntityKind
	Issues []Issue
}

func (e *PayloadError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *PayloadError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts the issues carried by err.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return collectIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Validator holds the compiled content schemas.
type Validator struct {
	schemas map[domain.EntityKind]*jsonschema.Schema
}

var schemaKinds = []domain.EntityKind{
	domain.KindProductDoc,
	domain.KindCollection,
	domain.KindLeaderboard,
	domain.KindHomepage,
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[domain.EntityKind]*jsonschema.Schema, len(schemaKinds))}
	for _, kind := range schemaKinds {
		raw, err := schemaFS.ReadFile("schemas/" + string(kind) + ".json")
		if err != nil {
			return nil, fmt.Errorf("validation: read %s schema: %w", kind, err)
		}
		compiled, err := compile(string(kind)+".json", raw)
		if err != nil {
			return nil, fmt.Errorf("validation: compile %s schema: %w", kind, err)
		}
		v.schemas[kind] = compiled
	}
	return v, nil
}

// MustValidator is NewValidator for package initialisation.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks content against the schema of kind. Kinds without a
// schema always pass.
func (v *Validator) Validate(kind domain.EntityKind, content map[string]any) error {
	if v == nil {
		return nil
	}
	schema, ok := v.schemas[kind]
	if !ok {
		return nil
	}
	normalized, err := jsonpath.NormalizeObject(content)
	if err != nil {
		return fmt.Errorf("validation: normalise %s content: %w", kind, err)
	}
	if err := schema.Validate(normalized); err != nil {
		return &PayloadError{Kind: kind, Issues: Issues(err)}
	}
	return nil
}

func compile(name string, raw []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
