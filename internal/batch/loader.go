package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-catalog/internal/markdown"
)

// ErrUnsupportedFile marks a batch file whose extension has no loader.
var ErrUnsupportedFile = errors.New("unsupported_file_type")

// LoadFile reads batch items from name. JSON and YAML files hold an array
// of items or an object with an items array; CSV files hold one item per
// row; a Markdown file is one item whose body becomes content.definition.
func LoadFile(fsys fs.FS, name string) ([]map[string]any, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("batch loader read %s: %w", name, err)
	}
	return Decode(path.Ext(name), data)
}

// LoadDirectory loads every supported file directly under dir, in name order.
func LoadDirectory(fsys fs.FS, dir string) ([]map[string]any, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("batch loader read dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		names = append(names, path.Join(dir, entry.Name()))
	}
	sort.Strings(names)

	items := []map[string]any{}
	for _, name := range names {
		loaded, err := LoadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		items = append(items, loaded...)
	}
	return items, nil
}

// Supported reports whether name has a loader.
func Supported(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml", ".csv", ".md":
		return true
	}
	return false
}

// Decode parses data according to the file extension ext.
func Decode(ext string, data []byte) ([]map[string]any, error) {
	ext = strings.ToLower(ext)
	switch ext {
	case ".json":
		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("batch loader json: %w", err)
		}
		return itemsOf(parsed)
	case ".yaml", ".yml":
		var parsed any
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("batch loader yaml: %w", err)
		}
		return itemsOf(parsed)
	case ".csv":
		return decodeCSV(data)
	case ".md":
		item, err := decodeMarkdown(data)
		if err != nil {
			return nil, err
		}
		return []map[string]any{item}, nil
	}
	return nil, fmt.Errorf("%w:%s", ErrUnsupportedFile, ext)
}

func itemsOf(parsed any) ([]map[string]any, error) {
	var list []any
	switch value := parsed.(type) {
	case nil:
		return []map[string]any{}, nil
	case []any:
		list = value
	case map[string]any:
		items, ok := value["items"].([]any)
		if !ok {
			return []map[string]any{}, nil
		}
		list = items
	default:
		return nil, fmt.Errorf("batch loader: unexpected document of type %T", parsed)
	}

	out := make([]map[string]any, 0, len(list))
	for index, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("batch loader: item %d is not an object", index)
		}
		out = append(out, item)
	}
	return out, nil
}

func decodeCSV(data []byte) ([]map[string]any, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("batch loader csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	reader.FieldsPerRecord = len(header)

	out := []map[string]any{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("batch loader csv: %w", err)
		}
		item := make(map[string]any, len(header))
		for i, column := range header {
			item[column] = maybeJSON(record[i])
		}
		out = append(out, item)
	}
	return out, nil
}

// maybeJSON decodes cells that look like JSON objects or arrays and keeps
// every other cell as the raw string.
func maybeJSON(value string) any {
	trimmed := strings.TrimSpace(value)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return value
}

func decodeMarkdown(data []byte) (map[string]any, error) {
	doc, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return nil, fmt.Errorf("batch loader markdown: %w", err)
	}
	item := doc.Fields
	if doc.Body == "" {
		return item, nil
	}
	content, _ := item["content"].(map[string]any)
	if content == nil {
		content = map[string]any{}
	}
	if _, ok := content["definition"]; !ok {
		content["definition"] = doc.Body
	}
	item["content"] = content
	return item, nil
}
