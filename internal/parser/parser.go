// Package parser decodes raw match documents into generic key-value trees.
// It performs no domain validation; absent or malformed fields are left for
// the flatteners to resolve.
package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Document is one decoded match document.
type Document map[string]any

// decoder keeps numbers as json.Number so integer columns are never
// rounded through float64.
var decoder = jsoniter.Config{
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Parse decodes data into a Document. id is the document identifier used
// in error messages.
func Parse(id string, data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newParseError(id, "empty document", nil)
	}

	var v any
	if err := decoder.Unmarshal(data, &v); err != nil {
		return nil, newParseError(id, "invalid JSON", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, newParseError(id, fmt.Sprintf("top level is %s, want object", kindOf(v)), nil)
	}
	return Document(obj), nil
}

// ParseFile reads and decodes the document at path.
func ParseFile(path string) (Document, error) {
	id := DocumentID(path)
	data, err := os.ReadFile(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return Parse(id, data)
}

// DocumentID derives a document's identity from its filename without the
// extension. It never looks at content.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
