// Package uploads checks users/jobs files before they are sent to the
// recommender, so an obviously broken file never replaces the service's data.
package uploads

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"skillscope/dashboard/internal/model"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// FieldError is a single schema violation at a document path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every reason a file was rejected.
type ValidationError struct {
	File   string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is not a valid upload:", e.File)
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, fe.Field, fe.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Validate checks that data is a .json file matching the schema for kind.
func Validate(kind model.UploadKind, filename string, data []byte) error {
	if !strings.EqualFold(filepath.Ext(filename), ".json") {
		return &ValidationError{File: filename, Errors: []FieldError{{Field: "(file)", Message: "file must be JSON format"}}}
	}
	if !json.Valid(data) {
		return &ValidationError{File: filename, Errors: []FieldError{{Field: "(root)", Message: "invalid JSON"}}}
	}

	schema, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.schema.json", kind))
	if err != nil {
		return fmt.Errorf("no upload schema for kind %q: %w", kind, err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation of %s: %w", filename, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{File: filename, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}
