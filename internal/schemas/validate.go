// Package schemas provides JSON Schema validation for structured collaborator output.
// Schemas are stored as JSON files and embedded at compile time.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.json
var schemaFiles embed.FS

// cache stores compiled schemas to avoid repeated parsing
var (
	cache   = make(map[string]*gojsonschema.Schema)
	cacheMu sync.RWMutex
)

// Well-known schema file names.
const (
	CandidateProfile = "candidate_profile.json"
	JobPosting       = "job_posting.json"
	MatchResult      = "match_result.json"
)

// ValidationError represents a schema validation failure with field paths.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("schema %s validation failed:", ve.Schema))
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// SchemaLoadError represents errors loading or compiling the schema itself.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validate checks a JSON document against the named embedded schema.
// It returns a *ValidationError when the document does not conform and a
// *SchemaLoadError when the schema itself cannot be loaded.
func Validate(name string, document []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate against %s: %w", name, err)
	}

	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}

// load compiles and caches the named embedded schema.
func load(name string) (*gojsonschema.Schema, error) {
	cacheMu.RLock()
	if schema, exists := cache[name]; exists {
		cacheMu.RUnlock()
		return schema, nil
	}
	cacheMu.RUnlock()

	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}

	cacheMu.Lock()
	cache[name] = schema
	cacheMu.Unlock()

	return schema, nil
}
