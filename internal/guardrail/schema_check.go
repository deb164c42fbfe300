package guardrail

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/devjibs/cvagent/internal/schemas"
)

// ViolationSchema is reported when structured collaborator output does not
// conform to its declared JSON Schema.
const ViolationSchema = "SchemaViolation"

// SchemaConformanceCheck validates a stage's structured output against one of
// the embedded JSON Schemas.
type SchemaConformanceCheck struct {
	schema string
}

// NewSchemaConformanceCheck creates a schema post-check for the named
// embedded schema (see the schemas package constants).
func NewSchemaConformanceCheck(schema string) *SchemaConformanceCheck {
	return &SchemaConformanceCheck{schema: schema}
}

func (c *SchemaConformanceCheck) Name() string   { return "schema_conformance" }
func (c *SchemaConformanceCheck) Priority() int  { return 10 }
func (c *SchemaConformanceCheck) Policy() Policy { return Blocking }

func (c *SchemaConformanceCheck) Evaluate(_ context.Context, _ Direction, payload any, _ ContextReader) Verdict {
	doc, err := json.Marshal(payload)
	if err != nil {
		return Verdict{
			Check:             c.Name(),
			TripwireTriggered: true,
			AllowExecution:    false,
			ViolationType:     ViolationGuardrailError,
			Message:           "failed to marshal payload for schema validation: " + err.Error(),
		}
	}

	err = schemas.Validate(c.schema, doc)
	if err == nil {
		return Pass(c.Name())
	}

	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		v := Trip(c.Name(), c.Policy(), ViolationSchema, ve.Error())
		details := make(map[string]any, len(ve.Errors))
		for _, fe := range ve.Errors {
			details[fe.Field] = fe.Message
		}
		v.Details = details
		return v
	}

	// Schema load failures are guardrail-internal, not business rejections.
	return Verdict{
		Check:             c.Name(),
		TripwireTriggered: true,
		AllowExecution:    false,
		ViolationType:     ViolationGuardrailError,
		Message:           err.Error(),
	}
}
