// Package validation checks caller-facing request bodies against JSON schemas
// before they reach the pipeline.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "procedure-assistant/internal/common/errors"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile panics on an invalid schema; schemas are package constants.
func MustCompile(name, definition string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definition))
	if err != nil {
		panic(fmt.Sprintf("validation: schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string {
	return s.name
}

// ValidateJSON validates a raw JSON document. Malformed JSON is reported as a
// single error on the root.
func (s *Schema) ValidateJSON(doc []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateInput validates a decoded value such as zeebe job variables.
func (s *Schema) ValidateInput(input interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(input))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "request body is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(re),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Errors: errs}
}

// fieldOf names the offending property; required errors are reported on the
// parent, so the missing property is taken from the details.
func fieldOf(re gojsonschema.ResultError) string {
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			if re.Field() == "(root)" {
				return prop
			}
			return re.Field() + "." + prop
		}
	}
	return re.Field()
}

// Fields lists the distinct invalid fields in order.
func (vr *ValidationResult) Fields() []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, e := range vr.Errors {
		if _, ok := seen[e.Field]; ok {
			continue
		}
		seen[e.Field] = struct{}{}
		fields = append(fields, e.Field)
	}
	return fields
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// HasCode reports whether any error has the given code, e.g. "REQUIRED".
func (vr *ValidationResult) HasCode(code string) bool {
	for _, err := range vr.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

// Err converts a failed result to a VALIDATION_FAILED error, nil when valid.
func (vr *ValidationResult) Err(message string) error {
	if vr.Valid {
		return nil
	}
	err := apperrors.NewFieldValidationError(message, vr.Fields())
	return err.WithMetadata("violations", vr.GetErrorMessages())
}
