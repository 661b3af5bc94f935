package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	compiled *gojsonschema.Schema
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Compile parses a JSON schema document.
func Compile(schemaJSON string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks document (a map, struct or JSON-compatible value) against
// the schema. Errors are sorted by field so results are stable.
func (s *Schema) Validate(document interface{}) (*ValidationResult, error) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(re),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

// ValidateInput compiles schemaJSON and validates input in one step.
func ValidateInput(input map[string]interface{}, schemaJSON string) (*ValidationResult, error) {
	s, err := Compile(schemaJSON)
	if err != nil {
		return nil, err
	}
	return s.Validate(input)
}

const rootField = "(root)"

// fieldOf reports the offending property; required and unknown-property
// errors point at the child rather than its parent.
func fieldOf(re gojsonschema.ResultError) string {
	field := re.Field()
	if re.Type() != "required" && re.Type() != "additional_property_not_allowed" {
		return field
	}
	prop, _ := re.Details()["property"].(string)
	if prop == "" || field == prop || strings.HasSuffix(field, "."+prop) {
		return field
	}
	if field == rootField {
		return prop
	}
	return field + "." + prop
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

// GetErrorsForField returns errors for a specific field and its children.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
