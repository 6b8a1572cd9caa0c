// internal/config/validation.go
package config

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/valpere/tatooine/internal/extract"
	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
	"golang.org/x/text/encoding/htmlindex"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var allowedMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions,
}

// Validate checks the file against the built-in engines and the given
// custom engine names
func (f *SchemaFile) Validate(customEngines ...string) error {
	result := f.ValidateWithDetails(customEngines...)
	if result.Valid {
		return nil
	}
	return formatValidationError(result)
}

// ValidateWithDetails returns every problem found instead of a single error
func (f *SchemaFile) ValidateWithDetails(customEngines ...string) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	if f == nil || len(f.Schemas) == 0 {
		result.addError("schemas", "", "at least one schema is required")
		return result
	}

	for i, schema := range f.Schemas {
		validateSchema(fmt.Sprintf("schemas[%d]", i), schema, customEngines, result)
	}

	return result
}

func validateSchema(prefix string, schema *types.Schema, customEngines []string, result *ValidationResult) {
	if schema == nil {
		result.addError(prefix, "", "schema cannot be empty")
		return
	}

	if schema.Engine == "" {
		result.addError(prefix+".engine", "", "engine is required")
		return
	}

	if !types.IsBuiltinEngine(schema.Engine) {
		if !contains(customEngines, schema.Engine) {
			result.addError(prefix+".engine", schema.Engine,
				fmt.Sprintf("unknown engine, expected one of: %s", strings.Join(append(types.BuiltinEngines(), customEngines...), ", ")))
		}
		// custom engines define their own options
		return
	}

	validateRequest(prefix+".options.request", schema, result)

	if schema.Options.Limit < 0 {
		result.addError(prefix+".options.limit", fmt.Sprintf("%d", schema.Options.Limit), "limit cannot be negative")
	}

	if charset := schema.Options.DOM.Charset; charset != "" {
		if schema.Engine != types.EngineMarkup {
			result.addWarning("%s.options.dom.charset is only used by the markup engine", prefix)
		} else if _, err := htmlindex.Get(charset); err != nil {
			result.addError(prefix+".options.dom.charset", charset, "unknown character set")
		}
	}

	validateSelectors(prefix+".selectors", schema, result)
}

func validateRequest(prefix string, schema *types.Schema, result *ValidationResult) {
	req := schema.Options.Request

	switch {
	case strings.TrimSpace(req.URL) == "":
		result.addError(prefix+".url", "", "url is required")
	case schema.Engine == types.EngineSPA && !utils.IsNavigableURL(req.URL):
		result.addError(prefix+".url", req.URL, "url cannot be opened in a browser")
	case schema.Engine != types.EngineSPA && !utils.IsValidURL(req.URL):
		result.addError(prefix+".url", req.URL, "url must be an absolute http or https URL")
	}

	if schema.Engine == types.EngineSPA {
		if req.Method != "" && req.Method != http.MethodGet {
			result.addWarning("%s.method is ignored by the spa engine", prefix)
		}
	} else if req.Method != "" && !contains(allowedMethods, strings.ToUpper(req.Method)) {
		result.addError(prefix+".method", req.Method, "unsupported HTTP method")
	}

	if _, err := req.TimeoutDuration(); err != nil {
		result.addError(prefix+".timeout", req.Timeout, err.Error())
	}
}

func validateSelectors(prefix string, schema *types.Schema, result *ValidationResult) {
	root, hasRoot := schema.Selectors.Root()
	fields := schema.Selectors.Fields()

	if len(fields) == 0 {
		result.addWarning("%s has no fields, every record will be empty", prefix)
	}

	// json paths cannot be malformed, only missing
	if schema.Engine == types.EngineJSON {
		return
	}

	if !hasRoot {
		result.addError(prefix+".root", "", fmt.Sprintf("root selector is required by the %s engine", schema.Engine))
	} else if _, err := extract.CompileSelector(root.Value); err != nil {
		result.addError(prefix+".root", root.Value, err.Error())
	}

	if _, err := extract.CompileRules(fields); err != nil {
		result.addError(prefix, "", err.Error())
	}
}

func formatValidationError(result *ValidationResult) error {
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:", len(result.Errors)))
	for _, err := range result.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return fmt.Errorf("%s", sb.String())
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
