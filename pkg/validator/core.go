package validator

import (
	"errors"
	"fmt"
	"strings"
)

type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ValidationError represents a single failed rule for a field.
type ValidationError struct {
	Field   string
	Message string
	Key     string
	Values  map[string]any
}

// String renders the error with the field path quoted, for example
// `"data.fullname" is required`.
func (e ValidationError) String() string {
	return fmt.Sprintf("%q %s", e.Field, e.Message)
}

// ValidationErrors represents a collection of validation errors.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(ve.Messages(), "; ")
}

// Merge appends all errors of other to ve.
func (ve *ValidationErrors) Merge(other ValidationErrors) {
	*ve = append(*ve, other...)
}

// Messages returns every error rendered with its quoted field path.
func (ve ValidationErrors) Messages() []string {
	out := make([]string, 0, len(ve))
	for _, err := range ve {
		out = append(out, err.String())
	}
	return out
}

func (ve ValidationErrors) IsEmpty() bool {
	return len(ve) == 0
}

// Rule represents a single validation rule.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and collects all failures. It never stops early.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// Collect is Apply returning the concrete slice, nil when every rule passes.
func Collect(rules ...Rule) ValidationErrors {
	return ExtractValidationErrors(Apply(rules...))
}

// ExtractValidationErrors extracts ValidationErrors from an error.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	var validationErr ValidationErrors
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

func newError(field, message, key string, values map[string]any) ValidationError {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return ValidationError{Field: field, Message: message, Key: key, Values: values}
}
