package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Validator wraps the go-playground validator with custom rules
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a validation error with structured information
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ValidationErrors is a slice of ValidationError
type ValidationErrors []ValidationError

// Error implements error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

// New creates a new validator instance with custom validation rules
func New() *Validator {
	validate := validator.New()

	// Register custom validation functions
	validate.RegisterValidation("uuid", validateUUID)
	validate.RegisterValidation("non_empty_set", validateNonEmptySet)

	// Use json tag names instead of struct field names for validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate}
}

// Validate validates a struct and returns structured validation errors
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors ValidationErrors

	for _, err := range err.(validator.ValidationErrors) {
		validationError := ValidationError{
			Field: err.Field(),
			Tag:   err.Tag(),
			Value: fmt.Sprintf("%v", err.Value()),
		}

		// Create human-readable error messages
		switch err.Tag() {
		case "required":
			validationError.Message = fmt.Sprintf("Field '%s' is required", err.Field())
		case "uuid":
			validationError.Message = fmt.Sprintf("Field '%s' must be a valid UUID", err.Field())
		case "min":
			validationError.Message = fmt.Sprintf("Field '%s' must have a minimum value/length of %s", err.Field(), err.Param())
		case "max":
			validationError.Message = fmt.Sprintf("Field '%s' must have a maximum value/length of %s", err.Field(), err.Param())
		case "oneof":
			validationError.Message = fmt.Sprintf("Field '%s' must be one of: %s", err.Field(), err.Param())
		case "alphanum":
			validationError.Message = fmt.Sprintf("Field '%s' must contain only alphanumeric characters", err.Field())
		case "non_empty_set":
			validationError.Message = fmt.Sprintf("Field '%s' must contain at least one cell", err.Field())
		default:
			validationError.Message = fmt.Sprintf("Field '%s' failed validation for tag '%s'", err.Field(), err.Tag())
		}

		validationErrors = append(validationErrors, validationError)
	}

	return validationErrors
}

// validateUUID validates that a string is a valid UUID
func validateUUID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// validateNonEmptySet validates that a slice field (e.g. an active-cell
// input set) has at least one element; a present-but-empty input is a
// precondition violation rather than an accepted no-op.
func validateNonEmptySet(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	return field.Len() > 0
}
