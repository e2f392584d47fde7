// ABOUTME: Session errors: local credential validation and missing-token preconditions
// ABOUTME: ValidationError never reaches the token layer

package session

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/2389/agentdesk/internal/api"
)

// ErrNotAuthenticated is returned by operations that need an access token
var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError reports credentials rejected before any request is made
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateCredentials(creds api.Credentials) error {
	err := validate.Struct(creds)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validating credentials: %w", err)
	}
	return newValidationError(errs[0])
}

func newValidationError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: field + " is required"}
	case "email":
		return &ValidationError{Field: field, Message: field + " must be a valid email address"}
	default:
		return &ValidationError{Field: field, Message: field + " is invalid"}
	}
}
