package catalog

import "errors"

// ErrProductNotFound is returned when an id does not resolve to a stored
// product.
var ErrProductNotFound = errors.New("product not found")

// ValidationError reports client input that failed validation before any
// side effect ran. Field is empty when the error concerns the request as a
// whole.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
