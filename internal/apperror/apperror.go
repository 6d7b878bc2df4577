package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Standard error codes
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "RESOURCE_NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError carries the HTTP status and error code a handler should answer with
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func newAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Validation is a missing or malformed field, or a broken business rule.
func Validation(format string, args ...any) *AppError {
	return newAppError(CodeValidation, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

// NotFound reports that the resource with the given id does not exist.
func NotFound(resource, id string) *AppError {
	err := newAppError(CodeNotFound, resource+" not found", http.StatusNotFound)
	if id != "" {
		err.WithDetail("id", id)
	}
	return err
}

// Conflict is a duplicate unique key. It is answered with 400 like other input errors.
func Conflict(format string, args ...any) *AppError {
	return newAppError(CodeConflict, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return newAppError(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return newAppError(CodeForbidden, message, http.StatusForbidden)
}

// Internal wraps an unexpected failure. The message is only shown in development.
func Internal(err error) *AppError {
	return newAppError(CodeInternal, "an internal error occurred", http.StatusInternalServerError).Wrap(err)
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromStore maps gorm errors for the named resource onto the taxonomy.
// Errors that already are AppErrors pass through unchanged.
func FromStore(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(resource, id).Wrap(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("%s already exists", resource).Wrap(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return Validation("%s references a record that does not exist or is still referenced", resource).Wrap(err)
	default:
		return Internal(err)
	}
}
