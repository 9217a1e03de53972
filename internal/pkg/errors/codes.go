package errors

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Notification configuration codes.
const (
	CodeSettingsNotFound = "SETTINGS_NOT_FOUND"
	CodeProfileNotFound  = "PROFILE_NOT_FOUND"
	CodeInvalidEvent     = "INVALID_EVENT"
	CodeInvalidRecipient = "INVALID_RECIPIENT_TYPE"
)

// Gallery codes.
const (
	CodeMediaNotFound = "MEDIA_NOT_FOUND"
	CodeMediaInUse    = "MEDIA_IN_USE"
)

// Job codes.
const (
	CodeScanFailed    = "SCAN_FAILED"
	CodeEnqueueFailed = "ENQUEUE_FAILED"
)

// Auth codes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// Generic codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrSettingsNotFound is returned when the notification settings row is absent.
func ErrSettingsNotFound() *AppError {
	return NotFound(CodeSettingsNotFound, "notification settings are not configured")
}

// ErrProfileNotFound is returned when a user profile cannot be loaded.
func ErrProfileNotFound(userID string) *AppError {
	return NotFound(CodeProfileNotFound, "user profile not found").
		WithParams(map[string]any{"user_id": userID})
}

// ErrMediaNotFound is returned for unknown gallery media ids.
func ErrMediaNotFound(mediaID string) *AppError {
	return NotFound(CodeMediaNotFound, "media item not found").
		WithParams(map[string]any{"media_id": mediaID})
}

// ErrMediaInUse is returned when deleting media still referenced by orders.
func ErrMediaInUse(mediaID string, dependents int) *AppError {
	return Conflict(CodeMediaInUse, "media item is referenced by order line items").
		WithParams(map[string]any{"media_id": mediaID, "dependents": dependents})
}

// ErrValidation converts an ozzo-validation result into a 400 AppError with
// one FieldError per failing field.
func ErrValidation(err error) *AppError {
	appErr := Wrap(err, CodeValidationFailed, "request validation failed", http.StatusBadRequest)

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return appErr
	}
	out := make([]FieldError, 0, len(fieldErrs))
	for field, ferr := range fieldErrs {
		out = append(out, FieldError{Field: field, Message: ferr.Error()})
	}
	return appErr.WithFieldErrors(out)
}
