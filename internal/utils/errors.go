// Package utils provides utility functions used throughout the application.
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the download flow.
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrNoResults        = errors.New("no results found")
	ErrInvalidSelection = errors.New("invalid selection index")
	ErrInvalidFormat    = errors.New("invalid format choice")
	ErrInvalidQuality   = errors.New("invalid quality choice")
	ErrNoSuitableFormat = errors.New("no suitable format")
	ErrCollaborator     = errors.New("collaborator failure")
)

// GenericFailureMessage is what clients see when an upstream call fails.
const GenericFailureMessage = "An error occurred while processing your request."

// AppError represents an application error with context.
// Message is safe to show to clients; Original is only ever logged.
type AppError struct {
	// Kind is one of the Err* sentinels above
	Kind error
	// Original is the underlying error that caused this error
	Original error
	// Message is a human-readable error message
	Message string
	// Code is the HTTP status code that should be returned
	Code int
	// Details contains additional error context for logs
	Details map[string]any
}

// Error returns the error message, satisfying the error interface.
func (e *AppError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the original cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Original != nil {
		errs = append(errs, e.Original)
	}
	return errs
}

// AddDetail adds a single detail to the error.
func (e *AppError) AddDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewAppError creates a new AppError.
func NewAppError(kind, err error, message string, code int) *AppError {
	return &AppError{
		Kind:     kind,
		Original: err,
		Message:  message,
		Code:     code,
		Details:  make(map[string]any),
	}
}

// MissingParameterError is returned when no query was supplied.
func MissingParameterError(message string) *AppError {
	if message == "" {
		message = "Query parameter or link is missing."
	}
	return NewAppError(ErrMissingParameter, nil, message, http.StatusBadRequest)
}

// NoResultsError is returned when a search produced nothing to choose from.
func NoResultsError(message string) *AppError {
	if message == "" {
		message = "No results found."
	}
	return NewAppError(ErrNoResults, nil, message, http.StatusNotFound)
}

// InvalidSelectionError reports a selection index outside [1, count].
func InvalidSelectionError(raw string, count int) *AppError {
	msg := fmt.Sprintf("Invalid selection %q. Choose a number between 1 and %d.", raw, count)
	return NewAppError(ErrInvalidSelection, nil, msg, http.StatusBadRequest).
		AddDetail("select", raw).
		AddDetail("count", count)
}

// InvalidFormatError reports a format choice other than the two accepted tokens.
func InvalidFormatError(raw string) *AppError {
	msg := fmt.Sprintf("Invalid format selection %q. Use 1 for audio or 2 for video.", raw)
	return NewAppError(ErrInvalidFormat, nil, msg, http.StatusBadRequest)
}

// InvalidQualityError reports an unusable quality choice.
func InvalidQualityError(message string) *AppError {
	if message == "" {
		message = "Invalid quality selection."
	}
	return NewAppError(ErrInvalidQuality, nil, message, http.StatusBadRequest)
}

// NoSuitableFormatError is returned when no format carries the required streams.
func NoSuitableFormatError(message string) *AppError {
	if message == "" {
		message = "No suitable format found for the video."
	}
	return NewAppError(ErrNoSuitableFormat, nil, message, http.StatusNotFound)
}

// CollaboratorError wraps a failed search, metadata, stream or transcode call.
// The client-facing message never carries the cause.
func CollaboratorError(op string, err error) *AppError {
	return NewAppError(ErrCollaborator, err, GenericFailureMessage, http.StatusInternalServerError).
		AddDetail("operation", op)
}

// IsCollaboratorFailure reports whether err came from an external call.
func IsCollaboratorFailure(err error) bool {
	return errors.Is(err, ErrCollaborator)
}

// StatusCode returns the HTTP status code for the error.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrMissingParameter),
		errors.Is(err, ErrInvalidSelection),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidQuality):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoResults),
		errors.Is(err, ErrNoSuitableFormat):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text a client may see for err.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return GenericFailureMessage
}
