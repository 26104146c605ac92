package types

import (
	"net/http"

	appErr "github.com/inkpath/engine/pkg/errors"
)

// FromAppError converts an error into the API error envelope. Validation
// error lists carried in the error's metadata are surfaced as data.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	ae, ok := err.(*appErr.AppError)
	if !ok {
		return &APIError{Code: string(appErr.CodeUnknown), Message: err.Error()}
	}
	out := &APIError{Code: string(ae.Code), Message: ae.Message}
	if errs, ok := ae.Meta["errors"].([]string); ok {
		out.Errors = errs
	}
	return out
}

// StatusFromError maps an AppError code to an HTTP status.
func StatusFromError(err error) int {
	ae, ok := err.(*appErr.AppError)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeConflict, appErr.CodeAlreadyExists:
		return http.StatusConflict
	case appErr.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
