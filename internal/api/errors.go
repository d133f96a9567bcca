package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"todo/internal/service"
)

// MapErrorToStatusCode maps repository errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEmptyTask),
		errors.Is(err, errInvalidFilter),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	case service.IsNotFound(err):
		return http.StatusNotFound

	case errors.Is(err, service.ErrDataSource):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that does not
// leak store details.
func GetSafeErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, service.ErrEmptyTask):
		return "Task title and description cannot both be empty"
	case errors.Is(err, errInvalidFilter):
		return "Invalid filter: use all, active or completed"
	case errors.As(err, &validationErrs):
		return "Invalid request: " + validationErrs[0].Field() + " failed " + validationErrs[0].Tag()
	case service.IsNotFound(err):
		return "Task not found"
	case errors.Is(err, service.ErrDataSource):
		return "Task store unavailable"
	default:
		return "An unexpected error occurred"
	}
}
