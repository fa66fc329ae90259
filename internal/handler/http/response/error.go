package response

import (
	"errors"
	"net/http"

	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrDuplicateRecord):
		Conflict(w, "Attendance record already exists for this date, please retry")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrStorageUnavailable):
		ServiceUnavailable(w, "Attendance storage is temporarily unavailable, please retry")
	case errors.Is(err, attendance.ErrInvalidAction):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
