// internal/utils/errors.go
package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidDateRange        = errors.New("invalid_date_range")
	ErrReservationConflict     = errors.New("reservation_conflict")
	ErrReservationNotFound     = errors.New("reservation_not_found")
	ErrHotelNotFound           = errors.New("hotel_not_found")
	ErrRoomNotFound            = errors.New("room_not_found")
	ErrRoomUnitNotFound        = errors.New("room_unit_not_found")
	ErrRateYearNotFound        = errors.New("rate_year_not_found")
	ErrCalendarNotMaterialized = errors.New("calendar_not_materialized")

	ErrNoRowsUpdated = errors.New("no_rows_updated")

	// For external service failures (Twilio, SendGrid, Redis)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError is the structured error handed from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError flags malformed or missing caller input. Never retried.
func NewValidationError(msg string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeValidation, Message: msg, Err: err}
}

// NewConflictError reports an overlapping reservation. Carries the offending
// room numbers in Details so a client can offer alternatives.
func NewConflictError(msg string, details any) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Code: ErrCodeConflict, Message: msg, Details: details, Err: ErrReservationConflict}
}

func NewNotFoundError(msg string, err error) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Code: ErrCodeNotFound, Message: msg, Err: err}
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
