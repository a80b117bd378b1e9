package errs

import (
	"errors"
	"net/http"
)

// Authentication & Authorization Errors
var (
	ErrMissingToken = errors.New("missing access token")
	ErrExpiredToken = errors.New("expired access token")
	ErrInvalidToken = errors.New("invalid access token")
)

// Submission Errors
var (
	ErrSubmissionInFlight = errors.New("submission already in progress")
	ErrEndDateLocked      = errors.New("end date is disabled while the project is ongoing")
	ErrIndexOutOfRange    = errors.New("item index out of range")
)

// Authentication & Authorization Error Constructors
func NewMissingTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrMissingToken,
		Details:    "Missing access token",
		Field:      "authorization",
	}
}

func NewExpiredTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrExpiredToken,
		Details:    "Access token has expired",
		Field:      "authorization",
	}
}

func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidToken,
		Details:    "Invalid access token",
		Field:      "authorization",
	}
}

func NewSubmissionInFlightError(key string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrSubmissionInFlight,
		Details:    "A save for " + key + " is still running",
	}
}

func IsSubmissionInFlightError(err error) bool {
	return errors.Is(err, ErrSubmissionInFlight)
}
