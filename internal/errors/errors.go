package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidUnits is returned when a request asks for a non-positive unit count.
	ErrInvalidUnits = errors.New("units required must be positive")
	// ErrInvalidRadius is returned when the search radius is non-positive.
	ErrInvalidRadius = errors.New("search radius must be positive")
	// ErrMissingCoordinates is returned when a blood request lacks a location.
	ErrMissingCoordinates = errors.New("latitude and longitude are required")
	// ErrInvalidBloodType is returned for a blood type outside the eight known groups.
	ErrInvalidBloodType = errors.New("invalid blood type")
	// ErrInvalidRole is returned when a user's role and profile fields disagree.
	ErrInvalidRole = errors.New("user role does not match profile fields")
	// ErrInvalidOperatingHours is returned when a center's schedule is not one entry per weekday.
	ErrInvalidOperatingHours = errors.New("operating hours must cover all seven weekdays")
	// ErrRequestNotFound is returned when a blood request is not found.
	ErrRequestNotFound = errors.New("blood request not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrCenterNotFound is returned when a donation center is not found.
	ErrCenterNotFound = errors.New("donation center not found")
	// ErrRemoteNotFound is returned when a remote document does not exist.
	ErrRemoteNotFound = errors.New("remote document not found")
	// ErrEmailTaken is returned when registering with an already used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrGeocoderUnavailable is returned when no geocoder is configured.
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
	// ErrTokenNotFound is returned when no session token is stored.
	ErrTokenNotFound = errors.New("token not found")
)

// RemoteError wraps a failed remote store operation. Remote failures are
// non-fatal to local operations: the record stays dirty and is retried on
// the next sync pass.
type RemoteError struct {
	Op         string
	Collection string
	Key        string
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s %s/%s: %v", e.Op, e.Collection, e.Key, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NewRemoteError builds a RemoteError for an operation on collection/key.
func NewRemoteError(op, collection, key string, err error) *RemoteError {
	return &RemoteError{Op: op, Collection: collection, Key: key, Err: err}
}

// PartialSyncError aggregates per-record failures from one sync batch.
// Sibling records are unaffected; the error exists for observability.
type PartialSyncError struct {
	Entity   string
	Failures []error
}

func (e *PartialSyncError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, err := range e.Failures {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("sync %s: %d record(s) failed: %s", e.Entity, len(e.Failures), strings.Join(msgs, "; "))
}

// Len returns the number of failed records.
func (e *PartialSyncError) Len() int { return len(e.Failures) }

// IsPartialOnly reports whether err consists solely of per-record sync
// failures. A joined error counts only when every branch does; a phase
// failure (for example the remote listing call) makes the whole error hard.
func IsPartialOnly(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !IsPartialOnly(e) {
				return false
			}
		}
		return true
	}
	var pse *PartialSyncError
	return errors.As(err, &pse)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidUnits):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_UNITS")
	case errors.Is(err, ErrInvalidRadius):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_RADIUS")
	case errors.Is(err, ErrMissingCoordinates):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MISSING_COORDINATES")
	case errors.Is(err, ErrInvalidBloodType):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_BLOOD_TYPE")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrInvalidOperatingHours):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_OPERATING_HOURS")
	case errors.Is(err, ErrRequestNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "REQUEST_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrCenterNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CENTER_NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrGeocoderUnavailable):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "GEOCODER_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
