// Package errors defines the typed error taxonomy shared by the backend-access
// layer and the HTTP handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyReviewed    ErrorCode = "ALREADY_REVIEWED"
	ErrCodeNicknameTaken      ErrorCode = "NICKNAME_TAKEN"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
	ErrCodeOutOfRange         ErrorCode = "OUT_OF_RANGE"
	ErrCodeNoInternet         ErrorCode = "NO_INTERNET"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// ServiceError is an error with a stable code, a user-facing message and the
// HTTP status it maps to.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches another *ServiceError by code so errors.Is works against the
// sentinel values below.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error with an extra detail attached.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	out := *e
	out.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// New creates a ServiceError.
func New(code ErrorCode, message string, status int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap creates a ServiceError carrying an underlying cause.
func Wrap(code ErrorCode, message string, status int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Sentinels for errors.Is comparisons.
var (
	ErrAlreadyReviewed = New(ErrCodeAlreadyReviewed, "You have already reviewed this fountain", http.StatusConflict)
	ErrNicknameTaken   = New(ErrCodeNicknameTaken, "Nickname is already taken", http.StatusConflict)
	ErrNoInternet      = New(ErrCodeNoInternet, "No internet connection", http.StatusServiceUnavailable)
	ErrNotFound        = New(ErrCodeNotFound, "Resource not found", http.StatusNotFound)
	ErrUnauthorized    = New(ErrCodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden       = New(ErrCodeForbidden, "Access denied", http.StatusForbidden)
	ErrOutOfRange      = New(ErrCodeOutOfRange, "You must be within 300m of the fountain to review it", http.StatusForbidden)
)

func Validation(message string) *ServiceError {
	return New(ErrCodeValidation, message, http.StatusBadRequest)
}

func Unauthorized(message string) *ServiceError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func InvalidToken(err error) *ServiceError {
	return Wrap(ErrCodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized, err)
}

func InvalidCredentials(err error) *ServiceError {
	return Wrap(ErrCodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized, err)
}

func Forbidden(message string) *ServiceError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

func NotFound(resource, id string) *ServiceError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetails("id", id)
}

func AlreadyReviewed(err error) *ServiceError {
	return Wrap(ErrCodeAlreadyReviewed, ErrAlreadyReviewed.Message, http.StatusConflict, err)
}

func NicknameTaken(err error) *ServiceError {
	return Wrap(ErrCodeNicknameTaken, ErrNicknameTaken.Message, http.StatusConflict, err)
}

func EmailTaken(err error) *ServiceError {
	return Wrap(ErrCodeEmailTaken, "An account with this email already exists", http.StatusConflict, err)
}

// OutOfRange reports a geofence rejection with the measured distance.
func OutOfRange(distanceMeters, maxMeters float64) *ServiceError {
	return New(ErrCodeOutOfRange,
		fmt.Sprintf("You must be within %.0fm of the fountain to review it", maxMeters),
		http.StatusForbidden).
		WithDetails("distance_meters", distanceMeters)
}

func NoInternet(err error) *ServiceError {
	return Wrap(ErrCodeNoInternet, ErrNoInternet.Message, http.StatusServiceUnavailable, err)
}

func RateLimitExceeded(limit float64, window string) *ServiceError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

func Internal(message string, err error) *ServiceError {
	return Wrap(ErrCodeInternal, message, http.StatusInternalServerError, err)
}

// GetServiceError extracts the first *ServiceError in err's chain.
func GetServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
