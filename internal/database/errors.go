// Package database provides the Supabase-backed repositories for profiles,
// reviews, fountains and statistics.
package database

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/supabase/client"
)

var (
	// ErrInvalidInput marks caller mistakes caught before any request is sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDatabaseError marks failures reported by PostgREST or Postgres.
	ErrDatabaseError = errors.New("database error")
)

// NotFoundError is returned when a single-row lookup finds nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError builds the ServiceError for a missing row, keeping the
// NotFoundError in the chain.
func NewNotFoundError(resource, id string) error {
	se := svcerrors.NotFound(resource, id)
	se.Err = &NotFoundError{Resource: resource, ID: id}
	return se
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || svcerrors.IsCode(err, svcerrors.ErrCodeNotFound)
}

func invalidInput(field, reason string) error {
	return svcerrors.Wrap(svcerrors.ErrCodeValidation, fmt.Sprintf("%s %s", field, reason), http.StatusBadRequest,
		fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)).WithDetails("field", field)
}

// classify maps a Supabase client error to a ServiceError. It is the only
// place where backend codes are interpreted for the REST API.
func classify(table, op, id string, err error) error {
	if err == nil {
		return nil
	}
	if se := svcerrors.GetServiceError(err); se != nil {
		return se
	}

	wrapped := fmt.Errorf("%w: %s %s: %v", ErrDatabaseError, op, table, err)

	if client.IsNetworkError(err) || isNetError(err) {
		return svcerrors.NoInternet(wrapped)
	}

	apiErr, ok := client.AsError(err)
	if !ok {
		return svcerrors.Internal("Unexpected database error", wrapped)
	}

	switch {
	case apiErr.Code == client.CodeUniqueViolation:
		switch table {
		case tableReviews:
			return svcerrors.AlreadyReviewed(wrapped)
		case tableProfiles:
			return svcerrors.NicknameTaken(wrapped)
		}
		return svcerrors.Wrap(svcerrors.ErrCodeValidation, "Duplicate value", http.StatusConflict, wrapped)
	case apiErr.Code == client.CodeNoRows || apiErr.StatusCode == http.StatusNotFound:
		return NewNotFoundError(resourceName(table), id)
	case apiErr.Code == client.CodeJWTExpired || apiErr.StatusCode == http.StatusUnauthorized:
		se := svcerrors.Unauthorized("Session expired, please sign in again")
		se.Err = wrapped
		return se
	case apiErr.StatusCode == http.StatusForbidden || apiErr.Code == "42501":
		se := svcerrors.Forbidden("You are not allowed to perform this action")
		se.Err = wrapped
		return se
	case apiErr.Code == client.CodeCheckViolation:
		return svcerrors.Wrap(svcerrors.ErrCodeValidation, "Value out of allowed range", http.StatusBadRequest, wrapped)
	}

	return svcerrors.Internal("Unexpected database error", wrapped)
}

// classifyAuth maps GoTrue errors.
func classifyAuth(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("auth %s: %w", op, err)

	if client.IsNetworkError(err) || isNetError(err) {
		return svcerrors.NoInternet(wrapped)
	}

	apiErr, ok := client.AsError(err)
	if !ok {
		return svcerrors.Internal("Authentication failed", wrapped)
	}

	switch apiErr.Code {
	case "user_already_exists", "email_exists":
		return svcerrors.EmailTaken(wrapped)
	case "invalid_grant", "invalid_credentials":
		return svcerrors.InvalidCredentials(wrapped)
	case "weak_password", "validation_failed", "email_address_invalid":
		return svcerrors.Wrap(svcerrors.ErrCodeValidation, apiErr.Message, http.StatusBadRequest, wrapped)
	}
	// Older GoTrue releases only say it in the message.
	if strings.Contains(strings.ToLower(apiErr.Message), "already registered") {
		return svcerrors.EmailTaken(wrapped)
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return svcerrors.Wrap(svcerrors.ErrCodeRateLimitExceeded, "Too many attempts, try again later", http.StatusTooManyRequests, wrapped)
	case http.StatusUnauthorized, http.StatusForbidden:
		se := svcerrors.Unauthorized("Session expired, please sign in again")
		se.Err = wrapped
		return se
	}
	return svcerrors.Internal("Authentication failed", wrapped)
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func resourceName(table string) string {
	switch table {
	case tableProfiles:
		return "profile"
	case tableReviews:
		return "review"
	case tableFountains, viewFountainStatsDetailed:
		return "fountain"
	default:
		return table
	}
}
