package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Postgres and PostgREST error codes the application reacts to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeNoRows              = "PGRST116"
	CodeJWTExpired          = "PGRST301"
)

// Error is an error response from PostgREST or GoTrue.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"status_code"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase error %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("supabase error %d: %s", e.StatusCode, msg)
}

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("supabase %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err came from the transport.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// parseError decodes PostgREST ({code,message,details,hint}) and GoTrue
// ({error,error_description} or {code,msg,error_code}) error bodies.
func parseError(body []byte, statusCode int) error {
	var errResp struct {
		Code             json.RawMessage `json:"code"`
		ErrorCode        string          `json:"error_code"`
		Message          string          `json:"message"`
		Msg              string          `json:"msg"`
		Details          string          `json:"details"`
		Hint             string          `json:"hint"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return &Error{
			Code:       "unknown",
			Message:    string(body),
			StatusCode: statusCode,
		}
	}

	// GoTrue sends a numeric HTTP code in "code"; PostgREST sends a string.
	code := ""
	var s string
	if json.Unmarshal(errResp.Code, &s) == nil {
		code = s
	}
	if errResp.ErrorCode != "" {
		code = errResp.ErrorCode
	}
	if code == "" && errResp.Error != "" {
		code = errResp.Error
	}

	msg := errResp.Message
	if msg == "" {
		msg = errResp.Msg
	}
	if msg == "" {
		msg = errResp.ErrorDescription
	}
	if msg == "" {
		msg = errResp.Error
	}

	return &Error{
		Code:       code,
		Message:    msg,
		Details:    errResp.Details,
		Hint:       errResp.Hint,
		StatusCode: statusCode,
	}
}
