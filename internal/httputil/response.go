// Package httputil provides JSON response helpers and bounded body readers
// shared by the HTTP handlers and the Supabase client.
package httputil

import (
	"encoding/json"
	"net/http"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/internal/logging"
)

const maxRequestBodyBytes = 1 << 20

// ErrorBody is the JSON envelope for every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// WriteJSON writes v with the given status. A value that cannot be encoded
// (NaN, channels) turns into a 500 envelope instead of an empty body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.WriteHeader(status)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.Default().WithError(err).Error("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailureBody)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

var encodeFailureBody = []byte(`{"error":{"code":"` + string(svcerrors.ErrCodeInternal) + `","message":"failed to encode response"}}` + "\n")

// WriteErrorResponse writes the error envelope, attaching the request trace id.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	body := ErrorBody{Error: ErrorDetail{Code: code, Message: message, Details: details}}
	if r != nil {
		body.Error.TraceID = logging.GetTraceID(r.Context())
	}
	WriteJSON(w, status, body)
}

// WriteError writes a bare status and message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteErrorResponse(w, nil, status, codeForStatus(status), message, nil)
}

// WriteServiceError converts any error to the envelope. Errors without a
// ServiceError in their chain become a generic 500 so internals never leak.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	se := svcerrors.GetServiceError(err)
	if se == nil {
		se = svcerrors.Internal("Internal server error", err)
	}
	status := se.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteErrorResponse(w, r, status, string(se.Code), se.Message, se.Details)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// DecodeJSON decodes the request body into v, writing a 400 on failure.
// Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		BadRequest(w, "request body required")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(svcerrors.ErrCodeValidation)
	case http.StatusUnauthorized:
		return string(svcerrors.ErrCodeUnauthorized)
	case http.StatusForbidden:
		return string(svcerrors.ErrCodeForbidden)
	case http.StatusNotFound:
		return string(svcerrors.ErrCodeNotFound)
	case http.StatusTooManyRequests:
		return string(svcerrors.ErrCodeRateLimitExceeded)
	default:
		return string(svcerrors.ErrCodeInternal)
	}
}
