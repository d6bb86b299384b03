package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGetServiceError_Wrapped(t *testing.T) {
	base := AlreadyReviewed(fmt.Errorf("duplicate key value"))
	wrapped := fmt.Errorf("submit review: %w", base)

	got := GetServiceError(wrapped)
	if got == nil {
		t.Fatal("GetServiceError() = nil, want error")
	}
	if got.Code != ErrCodeAlreadyReviewed {
		t.Errorf("Code = %v, want %v", got.Code, ErrCodeAlreadyReviewed)
	}
	if got.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want %d", got.HTTPStatus, http.StatusConflict)
	}
	if got.Message != "You have already reviewed this fountain" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestGetServiceError_Plain(t *testing.T) {
	if got := GetServiceError(errors.New("boom")); got != nil {
		t.Errorf("GetServiceError() = %v, want nil", got)
	}
	if got := GetServiceError(nil); got != nil {
		t.Errorf("GetServiceError(nil) = %v, want nil", got)
	}
}

func TestErrorsIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("list: %w", NoInternet(errors.New("dial tcp: no route")))
	if !errors.Is(err, ErrNoInternet) {
		t.Error("errors.Is(err, ErrNoInternet) = false, want true")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = true, want false")
	}
}

func TestWithDetails_DoesNotMutateReceiver(t *testing.T) {
	base := Validation("bad input")
	withField := base.WithDetails("field", "taste")

	if base.Details != nil {
		t.Errorf("base.Details = %v, want nil", base.Details)
	}
	if withField.Details["field"] != "taste" {
		t.Errorf("Details[field] = %v, want taste", withField.Details["field"])
	}
}

func TestOutOfRange(t *testing.T) {
	err := OutOfRange(412.5, 300)
	if err.Code != ErrCodeOutOfRange {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeOutOfRange)
	}
	if err.Message != "You must be within 300m of the fountain to review it" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["distance_meters"] != 412.5 {
		t.Errorf("distance_meters = %v, want 412.5", err.Details["distance_meters"])
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"match", NicknameTaken(nil), ErrCodeNicknameTaken, true},
		{"wrapped match", fmt.Errorf("x: %w", NotFound("fountain", "f-1")), ErrCodeNotFound, true},
		{"mismatch", Forbidden("no"), ErrCodeUnauthorized, false},
		{"plain", errors.New("x"), ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}
