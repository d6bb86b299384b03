package reviewer

import (
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	"github.com/watxaut/FontsReviewerApp/internal/geo"
	"github.com/watxaut/FontsReviewerApp/internal/session"
)

// =============================================================================
// Request/Response Types
// =============================================================================

// SignUpInput is the body of POST /v1/auth/signup.
type SignUpInput struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// SignInInput is the body of POST /v1/auth/signin.
type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshInput is the body of POST /v1/auth/refresh.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by sign-up and sign-in. Session is nil while the
// account waits for email confirmation.
type AuthResponse struct {
	User                 domain.User      `json:"user"`
	Session              *session.Session `json:"session,omitempty"`
	ConfirmationRequired bool             `json:"confirmation_required,omitempty"`
}

// UpdateNicknameInput is the body of PATCH /v1/me.
type UpdateNicknameInput struct {
	Nickname string `json:"nickname"`
}

// SubmitReviewInput is the body of POST /v1/fountains/{codi}/reviews. The
// location is the reviewer's current position and may be omitted by admins.
type SubmitReviewInput struct {
	domain.Ratings
	Comment  *string       `json:"comment,omitempty"`
	Location *geo.Location `json:"location,omitempty"`
}

// UpdateReviewInput is the body of PUT /v1/reviews/{id}.
type UpdateReviewInput struct {
	domain.Ratings
	Comment *string `json:"comment,omitempty"`
}

// ReviewedFountainsResponse lists the codis the caller has reviewed.
type ReviewedFountainsResponse struct {
	FountainIDs []string `json:"fountain_ids"`
}

// FountainsResponse wraps a fountain listing.
type FountainsResponse struct {
	Fountains []domain.Fountain `json:"fountains"`
	Count     int               `json:"count"`
}

// LeaderboardResponse wraps the ranked entries.
type LeaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}
