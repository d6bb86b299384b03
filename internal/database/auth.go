package database

import (
	"context"
	"fmt"
	"time"

	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/session"
	"github.com/watxaut/FontsReviewerApp/supabase/client"
)

// AuthResult is the outcome of a sign-up or sign-in. Session is nil when
// the project requires email confirmation before issuing tokens.
type AuthResult struct {
	UserID  string
	Email   string
	Session *session.Session
}

// AuthRepository wraps the GoTrue endpoints.
type AuthRepository struct {
	auth   *client.AuthClient
	logger *logging.Logger
	now    func() time.Time
}

// NewAuthRepository creates an auth repository.
func NewAuthRepository(c *client.Client, logger *logging.Logger) *AuthRepository {
	if logger == nil {
		logger = logging.Default()
	}
	var auth *client.AuthClient
	if c != nil {
		auth = c.Auth()
	}
	return &AuthRepository{auth: auth, logger: logger, now: time.Now}
}

func (a *AuthRepository) ready() error {
	if a == nil || a.auth == nil {
		return fmt.Errorf("%w: auth repository not initialized", ErrInvalidInput)
	}
	return nil
}

// SignUp registers a user, passing the nickname as metadata for the
// profile trigger.
func (a *AuthRepository) SignUp(ctx context.Context, email, password, nickname string) (*AuthResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	res, err := a.auth.SignUp(ctx, client.SignUpRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"nickname": nickname},
	})
	if err != nil {
		return nil, classifyAuth("signup", err)
	}

	out := &AuthResult{Email: email}
	if res.User != nil {
		out.UserID = res.User.ID
	}
	if !res.NeedsConfirmation() {
		out.Session = a.toSession(res.Session)
		out.UserID = out.Session.UserID
	}
	if out.UserID == "" {
		return nil, classifyAuth("signup", fmt.Errorf("response carried no user id"))
	}
	return out, nil
}

// SignIn exchanges email and password for a session.
func (a *AuthRepository) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	s, err := a.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, classifyAuth("signin", err)
	}
	sess := a.toSession(s)
	return &AuthResult{UserID: sess.UserID, Email: sess.Email, Session: sess}, nil
}

// Refresh exchanges a refresh token for a new session.
func (a *AuthRepository) Refresh(ctx context.Context, refreshToken string) (*session.Session, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, invalidInput("refresh_token", "cannot be empty")
	}

	s, err := a.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, classifyAuth("refresh", err)
	}
	return a.toSession(s), nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthRepository) SignOut(ctx context.Context, accessToken string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := a.auth.SignOut(ctx, accessToken); err != nil {
		return classifyAuth("signout", err)
	}
	return nil
}

func (a *AuthRepository) toSession(s *client.Session) *session.Session {
	out := &session.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
	if out.ExpiresAt == 0 && s.ExpiresIn > 0 {
		out.ExpiresAt = a.now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	if s.User != nil {
		out.UserID = s.User.ID
		out.Email = s.User.Email
	}
	return out
}
