package reviewer

import (
	"context"
	"strings"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/session"
)

const (
	authEventSignUp  = "signup"
	authEventSignIn  = "signin"
	authEventSignOut = "signout"
	authEventRefresh = "refresh"
)

// requireSession returns the caller's session or an UNAUTHORIZED error.
func (s *Service) requireSession(ctx context.Context) (*session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok || !sess.Valid(s.now()) {
		return nil, svcerrors.Unauthorized("Authentication required")
	}
	return sess, nil
}

func (s *Service) recordAuth(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if se := svcerrors.GetServiceError(err); se != nil {
			outcome = strings.ToLower(string(se.Code))
		}
	}
	s.metrics.RecordAuthEvent(event, outcome)
}

// SignUp registers an account and makes sure its profile exists.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (resp *AuthResponse, err error) {
	defer func() { s.recordAuth(authEventSignUp, err) }()

	in.Email = strings.TrimSpace(in.Email)
	in.Nickname = strings.TrimSpace(in.Nickname)
	if err := domain.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidateNickname(in.Nickname); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	// A failing uniqueness probe is not fatal: the unique index still
	// guards the insert below.
	existing, err := s.store.FindProfileByNickname(ctx, in.Nickname)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("nickname check failed, continuing sign-up")
	} else if existing != nil {
		return nil, svcerrors.NicknameTaken(nil)
	}

	res, err := s.auth.SignUp(ctx, in.Email, in.Password, in.Nickname)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id": res.UserID,
		"email":   logging.MaskEmail(in.Email),
	})

	if res.Session == nil {
		log.Info("sign-up pending email confirmation")
		return &AuthResponse{
			User:                 domain.User{ID: res.UserID, Nickname: in.Nickname, Role: domain.RoleOperator},
			ConfirmationRequired: true,
		}, nil
	}

	userCtx := session.NewContext(ctx, res.Session)
	user, err := s.ensureProfile(userCtx, res.UserID, in.Nickname)
	if err != nil {
		return nil, err
	}

	log.Info("user signed up")
	return &AuthResponse{User: *user, Session: res.Session}, nil
}

// ensureProfile returns the profile the signup trigger created, inserting
// it when the trigger has not run. A failed insert is re-checked once since
// the trigger may have won the race.
func (s *Service) ensureProfile(ctx context.Context, userID, nickname string) (*domain.User, error) {
	user, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	user, createErr := s.store.CreateProfile(ctx, userID, nickname)
	if createErr == nil {
		return user, nil
	}
	if user, err := s.store.GetProfile(ctx, userID); err == nil {
		return user, nil
	}
	return nil, createErr
}

// SignIn authenticates with email and password and loads the profile.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (resp *AuthResponse, err error) {
	defer func() { s.recordAuth(authEventSignIn, err) }()

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, svcerrors.Validation("Email and password are required")
	}

	res, err := s.auth.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		s.logger.LogSecurityEvent(ctx, "signin_failed", map[string]interface{}{
			"email": logging.MaskEmail(in.Email),
		})
		return nil, err
	}

	user, err := s.store.GetProfile(session.NewContext(ctx, res.Session), res.UserID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: *user, Session: res.Session}, nil
}

// Refresh exchanges a refresh token for a new session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (sess *session.Session, err error) {
	defer func() { s.recordAuth(authEventRefresh, err) }()
	return s.auth.Refresh(ctx, strings.TrimSpace(refreshToken))
}

// SignOut revokes the caller's session.
func (s *Service) SignOut(ctx context.Context) (err error) {
	defer func() { s.recordAuth(authEventSignOut, err) }()

	sess, err := s.requireSession(ctx)
	if err != nil {
		return err
	}
	return s.auth.SignOut(ctx, sess.AccessToken)
}

// CurrentUser returns the caller's profile.
func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	sess, err := s.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, sess.UserID)
}

// IsUserLoggedIn reports whether ctx carries a non-expired session.
func (s *Service) IsUserLoggedIn(ctx context.Context) bool {
	_, err := s.requireSession(ctx)
	return err == nil
}

// UpdateNickname renames the caller.
func (s *Service) UpdateNickname(ctx context.Context, nickname string) (*domain.User, error) {
	sess, err := s.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	nickname = strings.TrimSpace(nickname)
	if err := domain.ValidateNickname(nickname); err != nil {
		return nil, err
	}

	existing, err := s.store.FindProfileByNickname(ctx, nickname)
	if err == nil && existing != nil {
		if existing.ID == sess.UserID {
			return existing, nil
		}
		return nil, svcerrors.NicknameTaken(nil)
	}
	return s.store.UpdateNickname(ctx, sess.UserID, nickname)
}
