// Package middleware provides HTTP middleware for the reviewer API
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/watxaut/FontsReviewerApp/internal/errors"
	internalhttputil "github.com/watxaut/FontsReviewerApp/internal/httputil"
	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/session"
)

// Claims are the claims GoTrue puts in a Supabase access token. The user id
// is the subject.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"` // "authenticated" for signed-in users
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies Supabase access tokens signed with the project's
// JWT secret.
type AuthMiddleware struct {
	secret    []byte
	logger    *logging.Logger
	skipPaths map[string]bool
	optional  bool
}

// NewAuthMiddleware creates a middleware that rejects requests without a
// valid token, except on skipPaths.
func NewAuthMiddleware(jwtSecret string, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}

	return &AuthMiddleware{
		secret:    []byte(jwtSecret),
		logger:    logger,
		skipPaths: skip,
	}
}

// Optional returns a copy that lets anonymous requests through. A token
// that is present but invalid is still rejected.
func (m *AuthMiddleware) Optional() *AuthMiddleware {
	cp := *m
	cp.optional = true
	return &cp
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractToken(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		if tokenString == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.respondError(w, r, errors.Unauthorized("Missing Authorization header"))
			return
		}

		claims, err := m.validateToken(tokenString)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("Token validation failed")
			m.respondError(w, r, err)
			return
		}

		sess := &session.Session{
			AccessToken: tokenString,
			UserID:      claims.Subject,
			Email:       claims.Email,
		}
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Unix()
		}

		ctx := session.NewContext(r.Context(), sess)
		ctx = logging.WithUserID(ctx, claims.Subject)
		if claims.Role != "" {
			ctx = logging.WithRole(ctx, claims.Role)
		}

		m.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"user_id": claims.Subject,
		}).Debug("Authentication successful")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the bearer token. Websocket upgrades may pass it as
// the access_token query parameter since browsers cannot set headers there.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if isWebsocketUpgrade(r) {
			return r.URL.Query().Get("access_token"), nil
		}
		return "", nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid Authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// validateToken validates a JWT token and returns claims
func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, errors.InvalidToken(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims")
	}
	if claims.Subject == "" {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "missing subject")
	}

	return claims, nil
}

// respondError sends an error response
func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Authentication failed", err)
	}

	internalhttputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)

	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("Authentication failed")
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}
