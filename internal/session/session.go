// Package session carries the authenticated Supabase session through a
// request context.
package session

import (
	"context"
	"time"
)

type contextKey struct{}

// Session is the caller's Supabase session. AccessToken is forwarded to
// PostgREST so row-level security applies to the caller.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // unix seconds, 0 when unknown
}

// IsExpired reports whether the session is past its expiry at now.
// A session without an expiry never expires on its own.
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= s.ExpiresAt
}

// Valid reports whether s is present, carries a token and is not expired.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && s.UserID != "" && !s.IsExpired(now)
}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session on ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// AccessToken returns the session token on ctx, or "" for anonymous calls.
func AccessToken(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.AccessToken
	}
	return ""
}
