package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// =============================================================================
// Auth Operations (GoTrue)
// =============================================================================

// AuthClient handles GoTrue operations.
type AuthClient struct {
	client *Client
}

// Auth returns the auth API client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// User is a Supabase auth user.
type User struct {
	ID           string                 `json:"id"`
	Aud          string                 `json:"aud,omitempty"`
	Role         string                 `json:"role,omitempty"`
	Email        string                 `json:"email"`
	ConfirmedAt  string                 `json:"confirmed_at,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt    string                 `json:"created_at,omitempty"`
}

// Session is an auth session returned by sign-up, sign-in and refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// SignUpRequest registers a user. Data ends up in the user's raw metadata,
// which the profile trigger reads the nickname from.
type SignUpRequest struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SignUpResult carries the session, or only the user when the project
// requires email confirmation before a session is issued.
type SignUpResult struct {
	Session *Session
	User    *User
}

// NeedsConfirmation reports whether sign-up produced no session.
func (r *SignUpResult) NeedsConfirmation() bool {
	return r.Session == nil || r.Session.AccessToken == ""
}

// SignUp creates a new user.
func (a *AuthClient) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	resp, err := a.client.authRequest(ctx, http.MethodPost, "/signup", req, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := resp.JSON(&session); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if session.AccessToken != "" {
		return &SignUpResult{Session: &session, User: session.User}, nil
	}

	var user User
	if err := resp.JSON(&user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &SignUpResult{User: &user}, nil
}

// SignInWithPassword authenticates a user with email/password.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return a.sessionRequest(ctx, "/token?grant_type=password", body)
}

// RefreshSession exchanges a refresh token for a new session.
func (a *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}
	return a.sessionRequest(ctx, "/token?grant_type=refresh_token", body)
}

// GetUser retrieves the current user using an access token.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := a.client.authRequest(ctx, http.MethodGet, "/user", nil, accessToken)
	if err != nil {
		return nil, err
	}
	var user User
	if err := resp.JSON(&user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := a.client.authRequest(ctx, http.MethodPost, "/logout", nil, accessToken)
	return err
}

func (a *AuthClient) sessionRequest(ctx context.Context, path string, body any) (*Session, error) {
	resp, err := a.client.authRequest(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return nil, err
	}
	var session Session
	if err := resp.JSON(&session); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &session, nil
}

func (c *Client) authRequest(ctx context.Context, method, path string, body any, accessToken string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/auth/v1"+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, "auth"+authResource(path))
}

// authResource strips the query so metrics labels stay bounded.
func authResource(path string) string {
	resource, _, _ := strings.Cut(path, "?")
	return resource
}
