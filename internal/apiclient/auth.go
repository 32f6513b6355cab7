package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/internal/session"
)

type loginResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserRole string `json:"user_role"`
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
}

// Login authenticates with the backend and persists the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	err = c.do(ctx, request{
		op:     "auth.login",
		method: http.MethodPost,
		base:   c.authBase,
		path:   "/auth/login/",
		body:   body,
		noAuth: true,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Detail == "" {
			switch apiErr.StatusCode {
			case http.StatusNotFound:
				apiErr.Detail = "No account is registered for this email."
			case http.StatusUnauthorized:
				apiErr.Detail = "Wrong password."
			}
		}
		return nil, err
	}
	if resp.Access == "" {
		return nil, fmt.Errorf("apiclient: login response missing access token")
	}

	role, err := clinic.ParseRole(resp.UserRole)
	if err != nil {
		return nil, fmt.Errorf("apiclient: login: %w", err)
	}

	sess := &session.Session{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		Role:         role,
		UserID:       resp.UserID,
		DisplayName:  resp.FullName,
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("apiclient: login: save session: %w", err)
	}
	c.logger.Info("logged in", "user_id", sess.UserID, "role", sess.Role)
	return sess, nil
}

// Logout destroys the stored session. The backend keeps no server-side
// session to invalidate.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("apiclient: logout: %w", err)
	}
	return nil
}

// RegisterRequest is the new-account payload. Specialty and INN apply to
// doctors only.
type RegisterRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      clinic.Role `json:"role"`
	Phone     string      `json:"phone,omitempty"`
	Specialty string      `json:"specialty,omitempty"`
	INN       string      `json:"inn,omitempty"`
}

// Register creates a new account. It does not log the user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*clinic.Profile, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var profile clinic.Profile
	if err := c.do(ctx, request{
		op:     "auth.register",
		method: http.MethodPost,
		base:   c.apiBase,
		path:   "/users/",
		body:   body,
		noAuth: true,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
