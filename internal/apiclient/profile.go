package apiclient

import (
	"context"
	"net/http"

	"github.com/Znbmels/keremet/internal/clinic"
)

// Profile fetches the authenticated user's own account.
func (c *Client) Profile(ctx context.Context) (*clinic.Profile, error) {
	var profile clinic.Profile
	if err := c.do(ctx, request{
		op:     "profile.get",
		method: http.MethodGet,
		base:   c.apiBase,
		path:   "/users/me/",
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfileRequest carries the editable account fields.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// UpdateProfile updates the authenticated user's account.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*clinic.Profile, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var profile clinic.Profile
	if err := c.do(ctx, request{
		op:     "profile.update",
		method: http.MethodPut,
		base:   c.apiBase,
		path:   "/users/me/",
		body:   body,
	}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
