// Package session owns the authenticated user's token pair and derived
// identity, persisted so a portal restart resumes the session.
package session

import (
	"context"

	"github.com/Znbmels/keremet/internal/clinic"
)

// Session is the full authenticated state. It is always replaced wholesale:
// the access and refresh tokens are never written independently.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	Role         clinic.Role `json:"role"`
	UserID       int64       `json:"user_id"`
	DisplayName  string      `json:"display_name"`
}

// Store persists the session. Load returns (nil, nil) when signed out.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}
