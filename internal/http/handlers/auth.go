package handlers

import (
	"net/http"
	"strings"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/clinic"
	"github.com/Znbmels/keremet/pkg/logging"
)

// AuthHandler exposes the authentication flows of the portal.
type AuthHandler struct {
	client *apiclient.Client
	logger *logging.Logger
}

func NewAuthHandler(client *apiclient.Client, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{client: client, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Role        clinic.Role `json:"role"`
	UserID      int64       `json:"user_id"`
	DisplayName string      `json:"display_name"`
}

// Login authenticates against the clinic backend and stores the session.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	sess, err := h.client.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Role:        sess.Role,
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
	})
}

// Logout discards the stored session.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Logout(r.Context()); err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Register creates an account and returns the new profile. The caller
// still has to log in afterwards.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req apiclient.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if _, err := clinic.ParseRole(string(req.Role)); err != nil {
		jsonError(w, "role must be DOCTOR or PATIENT", http.StatusBadRequest)
		return
	}

	profile, err := h.client.Register(r.Context(), req)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// Session reports who is signed in, if anyone.
// GET /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := h.client.Store().Load(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	if sess == nil {
		jsonError(w, "not signed in", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Role:        sess.Role,
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
	})
}
